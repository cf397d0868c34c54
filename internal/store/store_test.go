package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woshizys/cachepulse/internal/store"
)

func TestGet_SeededKey(t *testing.T) {
	s := store.New(time.Millisecond, 2*time.Millisecond)
	s.Seed("k", "v")

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestGet_NotFound(t *testing.T) {
	s := store.New(time.Millisecond, 2*time.Millisecond)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGet_PaysDelayOnEveryAccess(t *testing.T) {
	min := 30 * time.Millisecond
	s := store.New(min, 60*time.Millisecond)
	s.Seed("k", "v")

	for _, key := range []string{"k", "missing"} {
		start := time.Now()
		_, _ = s.Get(context.Background(), key)
		assert.GreaterOrEqual(t, time.Since(start), min,
			"access %q must pay the simulated delay, hit or miss", key)
	}
}

func TestGet_ContextCancelled(t *testing.T) {
	s := store.New(time.Second, 2*time.Second)
	s.Seed("k", "v")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeed_OverwriteKeepsSingleKey(t *testing.T) {
	s := store.New(time.Millisecond, time.Millisecond)
	s.Seed("k", "v1")
	s.Seed("k", "v2")

	assert.Equal(t, 1, s.Len())

	got, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)
}

func TestRandomKey(t *testing.T) {
	s := store.New(time.Millisecond, time.Millisecond)

	_, ok := s.RandomKey()
	assert.False(t, ok, "empty store has no keys to pick")

	seeded := map[string]bool{"a": true, "b": true, "c": true}
	for k := range seeded {
		s.Seed(k, "v")
	}

	for i := 0; i < 20; i++ {
		key, ok := s.RandomKey()
		require.True(t, ok)
		assert.True(t, seeded[key], "random key %q must be a seeded key", key)
	}
}
