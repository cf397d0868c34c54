package tracker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woshizys/cachepulse/internal/tracker"
)

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  tracker.Config
	}{
		{"zero window", tracker.Config{Window: 0}},
		{"negative window", tracker.Config{Window: -time.Second}},
		{"negative cleanup interval", tracker.Config{Window: time.Second, CleanupInterval: -time.Millisecond}},
		{"negative max samples", tracker.Config{Window: time.Second, MaxSamples: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracker.New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestTrack_RecordsLatencyAndAverage(t *testing.T) {
	tr, err := tracker.New(tracker.Config{Window: 5 * time.Second, CleanupInterval: 500 * time.Millisecond})
	require.NoError(t, err)
	defer tr.Close()

	ctx := context.Background()
	for _, d := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond} {
		d := d
		err := tr.Track(ctx, func(context.Context) error {
			time.Sleep(d)
			return nil
		})
		require.NoError(t, err)
	}

	require.Equal(t, 3, tr.Len())

	avg, ok := tr.Average()
	require.True(t, ok)
	// Mean of ~100/200/300ms, rounded to the nearest millisecond. Sleep
	// overshoots a little, so allow slack above the exact 200ms.
	assert.GreaterOrEqual(t, avg, 200*time.Millisecond)
	assert.Less(t, avg, 260*time.Millisecond)
}

func TestTrack_FailureStillRecorded(t *testing.T) {
	tr, err := tracker.New(tracker.Config{Window: time.Minute})
	require.NoError(t, err)
	defer tr.Close()

	boom := errors.New("backend exploded")
	got := tr.Track(context.Background(), func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return boom
	})

	assert.Equal(t, boom, got, "op error must be re-raised unchanged")
	assert.Equal(t, 1, tr.Len(), "time-to-failure must still be sampled")
}

func TestAverage_NoSamples(t *testing.T) {
	tr, err := tracker.New(tracker.Config{Window: time.Minute})
	require.NoError(t, err)
	defer tr.Close()

	_, ok := tr.Average()
	assert.False(t, ok, "empty tracker must report no average, not zero")
}

func TestAverage_MatchesSamples(t *testing.T) {
	tr, err := tracker.New(tracker.Config{Window: time.Minute})
	require.NoError(t, err)
	defer tr.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = tr.Track(ctx, func(context.Context) error {
			time.Sleep(time.Duration(i+1) * 5 * time.Millisecond)
			return nil
		})
	}

	samples := tr.Samples()
	require.Len(t, samples, 5)

	var total time.Duration
	for _, s := range samples {
		total += s.Latency
	}
	want := (total / time.Duration(len(samples))).Round(time.Millisecond)

	avg, ok := tr.Average()
	require.True(t, ok)
	assert.Equal(t, want, avg)
}

func TestJanitor_PrunesExpiredSamples(t *testing.T) {
	tr, err := tracker.New(tracker.Config{
		Window:          150 * time.Millisecond,
		CleanupInterval: 25 * time.Millisecond,
	})
	require.NoError(t, err)
	defer tr.Close()

	_ = tr.Track(context.Background(), func(context.Context) error { return nil })
	require.Equal(t, 1, tr.Len())

	avg, ok := tr.Average()
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), avg, "near-instant op rounds to 0ms, still a real average")

	// Window plus a couple of cleanup cycles: the sample must be gone and
	// the average must revert to "no average".
	require.Eventually(t, func() bool {
		_, ok := tr.Average()
		return !ok && tr.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTrack_ConcurrentCompletionOrder(t *testing.T) {
	tr, err := tracker.New(tracker.Config{Window: time.Minute})
	require.NoError(t, err)
	defer tr.Close()

	var wg sync.WaitGroup
	// Start in reverse duration order so completion order differs from
	// start order.
	durations := []time.Duration{60 * time.Millisecond, 40 * time.Millisecond, 20 * time.Millisecond}
	for _, d := range durations {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.Track(context.Background(), func(context.Context) error {
				time.Sleep(d)
				return nil
			})
		}()
	}
	wg.Wait()

	samples := tr.Samples()
	require.Len(t, samples, 3)
	for i := 1; i < len(samples); i++ {
		assert.False(t, samples[i].Timestamp.Before(samples[i-1].Timestamp),
			"samples must be appended in completion order")
	}
}

func TestMaxSamples_ShedsOldest(t *testing.T) {
	tr, err := tracker.New(tracker.Config{Window: time.Minute, MaxSamples: 3})
	require.NoError(t, err)
	defer tr.Close()

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_ = tr.Track(ctx, func(context.Context) error { return nil })
	}

	assert.Equal(t, 3, tr.Len())
}

func TestClose_StopsPruning(t *testing.T) {
	tr, err := tracker.New(tracker.Config{
		Window:          50 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	tr.Close()
	tr.Close() // idempotent

	// Tracking after Close still records, and nothing prunes it.
	_ = tr.Track(context.Background(), func(context.Context) error { return nil })
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 1, tr.Len(), "no cleanup may run after Close")
}
