// Package store provides the simulated backing store behind the cache-aside
// client. Every read pays an artificial delay drawn uniformly from a fixed
// range, standing in for database I/O; there is no eviction and no
// persistence.
package store

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when a key has never been seeded.
var ErrNotFound = errors.New("store: key not found")

// Default bounds for the simulated access delay.
const (
	DefaultMinDelay = 200 * time.Millisecond
	DefaultMaxDelay = 400 * time.Millisecond
)

// Store is an in-memory key-value map with synthetic access latency.
type Store struct {
	minDelay time.Duration
	maxDelay time.Duration

	mu   sync.RWMutex
	data map[string]string
	keys []string // insertion order, for uniform random selection
}

// New creates a store whose reads take a uniformly random time in
// [minDelay, maxDelay]. Non-positive bounds fall back to the defaults, and
// maxDelay is raised to minDelay if the range is inverted.
func New(minDelay, maxDelay time.Duration) *Store {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Store{
		minDelay: minDelay,
		maxDelay: maxDelay,
		data:     make(map[string]string),
	}
}

// Seed inserts a key directly, bypassing any cache tier. Keys are assumed
// globally unique; re-seeding a key overwrites its value.
func (s *Store) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.data[key] = value
}

// Get returns the value for key after the simulated access delay. The delay
// is unconditional: absent keys pay it too before ErrNotFound is returned.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// RandomKey returns a uniformly random existing key, or ok=false if the
// store is empty. It does not pay the access delay; only Get does.
func (s *Store) RandomKey() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.keys) == 0 {
		return "", false
	}
	return s.keys[rand.Intn(len(s.keys))], true
}

// Len returns the number of seeded keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// wait sleeps for the simulated access delay, honoring ctx cancellation.
func (s *Store) wait(ctx context.Context) error {
	delay := s.minDelay
	if spread := s.maxDelay - s.minDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread) + 1))
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
