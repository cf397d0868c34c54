// Package tracker provides a sliding-time-window latency tracker for
// asynchronous operations.
//
// A Tracker wraps arbitrary operations, records how long each one takes to
// settle (success or failure), and retains the resulting samples for a
// configurable window. A background janitor prunes samples that have aged
// out of the window; the window average is always derived from the samples
// currently retained, so it lags sample expiry by at most one cleanup
// interval.
//
// # Thread Safety
//
// Tracker is safe for concurrent use. Many Track calls may be in flight at
// once; each is timed independently and samples are appended in completion
// order, not start order.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultCleanupInterval is used when Config.CleanupInterval is zero.
const DefaultCleanupInterval = time.Second

// Sample is a single latency observation. It is created the instant an
// instrumented operation settles and is never mutated afterwards.
type Sample struct {
	// Timestamp is the settle time of the operation.
	Timestamp time.Time `json:"timestamp"`

	// Latency is the time from invocation to settlement.
	Latency time.Duration `json:"latency"`
}

// Config configures a Tracker.
type Config struct {
	// Window is how long a sample is retained. Must be > 0.
	Window time.Duration

	// CleanupInterval is how often stale samples are pruned.
	// Zero means DefaultCleanupInterval; negative values are rejected.
	CleanupInterval time.Duration

	// MaxSamples optionally caps the retained sample count as a safety
	// valve against unbounded growth under heavy load. When the cap is
	// exceeded the oldest samples are shed at append time. Zero means
	// no cap (pure time-based retention).
	MaxSamples int
}

// Tracker records operation latencies over a sliding time window.
type Tracker struct {
	window     time.Duration
	interval   time.Duration
	maxSamples int

	mu      sync.Mutex
	samples []Sample

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a Tracker and starts its background janitor.
//
// The caller must Close the tracker when done with it; otherwise the
// janitor goroutine leaks.
func New(cfg Config) (*Tracker, error) {
	if cfg.Window <= 0 {
		return nil, errors.Errorf("tracker: window must be > 0, got %v", cfg.Window)
	}
	if cfg.CleanupInterval < 0 {
		return nil, errors.Errorf("tracker: cleanup interval must be > 0, got %v", cfg.CleanupInterval)
	}
	if cfg.MaxSamples < 0 {
		return nil, errors.Errorf("tracker: max samples must be >= 0, got %d", cfg.MaxSamples)
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	t := &Tracker{
		window:     cfg.Window,
		interval:   cfg.CleanupInterval,
		maxSamples: cfg.MaxSamples,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	go t.runJanitor()

	return t, nil
}

// Track times op from invocation until it settles and records the latency,
// whether op succeeds or fails. The op's error is returned unchanged; the
// tracker itself never fails a tracked call.
//
// Track is the sole channel by which samples enter the tracker.
func (t *Tracker) Track(ctx context.Context, op func(context.Context) error) error {
	start := time.Now()
	err := op(ctx)
	settled := time.Now()

	t.append(Sample{Timestamp: settled, Latency: settled.Sub(start)})

	return err
}

func (t *Tracker) append(s Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = append(t.samples, s)
	if t.maxSamples > 0 && len(t.samples) > t.maxSamples {
		n := len(t.samples) - t.maxSamples
		t.samples = append(t.samples[:0], t.samples[n:]...)
	}
}

// Average returns the arithmetic mean latency of all currently retained
// samples, rounded to the nearest millisecond. ok is false iff no samples
// are retained; a zero average with ok=true is a real measurement.
func (t *Tracker) Average() (avg time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.samples) == 0 {
		return 0, false
	}

	var total time.Duration
	for _, s := range t.samples {
		total += s.Latency
	}
	mean := total / time.Duration(len(t.samples))
	return mean.Round(time.Millisecond), true
}

// Samples returns a copy of the currently retained samples in insertion
// (completion) order.
func (t *Tracker) Samples() []Sample {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Len returns the number of currently retained samples.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

// Close stops the background janitor and waits for it to exit. Close is
// idempotent.
//
// Track may still be called after Close, but no further pruning occurs and
// samples accumulate without bound. That is an explicit lifecycle contract:
// callers own disposal.
func (t *Tracker) Close() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
	<-t.doneCh
}

// runJanitor prunes stale samples every cleanup interval until Close.
func (t *Tracker) runJanitor() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.prune(time.Now())
		}
	}
}

// prune drops samples older than the window relative to now. Between prune
// passes the retained set may transiently hold older entries; immediately
// after a pass every retained sample satisfies now-Timestamp <= Window.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.window)

	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.samples[:0]
	for _, s := range t.samples {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	t.samples = kept
}
