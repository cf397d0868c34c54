// Package loadgen issues batches of simulated requests on a fixed tick.
//
// Each tick fires the configured number of requests concurrently without
// waiting for earlier ticks to settle. There is deliberately no
// backpressure or admission control: if frequency times per-request latency
// exceeds the tick period, the in-flight count grows without bound. That is
// the stress-testing affordance the generator exists for.
package loadgen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTickPeriod is the tick period used when none is configured.
const DefaultTickPeriod = time.Second

// MinFrequency is the lowest accepted requests-per-tick value; anything
// lower is clamped up to it.
const MinFrequency = 1

// FireFunc issues a single simulated request. Failures are logged
// per-request and never abort the generator or sibling requests.
type FireFunc func(ctx context.Context) error

// Config configures a Generator.
type Config struct {
	// Frequency is the number of requests issued per tick.
	Frequency int

	// TickPeriod is the interval between batches. Zero means
	// DefaultTickPeriod. Injectable for tests.
	TickPeriod time.Duration

	// Logger receives per-request failure logs. Optional.
	Logger *logrus.Entry
}

// Generator fires batches of requests on a fixed tick.
type Generator struct {
	fire FireFunc
	tick time.Duration
	log  *logrus.Entry

	mu      sync.Mutex
	freq    int
	running bool
	stopCh  chan struct{}
	loopWg  sync.WaitGroup // ticker loop only; in-flight requests are intentionally untracked

	ticks    atomic.Int64
	requests atomic.Int64
}

// New creates a stopped Generator.
func New(fire FireFunc, cfg Config) *Generator {
	if cfg.Frequency < MinFrequency {
		cfg.Frequency = MinFrequency
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Generator{
		fire: fire,
		tick: cfg.TickPeriod,
		log:  cfg.Logger,
		freq: cfg.Frequency,
	}
}

// Start begins issuing batches. Starting a running generator is a no-op.
func (g *Generator) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return
	}
	g.running = true
	g.startLoopLocked()
}

// Stop cancels the tick timer. Requests already in flight are not
// cancelled; they drain on their own. Stopping a stopped generator is a
// no-op.
func (g *Generator) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	close(g.stopCh)
	g.mu.Unlock()

	g.loopWg.Wait()
}

// SetFrequency sets the requests-per-tick rate. Values below MinFrequency
// are clamped. If the generator is running, the current ticker is cancelled
// and restarted so the very next tick reflects the new rate instead of
// letting the old timer drift.
func (g *Generator) SetFrequency(n int) {
	if n < MinFrequency {
		n = MinFrequency
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.freq = n
	if !g.running {
		return
	}

	close(g.stopCh)
	g.startLoopLocked()
}

// Frequency returns the configured requests-per-tick rate.
func (g *Generator) Frequency() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.freq
}

// Running reports whether the generator is issuing batches.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// Ticks returns the number of batches fired since creation.
func (g *Generator) Ticks() int64 {
	return g.ticks.Load()
}

// Requests returns the number of requests issued since creation.
func (g *Generator) Requests() int64 {
	return g.requests.Load()
}

// startLoopLocked spawns a fresh ticker loop. Caller holds g.mu.
func (g *Generator) startLoopLocked() {
	stopCh := make(chan struct{})
	g.stopCh = stopCh

	g.loopWg.Add(1)
	go g.loop(stopCh, g.freq)
}

func (g *Generator) loop(stopCh <-chan struct{}, freq int) {
	defer g.loopWg.Done()

	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			g.fireBatch(freq)
		}
	}
}

func (g *Generator) fireBatch(n int) {
	g.ticks.Add(1)

	for i := 0; i < n; i++ {
		g.requests.Add(1)
		go func() {
			// Requests outlive Stop by contract, so they are not tied
			// to the loop's lifetime.
			if err := g.fire(context.Background()); err != nil {
				g.log.WithError(err).Debug("simulated request failed")
			}
		}()
	}
}
