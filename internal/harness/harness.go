// Package harness wires the simulator components into a runnable session:
// config -> seeded backing store -> LRU cache tier -> cache-aside client ->
// latency tracker -> load generator, plus a periodic reporter.
package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/woshizys/cachepulse/internal/cachetier"
	"github.com/woshizys/cachepulse/internal/client"
	"github.com/woshizys/cachepulse/internal/config"
	"github.com/woshizys/cachepulse/internal/loadgen"
	"github.com/woshizys/cachepulse/internal/output"
	"github.com/woshizys/cachepulse/internal/store"
	"github.com/woshizys/cachepulse/internal/tracker"
)

// DefaultReportInterval is how often the reporter callback fires.
const DefaultReportInterval = time.Second

// Harness owns a full simulation session.
type Harness struct {
	cfg *config.Config
	log *logrus.Entry

	tracker   *tracker.Tracker
	tier      *cachetier.LRU
	client    *client.Client
	generator *loadgen.Generator

	reportInterval time.Duration
	startTime      time.Time
}

// Option adjusts harness construction.
type Option func(*Harness)

// WithLogger sets the logger used by all components.
func WithLogger(log *logrus.Entry) Option {
	return func(h *Harness) { h.log = log }
}

// WithReportInterval overrides how often Run invokes the report callback.
// Mainly for tests.
func WithReportInterval(d time.Duration) Option {
	return func(h *Harness) {
		if d > 0 {
			h.reportInterval = d
		}
	}
}

// New validates cfg, builds every component, and seeds the backing store.
// The caller must Close the harness.
func New(cfg *config.Config, opts ...Option) (*Harness, error) {
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Harness{
		cfg:            cfg,
		log:            logrus.NewEntry(logrus.StandardLogger()),
		reportInterval: DefaultReportInterval,
	}
	for _, opt := range opts {
		opt(h)
	}

	tr, err := tracker.New(tracker.Config{
		Window:          cfg.Tracker.Window.Std(),
		CleanupInterval: cfg.Tracker.CleanupInterval.Std(),
		MaxSamples:      cfg.Tracker.MaxSamples,
	})
	if err != nil {
		return nil, err
	}
	h.tracker = tr

	st := store.New(cfg.Store.MinDelay.Std(), cfg.Store.MaxDelay.Std())
	seedStore(st, cfg.Store)

	h.tier = cachetier.NewLRU(cfg.Cache.Capacity)
	h.client = client.New(st, h.tier, h.log.WithField("component", "client"))
	h.client.SetCacheEnabled(cfg.Cache.CacheEnabled())

	h.generator = loadgen.New(h.fire, loadgen.Config{
		Frequency:  cfg.Load.Frequency,
		TickPeriod: cfg.Load.TickPeriod.Std(),
		Logger:     h.log.WithField("component", "loadgen"),
	})

	return h, nil
}

// seedStore loads the explicit corpus, or a synthetic one when none is
// configured.
func seedStore(st *store.Store, cfg config.StoreConfig) {
	for k, v := range cfg.Seed {
		st.Seed(k, v)
	}
	if st.Len() > 0 {
		return
	}
	for i := 0; i < cfg.SeedCount; i++ {
		st.Seed(fmt.Sprintf("key-%04d", i), fmt.Sprintf("value-%04d", i))
	}
}

// fire is the generator's request: a random cache-aside fetch, timed by the
// tracker.
func (h *Harness) fire(ctx context.Context) error {
	return h.tracker.Track(ctx, func(ctx context.Context) error {
		_, err := h.client.RandomFetch(ctx)
		return err
	})
}

// Run starts the generator and drives the reporter until ctx is cancelled
// or the configured session duration elapses. report may be nil.
func (h *Harness) Run(ctx context.Context, report func(output.Stats)) error {
	if d := h.cfg.Load.Duration.Std(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	h.startTime = time.Now()
	h.generator.Start()
	defer h.generator.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(h.reportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if report != nil {
					report(h.Stats())
				}
			}
		}
	})

	return g.Wait()
}

// Stats returns a point-in-time snapshot for display.
func (h *Harness) Stats() output.Stats {
	s := output.Stats{
		Name:         h.cfg.Name,
		Frequency:    h.generator.Frequency(),
		CacheEnabled: h.client.CacheEnabled(),
		Ticks:        h.generator.Ticks(),
		Requests:     h.generator.Requests(),
		Samples:      h.tracker.Len(),
	}
	if !h.startTime.IsZero() {
		s.Elapsed = time.Since(h.startTime)
	}
	if avg, ok := h.tracker.Average(); ok {
		ms := avg.Milliseconds()
		s.AverageMillis = &ms
	}
	tierStats := h.tier.Stats()
	s.CacheHits = tierStats.Hits
	s.CacheMisses = tierStats.Misses
	s.CacheEvictions = tierStats.Evictions
	return s
}

// SetFrequency adjusts the generator's requests-per-tick at runtime,
// clamped to the configured bounds.
func (h *Harness) SetFrequency(n int) {
	if n > config.MaxFrequency {
		n = config.MaxFrequency
	}
	h.generator.SetFrequency(n)
}

// SetCacheEnabled toggles the cache-aside client's cache tier at runtime.
func (h *Harness) SetCacheEnabled(enabled bool) {
	h.client.SetCacheEnabled(enabled)
}

// Tracker exposes the latency tracker for external consumers (charting,
// tests).
func (h *Harness) Tracker() *tracker.Tracker {
	return h.tracker
}

// Close stops the generator, drains pending cache write-backs, and disposes
// the tracker. Requests in flight are allowed to settle on their own.
func (h *Harness) Close() {
	h.generator.Stop()
	h.client.Flush()
	h.tracker.Close()
}
