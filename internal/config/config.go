// Package config provides configuration parsing, defaulting, and validation
// for a cachepulse session.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxFrequency is the documented upper bound for requests per tick.
const MaxFrequency = 100

// Config is the root configuration for a session.
//
// Example YAML:
//
//	name: "cache warmup demo"
//	tracker:
//	  window: 60s
//	  cleanupInterval: 1s
//	store:
//	  minDelay: 200ms
//	  maxDelay: 400ms
//	  seedCount: 100
//	cache:
//	  enabled: true
//	  capacity: 1024
//	load:
//	  frequency: 5
//	  tickPeriod: 1s
//	  duration: 30s
type Config struct {
	// Name of the session (for reporting).
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Tracker TrackerConfig `json:"tracker,omitempty" yaml:"tracker,omitempty"`
	Store   StoreConfig   `json:"store,omitempty" yaml:"store,omitempty"`
	Cache   CacheConfig   `json:"cache,omitempty" yaml:"cache,omitempty"`
	Load    LoadConfig    `json:"load,omitempty" yaml:"load,omitempty"`
}

// TrackerConfig configures the latency tracker.
type TrackerConfig struct {
	// Window is how long latency samples are retained.
	Window Duration `json:"window,omitempty" yaml:"window,omitempty"`

	// CleanupInterval is how often stale samples are pruned.
	CleanupInterval Duration `json:"cleanupInterval,omitempty" yaml:"cleanupInterval,omitempty"`

	// MaxSamples optionally caps retained samples (0 = unbounded).
	MaxSamples int `json:"maxSamples,omitempty" yaml:"maxSamples,omitempty"`
}

// StoreConfig configures the simulated backing store.
type StoreConfig struct {
	// MinDelay/MaxDelay bound the uniform artificial access delay.
	MinDelay Duration `json:"minDelay,omitempty" yaml:"minDelay,omitempty"`
	MaxDelay Duration `json:"maxDelay,omitempty" yaml:"maxDelay,omitempty"`

	// Seed is an explicit key/value corpus to load into the store.
	Seed map[string]string `json:"seed,omitempty" yaml:"seed,omitempty"`

	// SeedCount generates a synthetic corpus of this size when Seed is
	// empty.
	SeedCount int `json:"seedCount,omitempty" yaml:"seedCount,omitempty"`
}

// CacheConfig configures the cache tier and the cache-aside switch.
type CacheConfig struct {
	// Enabled controls whether fetches consult the cache tier.
	// Nil means enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Capacity is the LRU tier's maximum entry count.
	Capacity int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
}

// LoadConfig configures the load generator.
type LoadConfig struct {
	// Frequency is requests issued per tick, bounded 1..MaxFrequency.
	Frequency int `json:"frequency,omitempty" yaml:"frequency,omitempty"`

	// TickPeriod is the interval between request batches.
	TickPeriod Duration `json:"tickPeriod,omitempty" yaml:"tickPeriod,omitempty"`

	// Duration is how long the session runs; 0 runs until interrupted.
	Duration Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Default returns a Config with every field at its documented default.
func Default() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Window:          Duration(60 * time.Second),
			CleanupInterval: Duration(time.Second),
		},
		Store: StoreConfig{
			MinDelay:  Duration(200 * time.Millisecond),
			MaxDelay:  Duration(400 * time.Millisecond),
			SeedCount: 100,
		},
		Cache: CacheConfig{
			Capacity: 1024,
		},
		Load: LoadConfig{
			Frequency:  1,
			TickPeriod: Duration(time.Second),
		},
	}
}

// ApplyDefaults fills zero-valued fields in cfg from Default.
func ApplyDefaults(cfg *Config) {
	def := Default()

	if cfg.Tracker.Window == 0 {
		cfg.Tracker.Window = def.Tracker.Window
	}
	if cfg.Tracker.CleanupInterval == 0 {
		cfg.Tracker.CleanupInterval = def.Tracker.CleanupInterval
	}
	if cfg.Store.MinDelay == 0 {
		cfg.Store.MinDelay = def.Store.MinDelay
	}
	if cfg.Store.MaxDelay == 0 {
		cfg.Store.MaxDelay = def.Store.MaxDelay
	}
	if len(cfg.Store.Seed) == 0 && cfg.Store.SeedCount == 0 {
		cfg.Store.SeedCount = def.Store.SeedCount
	}
	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = def.Cache.Capacity
	}
	if cfg.Load.Frequency == 0 {
		cfg.Load.Frequency = def.Load.Frequency
	}
	if cfg.Load.TickPeriod == 0 {
		cfg.Load.TickPeriod = def.Load.TickPeriod
	}
}

// CacheEnabled resolves the nullable enabled flag.
func (c *CacheConfig) CacheEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Duration wraps time.Duration so YAML and JSON configs can use "250ms",
// "5s" style strings.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML accepts either a duration string ("30s") or a bare number
// of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalJSON accepts the same forms as UnmarshalYAML.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// MarshalJSON emits the duration string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalYAML emits the duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Duration) set(raw interface{}) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	case int64:
		*d = Duration(v)
		return nil
	case float64:
		*d = Duration(v)
		return nil
	default:
		return fmt.Errorf("invalid duration type %T", raw)
	}
}
