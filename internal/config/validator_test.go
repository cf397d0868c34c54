package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woshizys/cachepulse/internal/config"
)

func validConfig() *config.Config {
	cfg := config.Default()
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_FailsFast(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{
			"non-positive window",
			func(c *config.Config) { c.Tracker.Window = 0 },
			"tracker.window",
		},
		{
			"negative cleanup interval",
			func(c *config.Config) { c.Tracker.CleanupInterval = config.Duration(-time.Second) },
			"tracker.cleanupInterval",
		},
		{
			"negative max samples",
			func(c *config.Config) { c.Tracker.MaxSamples = -1 },
			"tracker.maxSamples",
		},
		{
			"inverted delay range",
			func(c *config.Config) {
				c.Store.MinDelay = config.Duration(400 * time.Millisecond)
				c.Store.MaxDelay = config.Duration(200 * time.Millisecond)
			},
			"store.maxDelay",
		},
		{
			"nothing to seed",
			func(c *config.Config) { c.Store.SeedCount = 0 },
			"store",
		},
		{
			"zero capacity",
			func(c *config.Config) { c.Cache.Capacity = 0 },
			"cache.capacity",
		},
		{
			"zero frequency",
			func(c *config.Config) { c.Load.Frequency = 0 },
			"load.frequency",
		},
		{
			"frequency above bound",
			func(c *config.Config) { c.Load.Frequency = config.MaxFrequency + 1 },
			"load.frequency",
		},
		{
			"zero tick period",
			func(c *config.Config) { c.Load.TickPeriod = 0 },
			"load.tickPeriod",
		},
		{
			"negative duration",
			func(c *config.Config) { c.Load.Duration = config.Duration(-time.Second) },
			"load.duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Tracker.Window = 0
	cfg.Cache.Capacity = 0
	cfg.Load.Frequency = 0

	err := cfg.Validate()
	require.Error(t, err)

	verrs, ok := err.(*config.ValidationErrors)
	require.True(t, ok)
	assert.Len(t, verrs.Errors, 3)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.Tracker.Window = config.Duration(2 * time.Second)
	cfg.Store.Seed = map[string]string{"k": "v"}

	config.ApplyDefaults(cfg)

	assert.Equal(t, 2*time.Second, cfg.Tracker.Window.Std())
	assert.Zero(t, cfg.Store.SeedCount, "explicit seed entries suppress the synthetic corpus")
	assert.Equal(t, config.Default().Load.TickPeriod, cfg.Load.TickPeriod)
}
