package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the configuration after defaults have been applied.
// Misconfiguration fails fast here rather than silently proceeding.
//
// Returns nil if valid, or a ValidationErrors containing all problems.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Tracker.Window <= 0 {
		errs.Add("tracker.window", "window must be > 0")
	}
	if c.Tracker.CleanupInterval <= 0 {
		errs.Add("tracker.cleanupInterval", "cleanup interval must be > 0")
	}
	if c.Tracker.MaxSamples < 0 {
		errs.Add("tracker.maxSamples", "max samples must be >= 0")
	}

	if c.Store.MinDelay < 0 {
		errs.Add("store.minDelay", "delay must be >= 0")
	}
	if c.Store.MaxDelay < c.Store.MinDelay {
		errs.Add("store.maxDelay", "max delay must be >= min delay")
	}
	if c.Store.SeedCount < 0 {
		errs.Add("store.seedCount", "seed count must be >= 0")
	}
	if len(c.Store.Seed) == 0 && c.Store.SeedCount == 0 {
		errs.Add("store", "either seed entries or a seedCount is required")
	}

	if c.Cache.Capacity <= 0 {
		errs.Add("cache.capacity", "capacity must be > 0")
	}

	if c.Load.Frequency < 1 {
		errs.Add("load.frequency", "frequency must be >= 1")
	} else if c.Load.Frequency > MaxFrequency {
		errs.Add("load.frequency", fmt.Sprintf("frequency must be <= %d", MaxFrequency))
	}
	if c.Load.TickPeriod <= 0 {
		errs.Add("load.tickPeriod", "tick period must be > 0")
	}
	if c.Load.Duration < 0 {
		errs.Add("load.duration", "duration must be >= 0")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
