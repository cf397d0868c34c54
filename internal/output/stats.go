// Package output renders live session statistics to the terminal and as
// JSON snapshots.
package output

import (
	"encoding/json"
	"io"
	"time"
)

// Stats is a point-in-time view of a running session, fed by the harness.
type Stats struct {
	// Name of the session.
	Name string `json:"name,omitempty"`

	// Elapsed time since the session started.
	Elapsed time.Duration `json:"elapsed"`

	// Frequency is the generator's requests-per-tick setting.
	Frequency int `json:"frequency"`

	// CacheEnabled reports whether fetches consult the cache tier.
	CacheEnabled bool `json:"cacheEnabled"`

	// Ticks and Requests count generator activity so far.
	Ticks    int64 `json:"ticks"`
	Requests int64 `json:"requests"`

	// Samples is the number of latency samples currently retained.
	Samples int `json:"samples"`

	// AverageMillis is the window-average latency in whole milliseconds,
	// or null when no samples are retained. Zero is a real measurement.
	AverageMillis *int64 `json:"averageMillis"`

	// Cache tier counters.
	CacheHits      uint64 `json:"cacheHits"`
	CacheMisses    uint64 `json:"cacheMisses"`
	CacheEvictions uint64 `json:"cacheEvictions"`
}

// Average returns the window average as a duration, ok=false when absent.
func (s Stats) Average() (time.Duration, bool) {
	if s.AverageMillis == nil {
		return 0, false
	}
	return time.Duration(*s.AverageMillis) * time.Millisecond, true
}

// WriteJSON emits the snapshot as indented JSON.
func WriteJSON(w io.Writer, s Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
