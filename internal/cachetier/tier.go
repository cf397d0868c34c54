// Package cachetier defines the cache-tier contract consumed by the
// cache-aside client, together with an in-memory LRU implementation.
package cachetier

import (
	"context"

	"github.com/pkg/errors"
)

// ErrMiss is returned by Read when the tier holds no value for a key.
// A miss is a normal sentinel outcome, not a failure.
var ErrMiss = errors.New("cachetier: miss")

// Tier is the cache-tier access contract.
//
// Write stores a value and returns the key it is retrievable under; the
// tier, not the caller, decides the key. Read returns ErrMiss for absent
// keys and may return other errors when the tier itself is unhealthy.
type Tier interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, value string) (string, error)
}
