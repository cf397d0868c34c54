// Package client implements the cache-aside access pattern over the
// simulated backing store: consult the cache tier first, fall back to the
// store on miss, and populate the cache asynchronously with the fetched
// value.
//
// Cache degradation is invisible by design: any cache-tier error on the
// read path is downgraded to a miss, and write-back failures are logged,
// never propagated. Only backing-store failures reach the caller.
package client

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/woshizys/cachepulse/internal/cachetier"
	"github.com/woshizys/cachepulse/internal/store"
)

// ErrNotFound is returned by Fetch when neither the cache tier nor the
// backing store holds the key.
var ErrNotFound = store.ErrNotFound

// Client performs cache-aside reads against a backing store and a cache
// tier. The cache tier derives its own keys from values, so the client
// keeps a store-key to cache-key index to serve later hits.
type Client struct {
	store *store.Store
	tier  cachetier.Tier
	log   *logrus.Entry

	enabled atomic.Bool

	mu        sync.Mutex
	cacheKeys map[string]string // store key -> tier key

	writeBacks sync.WaitGroup
}

// New creates a Client with caching enabled.
func New(st *store.Store, tier cachetier.Tier, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Client{
		store:     st,
		tier:      tier,
		log:       log,
		cacheKeys: make(map[string]string),
	}
	c.enabled.Store(true)
	return c
}

// SetCacheEnabled toggles whether Fetch consults the cache tier. The toggle
// affects subsequent calls only, never operations already in flight.
func (c *Client) SetCacheEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// CacheEnabled reports whether the cache tier is consulted.
func (c *Client) CacheEnabled() bool {
	return c.enabled.Load()
}

// Fetch returns the value for key.
//
// With caching disabled it reads the backing store directly. With caching
// enabled it tries the cache tier first; a tier error or explicit miss both
// degrade to a store read, and a successful store read triggers a
// best-effort asynchronous write-back into the tier. ErrNotFound is
// returned when the backing store also lacks the key.
func (c *Client) Fetch(ctx context.Context, key string) (string, error) {
	if !c.enabled.Load() {
		return c.store.Get(ctx, key)
	}

	if cacheKey, ok := c.cacheKeyFor(key); ok {
		if value, err := c.tier.Read(ctx, cacheKey); err == nil {
			return value, nil
		}
		// Tier errors and misses are treated identically: fall through
		// to the backing store.
	}

	value, err := c.store.Get(ctx, key)
	if err != nil {
		return "", err
	}

	c.writeBacks.Add(1)
	go c.writeBack(key, value)

	return value, nil
}

// Seed inserts a key directly into the backing store, bypassing the cache.
func (c *Client) Seed(key, value string) {
	c.store.Seed(key, value)
}

// RandomFetch performs Fetch on a uniformly random existing store key. It
// returns ErrNotFound without side effects when the store is empty.
func (c *Client) RandomFetch(ctx context.Context) (string, error) {
	key, ok := c.store.RandomKey()
	if !ok {
		return "", ErrNotFound
	}
	return c.Fetch(ctx, key)
}

// Flush waits for in-flight write-backs to settle. Shutdown and test hook;
// the read path never waits on cache population.
func (c *Client) Flush() {
	c.writeBacks.Wait()
}

// writeBack populates the cache tier after a store hit. Population is
// best-effort: failures are logged and the store-key index is left alone so
// the next fetch misses again.
func (c *Client) writeBack(key, value string) {
	defer c.writeBacks.Done()

	cacheKey, err := c.tier.Write(context.Background(), value)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("cache write-back failed")
		return
	}

	c.mu.Lock()
	c.cacheKeys[key] = cacheKey
	c.mu.Unlock()
}

func (c *Client) cacheKeyFor(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cacheKey, ok := c.cacheKeys[key]
	return cacheKey, ok
}
