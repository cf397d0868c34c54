package cachetier

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// DefaultCapacity is used when NewLRU is given a non-positive capacity.
const DefaultCapacity = 1024

// Stats holds runtime counters for an LRU tier.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// LRU is a capacity-bounded, least-recently-used cache tier.
//
// It combines a hash map for O(1) lookup with a doubly linked list for
// recency ordering: reads promote an entry to the front, and when the
// capacity is exceeded the entry at the back is evicted. Keys are
// content-addressed (derived from the stored value), which is what makes
// the Write(value)-returns-key contract deterministic.
type LRU struct {
	mu    sync.Mutex
	cap   int
	ll    *list.List // front = most recently used
	items map[string]*list.Element
	stats Stats
}

type lruEntry struct {
	key   string
	value string
}

// NewLRU creates an LRU tier holding at most capacity entries.
func NewLRU(capacity int) *LRU {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU{
		cap:   capacity,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

// Key returns the content-addressed key a value is stored under.
func Key(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}

// Read returns the value stored under key, promoting it to most recently
// used, or ErrMiss if the key is absent.
func (c *LRU) Read(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return "", ErrMiss
	}

	c.ll.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*lruEntry).value, nil
}

// Write stores value and returns its key. Re-writing an existing value
// promotes it instead of duplicating it. The least recently used entry is
// evicted when the capacity is exceeded.
func (c *LRU) Write(_ context.Context, value string) (string, error) {
	key := Key(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*lruEntry).value = value
		return key, nil
	}

	el := c.ll.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = el

	if c.ll.Len() > c.cap {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
			c.stats.Evictions++
		}
	}

	return key, nil
}

// Len returns the number of entries currently held.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Cap returns the configured capacity.
func (c *LRU) Cap() int {
	return c.cap
}

// Stats returns a snapshot of the tier's counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

var _ Tier = (*LRU)(nil)
