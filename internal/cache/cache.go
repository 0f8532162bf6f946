// Package cache holds provider responses for a fixed TTL, keyed by the
// canonical form of the request that produced them.
package cache

import (
	"sync"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/clock"
)

const (
	DefaultTTL     = 5 * time.Minute
	DefaultMaxSize = 1000
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL map. Expired entries are dropped on read; when an insert
// pushes the map past maxSize, every expired entry is swept. Live entries
// are never evicted, so the map can exceed maxSize while all are fresh.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	ttl     time.Duration
	maxSize int
	clock   clock.Clock
}

func New[V any](ttl time.Duration, maxSize int, clk clock.Clock) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Cache[V]{
		entries: make(map[string]entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		clock:   clk,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	c.entries[key] = entry[V]{value: value, expiresAt: now.Add(c.ttl)}

	if len(c.entries) > c.maxSize {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
