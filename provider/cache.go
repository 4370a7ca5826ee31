package provider

import (
	"sync"
	"time"

	"github.com/nearnode/tripgraph/trip"
)

// legCache is the read-through cache of fetched legs shared across
// concurrent requests. Keys map to immutable slices, so the only locking
// needed is around the map itself; inserts are idempotent (same key, same
// value) and first-writer-wins.
type legCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	legs    []trip.Leg
	expires time.Time
}

func newLegCache(ttl time.Duration) *legCache {
	return &legCache{
		ttl:     ttl,
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

func cacheKey(mode trip.Mode, origin, dest string, date time.Time) string {
	return string(mode) + "|" + origin + "|" + dest + "|" + date.Format("2006-01-02")
}

func (c *legCache) get(key string) ([]trip.Leg, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		if ok {
			delete(c.entries, key)
		}
		return nil, false
	}
	return e.legs, true
}

// putIfAbsent stores legs for key unless a live entry already exists, and
// returns the entry that ended up cached.
func (c *legCache) putIfAbsent(key string, legs []trip.Leg) []trip.Leg {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		return e.legs
	}
	c.entries[key] = cacheEntry{legs: legs, expires: c.now().Add(c.ttl)}
	return legs
}
