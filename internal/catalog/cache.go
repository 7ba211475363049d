package catalog

import (
	"strings"
	"sync"
	"time"
)

// fetchCache holds validated record sequences per (source, range, filter)
// with a TTL. Entries are superseded, never mutated.
type fetchCache struct {
	mu      sync.RWMutex
	entries map[string]*fetchCacheEntry
}

type fetchCacheEntry struct {
	products  []Product
	skipped   int
	expiresAt time.Time
}

func newFetchCache() *fetchCache {
	return &fetchCache{entries: make(map[string]*fetchCacheEntry)}
}

func cacheKey(sourceID, readRange, categoryFilter string) string {
	filter := categoryFilter
	if filter == "" {
		filter = "all"
	}
	return strings.Join([]string{sourceID, readRange, strings.ToLower(filter)}, "|")
}

func (c *fetchCache) get(key string) (*fetchCacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry, true
}

func (c *fetchCache) put(key string, products []Product, skipped int, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &fetchCacheEntry{
		products:  products,
		skipped:   skipped,
		expiresAt: time.Now().Add(ttl),
	}
}

// evictExpired drops stale entries and reports how many were removed.
func (c *fetchCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
