package research

import (
	"sync"
	"time"
)

// CacheStats summarizes cache effectiveness for the run report.
type CacheStats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Entries int `json:"entries"`
}

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
	hits      int
}

// Cache is an in-memory TTL cache keyed by query fingerprint.
// Expired entries are skipped on read and reclaimed by EvictExpired.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	hits    int
	misses  int
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Get returns the cached result for fingerprint, or nil on miss.
// A hit bumps the entry hit counter but does not extend the TTL.
func (c *Cache) Get(fingerprint string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[fingerprint]
	if !ok || time.Now().After(entry.expiresAt) {
		c.misses++
		return nil
	}
	entry.hits++
	c.hits++

	out := *entry.result
	out.Cached = true
	return &out
}

// Put stores result under fingerprint. Last writer wins.
func (c *Cache) Put(fingerprint string, result *Result, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = &cacheEntry{
		result:    result,
		expiresAt: time.Now().Add(ttl),
	}
}

// EvictExpired removes expired entries and reports how many were dropped.
func (c *Cache) EvictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}
