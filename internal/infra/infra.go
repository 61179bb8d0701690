// Package infra provides shared infrastructure components used across
// the application: caching, rate limiting, and HTTP utilities.
package infra

import (
	"sync"
	"time"
)

// --- In-memory TTL cache ---

// CacheEntry holds a cached value and the time it was stored.
type CacheEntry struct {
	Value      any
	InsertedAt time.Time
}

// Cache is a thread-safe in-memory cache. An entry is fresh while
// now - InsertedAt < ttl; reads never extend its lifetime.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCacheWithClock creates a cache that reads the current time from now.
// A nil now uses time.Now.
func NewCacheWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]CacheEntry),
		ttl:     ttl,
		now:     now,
	}
}

// TTL returns the cache lifetime of an entry.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Get retrieves a value from the cache. Returns nil, false if not found or
// expired; an expired entry is dropped.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !c.fresh(entry) {
		c.evict(key)
		return nil, false
	}
	return entry.Value, true
}

// evict removes key if it is still expired; a concurrent Set may have
// replaced it since the read.
func (c *Cache) evict(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && !c.fresh(e) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Set stores a value, replacing any previous entry for key.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = CacheEntry{Value: value, InsertedAt: c.now()}
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.entries {
		if !c.fresh(v) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *Cache) fresh(e CacheEntry) bool {
	return c.now().Sub(e.InsertedAt) < c.ttl
}
