package routing

import (
	"sync"
	"time"
)

// ttlCache is a small time-bounded cache for routing engine responses.
// Entries expire after the TTL and are dropped lazily on read. Concurrent
// reads and inserts are safe; network calls are never made under the lock.
type ttlCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    interface{}
	storedAt time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ttlCache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// refreshed the entry in the meantime.
		if current, ok := c.entries[key]; ok && time.Since(current.storedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *ttlCache) set(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, storedAt: time.Now()}
	c.mu.Unlock()
}

func (c *ttlCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
