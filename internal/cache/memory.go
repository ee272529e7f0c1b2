package cache

import (
	"sync"

	"github.com/rohmanhakim/spotcrime/pkg/failure"
)

// MemoryCache is an in-memory implementation of the Cache interface.
// It uses a map for storage and provides thread-safe operations via RWMutex.
//
// Nothing is persisted; Save only counts how many times it was called,
// which lets tests assert that every live fetch is flushed.
type MemoryCache struct {
	mu    sync.RWMutex
	data  map[string]Entry
	saves int
}

// NewMemoryCache creates a new in-memory cache instance.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]Entry),
	}
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.data[key]
	return value, exists
}

func (c *MemoryCache) Put(key string, entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry
}

func (c *MemoryCache) Save() failure.ClassifiedError {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.saves++
	return nil
}

// Saves returns how many times Save was called.
func (c *MemoryCache) Saves() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.saves
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[string]Entry)
}

// Size returns the number of entries in the cache.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
