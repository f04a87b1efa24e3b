// Package cache provides an unbounded map guarded by a reader/writer lock.
// Entries are never evicted.
package cache

import (
	"sync"
	"sync/atomic"
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Gets    int64   `json:"gets"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"` // Percentage of gets served from the cache.
}

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V

	gets atomic.Int64
	hits atomic.Int64
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]V)}
}

// Get looks up key under the read lock. Many readers may hold it at once.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	value, ok := c.items[key]
	c.mu.RUnlock()

	c.gets.Add(1)
	if ok {
		c.hits.Add(1)
	}
	return value, ok
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Stats() Stats {
	s := Stats{
		Gets:    c.gets.Load(),
		Hits:    c.hits.Load(),
		Entries: c.Len(),
	}
	s.Misses = s.Gets - s.Hits
	if s.Gets > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Gets) * 100
	}
	return s
}
