package assets

import (
	"strings"
	"sync"
)

// Resource is a cached mesh. Release frees anything it holds on the GPU.
type Resource interface {
	Release()
}

// Cache is an in-memory cache for loaded meshes.
type Cache struct {
	data map[string]Resource
	mu   sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]Resource),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

// Set stores an item, releasing any item it replaces.
func (c *Cache) Set(key string, r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.data[key]; ok && old != r {
		old.Release()
	}
	c.data[key] = r
}

// Delete removes and releases an item.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.data[key]; ok {
		r.Release()
		delete(c.data, key)
	}
}

// DeletePrefix removes and releases every item whose key starts with prefix
// and returns how many went.
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key, r := range c.data {
		if strings.HasPrefix(key, prefix) {
			r.Release()
			delete(c.data, key)
			n++
		}
	}
	return n
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Clear releases and removes everything and resets the stats.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.data {
		r.Release()
	}
	c.data = make(map[string]Resource)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
