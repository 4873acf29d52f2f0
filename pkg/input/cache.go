package input

import (
	"context"
	"sync"
)

// Cache stores resolved TypeMetadata by key. Get on a missing key returns (nil, nil).
type Cache interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*TypeMetadata, error)
	Set(ctx context.Context, key string, meta *TypeMetadata) error
}

// MemoryCache is an in-process Cache
type MemoryCache struct {
	items map[string]*TypeMetadata
	mutex sync.RWMutex
}

// NewMemoryCache creates an empty memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]*TypeMetadata),
	}
}

// Has reports whether key is cached
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	_, exists := c.items[key]
	return exists, nil
}

// Get retrieves an item from the cache
func (c *MemoryCache) Get(_ context.Context, key string) (*TypeMetadata, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.items[key], nil
}

// Set stores an item in the cache
func (c *MemoryCache) Set(_ context.Context, key string, meta *TypeMetadata) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = meta
	return nil
}

// Delete removes an item from the cache
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]*TypeMetadata)
}

// Size returns the number of items in the cache
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.items)
}
