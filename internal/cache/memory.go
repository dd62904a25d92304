package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is a typed wrapper over go-cache
type MemoryCache[V any] struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache[V any](defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	if val, found := c.cache.Get(key); found {
		if v, ok := val.(V); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Set stores a value with the given TTL
func (c *MemoryCache[V]) Set(key string, value V, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Add stores a value only if the key is absent or expired
func (c *MemoryCache[V]) Add(key string, value V, ttl time.Duration) bool {
	return c.cache.Add(key, value, ttl) == nil
}

// Touch resets a key's expiry to ttl without changing its value
func (c *MemoryCache[V]) Touch(key string, ttl time.Duration) bool {
	v, ok := c.Get(key)
	if !ok {
		return false
	}
	c.cache.Set(key, v, ttl)
	return true
}

// Delete removes a value from the cache
func (c *MemoryCache[V]) Delete(key string) {
	c.cache.Delete(key)
}

// Clear removes all values from the cache
func (c *MemoryCache[V]) Clear() {
	c.cache.Flush()
}

// Len counts items, including expired ones not yet cleaned up
func (c *MemoryCache[V]) Len() int {
	return c.cache.ItemCount()
}

// OnEvicted registers f to run when an item is deleted or expires.
// It is not called by Clear.
func (c *MemoryCache[V]) OnEvicted(f func(key string, value V)) {
	c.cache.OnEvicted(func(key string, val interface{}) {
		if v, ok := val.(V); ok {
			f(key, v)
		}
	})
}

// DeleteExpired removes every expired item now, firing OnEvicted
func (c *MemoryCache[V]) DeleteExpired() {
	c.cache.DeleteExpired()
}
