// Package cache provides typed in-memory caching with expiry
package cache

import (
	"strings"
	"time"
)

// Cache defines the interface for caching
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Clear()
}

// Special TTL values, as understood by go-cache
const (
	NoExpiration      time.Duration = -1
	DefaultExpiration time.Duration = 0
)

// Key joins parts into a namespaced cache key
func Key(parts ...string) string {
	return "canisense:v1:" + strings.Join(parts, ":")
}

// GetOrLoad returns the cached value for key, calling load and caching its
// result on a miss. Errors are returned without caching.
func GetOrLoad[V any](c Cache[V], key string, ttl time.Duration, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
