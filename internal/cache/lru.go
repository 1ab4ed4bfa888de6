// Package cache provides caching utilities for the MCP server.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a thread-safe, size-bounded cache.
type LRU[K comparable, V any] struct {
	cache *lru.Cache[K, V]
}

// NewLRU creates a new LRU cache with the specified maximum number of items.
func NewLRU[K comparable, V any](maxItems int) (*LRU[K, V], error) {
	c, err := lru.New[K, V](maxItems)
	if err != nil {
		return nil, err
	}
	return &LRU[K, V]{cache: c}, nil
}

// Get retrieves a value by key.
// Returns the value and true if found, the zero value and false otherwise.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	return c.cache.Get(key)
}

// Put adds or updates a value, evicting the least recently used item when full.
func (c *LRU[K, V]) Put(key K, value V) {
	c.cache.Add(key, value)
}

// Remove drops key from the cache. It reports whether the key was present.
func (c *LRU[K, V]) Remove(key K) bool {
	return c.cache.Remove(key)
}

// Purge empties the cache.
func (c *LRU[K, V]) Purge() {
	c.cache.Purge()
}

// Len returns the current number of items in the cache.
func (c *LRU[K, V]) Len() int {
	return c.cache.Len()
}
