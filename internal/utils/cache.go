package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem wraps cached data with an expiry.
type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// Cache is a small TTL layer over an LRU cache, used for post list and
// detail payloads. Entries are invalidated explicitly when comments or
// ratings change, so a short TTL only backstops missed invalidations.
type Cache struct {
	lruCache *lru.Cache[string, cacheItem]
}

// NewCache creates a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lruCache: l}, nil
}

// Set stores data under key for the given TTL.
func (c *Cache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem{
		data:      data,
		expiresAt: time.Now().Add(ttl),
	})
}

// Get returns the cached data, or nil when absent or expired.
func (c *Cache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.data
}

// Delete drops a single key.
func (c *Cache) Delete(key string) {
	c.lruCache.Remove(key)
}
