package cache

import "time"

// LayeredCache checks a fast layer before a slow one and writes through to both
type LayeredCache struct {
	fast Cache
	slow Cache
}

// NewLayeredCache creates a layered cache, typically memory over disk
func NewLayeredCache(fast, slow Cache) *LayeredCache {
	return &LayeredCache{fast: fast, slow: slow}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.fast.Get(key); found {
		return val, true
	}

	val, found := c.slow.Get(key)
	if !found {
		return nil, false
	}
	// promote with the fast layer's default TTL
	_ = c.fast.Set(key, val, 0)
	return val, true
}

func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.fast.Set(key, value, ttl); err != nil {
		return err
	}
	return c.slow.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.fast.Delete(key)
	return c.slow.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.fast.Clear()
	return c.slow.Clear()
}
