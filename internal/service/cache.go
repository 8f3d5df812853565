package service

import (
	"sync"
	"time"
)

// Cache holds one value for ttl.
type Cache[T any] struct {
	mu       sync.RWMutex
	value    *T
	cachedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{ttl: ttl, now: time.Now}
}

func (c *Cache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	if c.value == nil || c.now().Sub(c.cachedAt) > c.ttl {
		return zero, false
	}
	return *c.value, true
}

func (c *Cache[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = &v
	c.cachedAt = c.now()
}

func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
}
