// Package cache provides an in-memory TTL cache with optional stale reads.
package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

// Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]item[V]

	staleRetention time.Duration
	now            func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	staleRetention time.Duration
	now            func() time.Time
}

// WithStaleRetention keeps expired entries readable through Peek for d.
func WithStaleRetention(d time.Duration) Option {
	return func(o *options) { o.staleRetention = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a cache. A positive cleanupInterval starts a janitor goroutine
// that Close stops.
func New[K comparable, V any](cleanupInterval time.Duration, opts ...Option) *Cache[K, V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[K, V]{
		items:          make(map[K]item[V]),
		staleRetention: o.staleRetention,
		now:            o.now,
		stop:           make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

// Get returns a fresh value.
func (c *Cache[K, V]) Get(_ context.Context, key K) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Peek returns a value even when expired, reporting freshness and when it was stored.
func (c *Cache[K, V]) Peek(_ context.Context, key K) (value V, storedAt time.Time, fresh bool, ok bool) {
	c.mu.RLock()
	it, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return value, storedAt, false, false
	}
	return it.value, it.storedAt, c.now().Before(it.expiresAt), true
}

// Set stores value for ttl.
func (c *Cache[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	now := c.now()
	c.mu.Lock()
	c.items[key] = item[V]{value: value, storedAt: now, expiresAt: now.Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache[K, V]) Delete(_ context.Context, key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len counts stored entries, stale ones included.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor. It is safe to call more than once.
func (c *Cache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[K, V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache[K, V]) evictExpired() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, it := range c.items {
		if now.After(it.expiresAt.Add(c.staleRetention)) {
			delete(c.items, k)
		}
	}
}
