package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/clinicavailability/internal/domain/providers"
)

// MemoryAdapter is an in-process CacheProvider with per-key expiry.
// It backs booking drafts when Redis is not configured.
type MemoryAdapter struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
	done  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	data []byte
	exp  time.Time
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.exp.IsZero() && !now.Before(it.exp)
}

// NewMemoryAdapter returns a memory cache. A positive sweepInterval starts a background sweep of expired keys.
func NewMemoryAdapter(sweepInterval time.Duration) *MemoryAdapter {
	c := &MemoryAdapter{
		items: make(map[string]memoryItem),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

func (c *MemoryAdapter) sweep(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-tick.C:
			c.DeleteExpired()
		}
	}
}

// DeleteExpired drops every expired key
func (c *MemoryAdapter) DeleteExpired() {
	now := c.now()
	c.mu.Lock()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

// Get returns the value for key, or ErrCacheMiss when absent or expired.
func (c *MemoryAdapter) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || it.expired(c.now()) {
		return nil, providers.ErrCacheMiss
	}
	return append([]byte(nil), it.data...), nil
}

// Set stores a copy of value. Zero expiration keeps the key until deleted.
func (c *MemoryAdapter) Set(_ context.Context, key string, value []byte, expiration time.Duration) error {
	it := memoryItem{data: append([]byte(nil), value...)}
	if expiration > 0 {
		it.exp = c.now().Add(expiration)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
	return nil
}

// Delete removes the key
func (c *MemoryAdapter) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Close stops the background sweep
func (c *MemoryAdapter) Close() {
	c.once.Do(func() { close(c.done) })
}
