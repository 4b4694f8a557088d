package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nutriscope/backend/internal/domain"
)

// cacheItem pairs a canonical profile with its expiry.
type cacheItem struct {
	profile    *domain.CanonicalNutrientProfile
	expiration time.Time
}

// MemoryProfileCache is a thread-safe in-memory profile cache with TTL.
// Profiles are immutable after reconciliation, so entries are shared by
// pointer without copying.
type MemoryProfileCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewMemoryProfileCache creates the cache and starts a janitor goroutine
// that evicts expired entries every 10 minutes.
func NewMemoryProfileCache() *MemoryProfileCache {
	c := &MemoryProfileCache{
		data: make(map[string]cacheItem),
	}
	go c.cleanupExpired()
	return c
}

// Get returns the cached profile for a key, or ErrCacheMiss.
func (c *MemoryProfileCache) Get(ctx context.Context, key string) (*domain.CanonicalNutrientProfile, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}
	return item.profile, nil
}

// Set stores a profile with the given TTL.
func (c *MemoryProfileCache) Set(ctx context.Context, key string, profile *domain.CanonicalNutrientProfile, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		profile:    profile,
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a key.
func (c *MemoryProfileCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Size returns the current entry count, expired or not.
func (c *MemoryProfileCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

func (c *MemoryProfileCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
