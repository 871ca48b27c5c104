package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// MemoryCache is an in-memory implementation of the CacheRepository interface
type MemoryCache struct {
	entries map[string]*core.CacheEntry
	mu      sync.RWMutex
	logger  *zap.Logger
	janitor *janitor
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, cleanupFreq time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*core.CacheEntry),
		logger:  logger,
		now:     time.Now,
	}
	c.janitor = startJanitor(cleanupFreq, logger, c.Cleanup)
	return c
}

// Get retrieves an unexpired entry
func (c *MemoryCache) Get(_ context.Context, key string) (*core.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || !c.now().Before(entry.ExpiresAt) {
		return nil, core.ErrNotFound
	}

	cp := *entry
	return &cp, nil
}

// Set stores a cache entry
func (c *MemoryCache) Set(_ context.Context, entry *core.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *entry
	c.entries[entry.Key] = &cp
	return nil
}

// Delete removes a cache entry
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.janitor.stop()
}
