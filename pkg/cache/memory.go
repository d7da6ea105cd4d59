package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is a single cached body with bookkeeping for expiry and LRU.
type memoryEntry struct {
	value          []byte
	expiresAt      time.Time
	createdAt      time.Time
	lastAccessedAt time.Time
}

// MemoryCache is a thread-safe in-memory cache with per-entry TTL and LRU
// eviction. When the cache reaches max capacity it evicts the least recently
// accessed entry. A background goroutine sweeps expired entries periodically.
type MemoryCache struct {
	// entries maps upstream URLs to cached bodies
	entries map[string]*memoryEntry

	// maxEntries is the maximum number of entries (0 = unlimited)
	maxEntries int

	// mu protects concurrent access to the cache
	mu sync.RWMutex

	// stopCh signals the cleanup goroutine to stop
	stopCh chan struct{}

	// closeOnce guards stopCh
	closeOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache.
// If maxEntries is 0 the cache has unlimited size. The sweep interval is
// fixed at 10 seconds, matching the order of magnitude of the freshness
// windows the relay uses.
func NewMemoryCache(maxEntries int) *MemoryCache {
	c := &MemoryCache{
		entries:    make(map[string]*memoryEntry),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}

	go c.sweepLoop(10 * time.Second)

	return c
}

// Get returns the cached body for key, or (nil, false) when absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.RUnlock()
		return nil, false
	}
	value := entry.value
	c.mu.RUnlock()

	// Touch the entry for LRU ordering
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		entry.lastAccessedAt = time.Now()
	}
	c.mu.Unlock()

	return value, true
}

// Set stores a body under key. If the cache is full, the least recently used
// entry is evicted first.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLRU()
		}
	}

	now := time.Now()
	c.entries[key] = &memoryEntry{
		value:          value,
		expiresAt:      now.Add(ttl),
		createdAt:      now,
		lastAccessedAt: now,
	}
}

// Len returns the current number of entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Prune removes all entries that expired before now.
func (c *MemoryCache) Prune(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deleted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// Close stops the background sweep goroutine.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
	})
	return nil
}

// evictLRU evicts the least recently accessed entry.
// Must be called with the write lock held.
func (c *MemoryCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.lastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccessedAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// sweepLoop periodically removes expired entries until Close is called.
func (c *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = c.Prune(context.Background(), time.Now())
		case <-c.stopCh:
			return
		}
	}
}
