// Package cache stores carrier city lists, which change rarely but are
// requested on every quoting screen.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tournevent/lalamove/pkg/shipper"
)

// CityCache caches the city list of each carrier.
type CityCache interface {
	// Get returns the cached cities of carrier. ok is false on a miss.
	Get(ctx context.Context, carrier string) (cities []shipper.City, ok bool, err error)

	// Set stores the cities of carrier until the cache TTL elapses.
	Set(ctx context.Context, carrier string, cities []shipper.City) error

	Close() error
}

type memoryEntry struct {
	cities    []shipper.City
	expiresAt time.Time
}

// MemoryCityCache is a process-local CityCache.
type MemoryCityCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCityCache creates an in-memory cache. A zero ttl never expires.
func NewMemoryCityCache(ttl time.Duration) *MemoryCityCache {
	return &MemoryCityCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Get implements CityCache.
func (c *MemoryCityCache) Get(_ context.Context, carrier string) ([]shipper.City, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[carrier]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if c.expired(entry) {
		c.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if current, ok := c.entries[carrier]; ok && c.expired(current) {
			delete(c.entries, carrier)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.cities, true, nil
}

func (c *MemoryCityCache) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// Set implements CityCache.
func (c *MemoryCityCache) Set(_ context.Context, carrier string, cities []shipper.City) error {
	entry := memoryEntry{cities: cities}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[carrier] = entry
	c.mu.Unlock()
	return nil
}

// Close implements CityCache.
func (c *MemoryCityCache) Close() error {
	return nil
}

var _ CityCache = (*MemoryCityCache)(nil)
