package cache

import (
	"context"
	"errors"
	"sync"

	"hwids/internal/lookup"
	"hwids/internal/textutil"

	"github.com/rs/zerolog/log"
)

// entry is one cached answer. A miss is cached too, so repeated lookups of
// an unknown ID do not reach the backend again.
type entry struct {
	name  string
	found bool
}

// NameCache provides in-memory caching in front of a slower Resolver such as
// the PostgreSQL store or the graph.
type NameCache struct {
	backend lookup.Resolver
	mu      sync.RWMutex
	memory  map[string]entry // key → cached answer
}

// NewNameCache creates a new cache backed by r.
func NewNameCache(r lookup.Resolver) *NameCache {
	return &NameCache{
		backend: r,
		memory:  make(map[string]entry),
	}
}

func vendorKey(vendorID string) string {
	return textutil.NormalizeID(vendorID)
}

func deviceKey(vendorID, deviceID string) string {
	return textutil.NormalizeID(vendorID) + ":" + textutil.NormalizeID(deviceID)
}

// Vendor returns the vendor name, consulting memory before the backend.
func (c *NameCache) Vendor(ctx context.Context, vendorID string) (string, error) {
	return c.get(ctx, vendorKey(vendorID), func() (string, error) {
		return c.backend.Vendor(ctx, vendorID)
	})
}

// Device returns the device display name, consulting memory before the
// backend.
func (c *NameCache) Device(ctx context.Context, vendorID, deviceID string) (string, error) {
	return c.get(ctx, deviceKey(vendorID, deviceID), func() (string, error) {
		return c.backend.Device(ctx, vendorID, deviceID)
	})
}

func (c *NameCache) get(_ context.Context, key string, load func() (string, error)) (string, error) {
	// Check in-memory cache first.
	c.mu.RLock()
	if e, ok := c.memory[key]; ok {
		c.mu.RUnlock()
		if !e.found {
			return "", lookup.ErrNotFound
		}
		return e.name, nil
	}
	c.mu.RUnlock()

	name, err := load()
	switch {
	case err == nil:
		c.set(key, entry{name: name, found: true})
	case errors.Is(err, lookup.ErrNotFound):
		c.set(key, entry{})
	default:
		// Backend failures are not cached.
		return "", err
	}
	return name, err
}

func (c *NameCache) set(key string, e entry) {
	c.mu.Lock()
	c.memory[key] = e
	c.mu.Unlock()
}

// Preload fills memory from a nested table so that none of its names need a
// backend round trip.
func (c *NameCache) Preload(vendors map[string]string, devices map[string]map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for vid, name := range vendors {
		c.memory[vendorKey(vid)] = entry{name: name, found: true}
		count++
	}
	for vid, devs := range devices {
		for did, name := range devs {
			c.memory[deviceKey(vid, did)] = entry{name: name, found: true}
			count++
		}
	}

	log.Info().Int("count", count).Msg("Preloaded name cache")
}

// Len returns the number of cached answers, misses included.
func (c *NameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}
