package cache

import (
	"context"
	"sync"
	"time"

	"github.com/oldfield/dashboard/internal/models"
)

// ManifestLister reads manifests from storage
type ManifestLister interface {
	ListManifests(ctx context.Context, limit int) ([]models.SourceManifest, error)
}

// ManifestCache is an in-memory read-through cache in front of a ManifestLister.
// Only the raw manifest list is cached; freshness is still evaluated per call.
type ManifestCache struct {
	source  ManifestLister
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[int]manifestEntry
	now     func() time.Time
}

type manifestEntry struct {
	data      []models.SourceManifest
	fetchedAt time.Time
}

// NewManifestCache creates a new cache. A non-positive ttl disables caching.
func NewManifestCache(source ManifestLister, ttl time.Duration) *ManifestCache {
	return &ManifestCache{
		source:  source,
		ttl:     ttl,
		entries: make(map[int]manifestEntry),
		now:     time.Now,
	}
}

// ListManifests returns the cached list for limit if fresh, else reads through
func (c *ManifestCache) ListManifests(ctx context.Context, limit int) ([]models.SourceManifest, error) {
	if data, ok := c.get(limit); ok {
		return data, nil
	}

	data, err := c.source.ListManifests(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.set(limit, data)
	return data, nil
}

func (c *ManifestCache) get(limit int) ([]models.SourceManifest, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[limit]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		return nil, false
	}
	return entry.data, true
}

func (c *ManifestCache) set(limit int, data []models.SourceManifest) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[limit] = manifestEntry{
		data:      data,
		fetchedAt: c.now(),
	}
}

// Invalidate drops every cached list. Call it after a manifest is appended.
func (c *ManifestCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[int]manifestEntry)
}
