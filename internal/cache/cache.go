// Package cache provides caching for preview strips and sampled lookup
// tables.
package cache

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Config contains cache configuration.
type Config struct {
	StripCacheSizeMB int
	StripTTL         time.Duration
	SampleCacheSize  int
}

// Manager manages strip and sample caches.
type Manager struct {
	stripCache  *bigcache.BigCache
	sampleCache *lru.Cache[string, []color.RGBA]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	// Configure strip cache
	stripCacheConfig := bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.StripTTL,
		CleanWindow:        cfg.StripTTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       16 * 1024, // 16KB per strip
		HardMaxCacheSize:   cfg.StripCacheSizeMB,
		Verbose:            false,
	}

	stripCache, err := bigcache.New(context.Background(), stripCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create strip cache: %w", err)
	}

	// Create sample cache
	sampleCache, err := lru.New[string, []color.RGBA](cfg.SampleCacheSize)
	if err != nil {
		stripCache.Close()
		return nil, fmt.Errorf("failed to create sample cache: %w", err)
	}

	return &Manager{
		stripCache:  stripCache,
		sampleCache: sampleCache,
	}, nil
}

// GetStrip retrieves an encoded strip from cache.
func (m *Manager) GetStrip(key string) ([]byte, bool) {
	data, err := m.stripCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetStrip stores an encoded strip in cache.
func (m *Manager) SetStrip(key string, data []byte) error {
	return m.stripCache.Set(key, data)
}

// GetSamples retrieves a sampled lookup table. The slice is shared and
// must not be modified.
func (m *Manager) GetSamples(key string) ([]color.RGBA, bool) {
	return m.sampleCache.Get(key)
}

// SetSamples stores a sampled lookup table.
func (m *Manager) SetSamples(key string, samples []color.RGBA) {
	m.sampleCache.Add(key, samples)
}

// Keys embed the revision of the transfer function, so entries of an
// older revision are never hit again and simply age out.

// StripKey generates a cache key for a preview strip.
func StripKey(name string, rev uint64, width, height int) string {
	return fmt.Sprintf("strip:%s@%d:%dx%d", name, rev, width, height)
}

// SamplesKey generates a cache key for a sampled lookup table.
func SamplesKey(name string, rev uint64, resolution int, left, right float32) string {
	return fmt.Sprintf("samples:%s@%d:%d:%08x:%08x", name, rev, resolution,
		math.Float32bits(left), math.Float32bits(right))
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"strip_cache_len":   m.stripCache.Len(),
		"strip_cache_bytes": humanize.IBytes(uint64(m.stripCache.Capacity())),
		"strip_cache_hits":  m.stripCache.Stats().Hits,
		"sample_cache_len":  m.sampleCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.stripCache.Close()
}
