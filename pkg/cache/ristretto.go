package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// RistrettoCache is a Cache backed by Ristretto. Each entry costs 1, so
// MaxCost is a bound on the number of items.
type RistrettoCache struct {
	name   string
	cache  *ristretto.Cache
	logger *zap.Logger
}

// RistrettoConfig holds configuration for Ristretto cache.
type RistrettoConfig struct {
	// Name labels this cache's metrics.
	Name        string
	NumCounters int64 // keys tracked for admission, ~10x MaxCost
	MaxCost     int64
	BufferItems int64
	Logger      *zap.Logger
}

// DefaultRistrettoConfig sizes a cache for a few hundred small entries.
func DefaultRistrettoConfig(name string, logger *zap.Logger) *RistrettoConfig {
	return &RistrettoConfig{
		Name:        name,
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
		Logger:      logger,
	}
}

// NewRistrettoCache creates a new Ristretto-backed cache.
func NewRistrettoCache(cfg *RistrettoConfig) (Cache, error) {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache %s: %w", cfg.Name, err)
	}

	return &RistrettoCache{
		name:   cfg.Name,
		cache:  c,
		logger: cfg.Logger,
	}, nil
}

// Get retrieves a value from the cache.
func (r *RistrettoCache) Get(key string) (any, bool) {
	value, found := r.cache.Get(key)
	if found {
		CacheHitsTotal.WithLabelValues(r.name).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(r.name).Inc()
	}
	r.logger.Debug("cache-lookup",
		zap.String("cache", r.name),
		zap.String("key", key),
		zap.Bool("hit", found))
	return value, found
}

// Set stores a value in the cache with a TTL.
func (r *RistrettoCache) Set(key string, value any, ttl time.Duration) bool {
	ok := r.cache.SetWithTTL(key, value, 1, ttl)
	if ok {
		CacheSetsTotal.WithLabelValues(r.name).Inc()
	}
	return ok
}

// Delete removes a value from the cache.
func (r *RistrettoCache) Delete(key string) {
	r.cache.Del(key)
	CacheDeletesTotal.WithLabelValues(r.name).Inc()
}

// Clear removes all values from the cache.
func (r *RistrettoCache) Clear() {
	r.cache.Clear()
	r.logger.Info("cache-cleared", zap.String("cache", r.name))
}

// Close releases the cache's goroutines.
func (r *RistrettoCache) Close() {
	r.cache.Close()
}

// Wait blocks until pending Sets are applied.
func (r *RistrettoCache) Wait() {
	r.cache.Wait()
}
