package dedup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MemoryConfig holds configuration for the in-process cache.
type MemoryConfig struct {
	TTL    time.Duration
	Logger *zap.Logger
	Now    func() time.Time
}

// MemoryCache is a process-local fingerprint cache.
// It is not safe for concurrent use; the poll loop is its only caller.
type MemoryCache struct {
	entries map[string]time.Time
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &MemoryCache{
		entries: make(map[string]time.Time),
		ttl:     cfg.TTL,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}
}

// Has reports whether fingerprint was added within the TTL.
// An expired entry is removed on lookup.
func (c *MemoryCache) Has(_ context.Context, fingerprint string) (bool, error) {
	return c.has(fingerprint), nil
}

func (c *MemoryCache) has(fingerprint string) bool {
	ts, ok := c.entries[fingerprint]
	if !ok {
		return false
	}

	if c.expired(ts) {
		delete(c.entries, fingerprint)
		return false
	}

	return true
}

// Add records fingerprint with the current time.
func (c *MemoryCache) Add(_ context.Context, fingerprint string) error {
	c.entries[fingerprint] = c.now()
	return nil
}

// CheckAndAdd adds fingerprint and returns true if it was not already present.
func (c *MemoryCache) CheckAndAdd(_ context.Context, fingerprint string) (bool, error) {
	if c.has(fingerprint) {
		DuplicatesSuppressedTotal.WithLabelValues(backendMemory).Inc()
		return false, nil
	}

	c.entries[fingerprint] = c.now()
	NewFingerprintsTotal.WithLabelValues(backendMemory).Inc()
	return true, nil
}

// Cleanup removes every expired entry.
func (c *MemoryCache) Cleanup(_ context.Context) (int, error) {
	removed := 0
	for fp, ts := range c.entries {
		if c.expired(ts) {
			delete(c.entries, fp)
			removed++
		}
	}

	CacheEntries.WithLabelValues(backendMemory).Set(float64(len(c.entries)))
	c.logger.Debug("dedup-cleanup",
		zap.Int("removed", removed),
		zap.Int("remaining", len(c.entries)))

	return removed, nil
}

// Size returns the number of stored entries, including expired ones not yet swept.
func (c *MemoryCache) Size(_ context.Context) (int, error) {
	return len(c.entries), nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.entries = make(map[string]time.Time)
	CacheEntries.WithLabelValues(backendMemory).Set(0)
	return nil
}

// TTL returns the current window.
func (c *MemoryCache) TTL() time.Duration {
	return c.ttl
}

func (c *MemoryCache) expired(ts time.Time) bool {
	return c.now().Sub(ts) > c.ttl
}
