package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces dedup keys in a shared Redis.
const DefaultKeyPrefix = "odds-trader:dedup:"

// RedisConfig holds configuration for the shared cache.
type RedisConfig struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
	Logger *zap.Logger
}

// RedisCache stores fingerprints in Redis so several workers share one
// dedup window. Expiry is delegated to Redis key TTLs.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("create redis dedup cache: nil client")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultKeyPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &RedisCache{
		rdb:    cfg.Client,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		logger: cfg.Logger,
	}, nil
}

func (c *RedisCache) key(fingerprint string) string {
	return c.prefix + fingerprint
}

// Has reports whether fingerprint is stored.
func (c *RedisCache) Has(ctx context.Context, fingerprint string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(fingerprint)).Result()
	if err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return n > 0, nil
}

// Add stores fingerprint, restarting its window.
func (c *RedisCache) Add(ctx context.Context, fingerprint string) error {
	if err := c.rdb.Set(ctx, c.key(fingerprint), 1, c.ttl).Err(); err != nil {
		return fmt.Errorf("add fingerprint: %w", err)
	}
	return nil
}

// CheckAndAdd uses SET NX so concurrent workers agree on a single winner.
func (c *RedisCache) CheckAndAdd(ctx context.Context, fingerprint string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.key(fingerprint), 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("check and add fingerprint: %w", err)
	}

	if ok {
		NewFingerprintsTotal.WithLabelValues(backendRedis).Inc()
	} else {
		DuplicatesSuppressedTotal.WithLabelValues(backendRedis).Inc()
	}

	return ok, nil
}

// Cleanup is a no-op; Redis expires keys itself.
func (c *RedisCache) Cleanup(ctx context.Context) (int, error) {
	size, err := c.Size(ctx)
	if err != nil {
		return 0, err
	}
	CacheEntries.WithLabelValues(backendRedis).Set(float64(size))
	return 0, nil
}

// Size counts keys under the prefix.
func (c *RedisCache) Size(ctx context.Context) (int, error) {
	count := 0
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan dedup keys: %w", err)
	}
	return count, nil
}

// Clear deletes every key under the prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan dedup keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete dedup keys: %w", err)
	}

	c.logger.Info("dedup-cleared", zap.Int("keys", len(keys)))
	CacheEntries.WithLabelValues(backendRedis).Set(0)
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
