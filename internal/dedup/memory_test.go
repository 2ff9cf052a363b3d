package dedup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestMemoryCache(ttl time.Duration) (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 9, 18, 0, 0, 0, time.UTC)}
	cache := NewMemoryCache(MemoryConfig{
		TTL:    ttl,
		Logger: zap.NewNop(),
		Now:    clock.Now,
	})
	return cache, clock
}

func TestMemoryCache_CheckAndAdd(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemoryCache(180 * time.Second)

	isNew, err := cache.CheckAndAdd(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, isNew, "first sighting should be new")

	clock.Advance(179 * time.Second)
	isNew, err = cache.CheckAndAdd(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, isNew, "repeat inside window should be suppressed")

	clock.Advance(2 * time.Second)
	isNew, err = cache.CheckAndAdd(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, isNew, "repeat after window should be new again")
}

func TestMemoryCache_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		elapsed time.Duration
		wantHas bool
	}{
		{name: "fresh", elapsed: 0, wantHas: true},
		{name: "just-inside", elapsed: 180*time.Second - time.Millisecond, wantHas: true},
		{name: "exactly-ttl", elapsed: 180 * time.Second, wantHas: true},
		{name: "just-past", elapsed: 180*time.Second + time.Millisecond, wantHas: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, clock := newTestMemoryCache(180 * time.Second)
			require.NoError(t, cache.Add(ctx, "fp"))

			clock.Advance(tt.elapsed)
			has, err := cache.Has(ctx, "fp")
			require.NoError(t, err)
			assert.Equal(t, tt.wantHas, has)
		})
	}
}

func TestMemoryCache_HasExpiresLazily(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemoryCache(time.Minute)

	require.NoError(t, cache.Add(ctx, "fp"))
	clock.Advance(2 * time.Minute)

	size, _ := cache.Size(ctx)
	assert.Equal(t, 1, size, "expired entry stays until touched")

	has, _ := cache.Has(ctx, "fp")
	assert.False(t, has)

	size, _ = cache.Size(ctx)
	assert.Equal(t, 0, size, "lookup should drop the expired entry")
}

func TestMemoryCache_AddRefreshesWindow(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemoryCache(time.Minute)

	require.NoError(t, cache.Add(ctx, "fp"))
	clock.Advance(50 * time.Second)
	require.NoError(t, cache.Add(ctx, "fp"))
	clock.Advance(50 * time.Second)

	has, _ := cache.Has(ctx, "fp")
	assert.True(t, has)
}

func TestMemoryCache_Cleanup(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemoryCache(time.Minute)

	for i := 0; i < 5; i++ {
		require.NoError(t, cache.Add(ctx, fmt.Sprintf("old-%d", i)))
	}
	clock.Advance(90 * time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, cache.Add(ctx, fmt.Sprintf("new-%d", i)))
	}

	removed, err := cache.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, removed)

	size, _ := cache.Size(ctx)
	assert.Equal(t, 3, size)
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestMemoryCache(time.Minute)

	require.NoError(t, cache.Add(ctx, "a"))
	require.NoError(t, cache.Add(ctx, "b"))
	require.NoError(t, cache.Clear(ctx))

	size, _ := cache.Size(ctx)
	assert.Equal(t, 0, size)

	isNew, _ := cache.CheckAndAdd(ctx, "a")
	assert.True(t, isNew)
}

func TestMemoryCache_CheckAndAddReplacesExpired(t *testing.T) {
	ctx := context.Background()
	cache, clock := newTestMemoryCache(time.Minute)

	require.NoError(t, cache.Add(ctx, "fp"))
	clock.Advance(2 * time.Minute)

	isNew, err := cache.CheckAndAdd(ctx, "fp")
	require.NoError(t, err)
	assert.True(t, isNew)

	size, _ := cache.Size(ctx)
	assert.Equal(t, 1, size, "the expired entry is replaced, not duplicated")

	clock.Advance(30 * time.Second)
	has, _ := cache.Has(ctx, "fp")
	assert.True(t, has, "the window restarts from the re-add")
}

func TestNewMemoryCache_Defaults(t *testing.T) {
	cache := NewMemoryCache(MemoryConfig{})
	assert.Equal(t, DefaultTTL, cache.TTL())
	assert.NotNil(t, cache.logger)
	assert.NotNil(t, cache.now)
}

// A fingerprint is reported new exactly once per window no matter how often it repeats.
func TestMemoryCache_OncePerWindowProperty(t *testing.T) {
	ctx := context.Background()
	ttl := 10 * time.Second
	cache, clock := newTestMemoryCache(ttl)

	var lastNew time.Time
	for step := 0; step < 500; step++ {
		fp := fmt.Sprintf("fp-%d", step%3)
		isNew, err := cache.CheckAndAdd(ctx, fp)
		require.NoError(t, err)

		if fp == "fp-0" {
			if isNew {
				if !lastNew.IsZero() {
					assert.Greater(t, clock.Now().Sub(lastNew), ttl, "step %d", step)
				}
				lastNew = clock.Now()
			} else {
				assert.LessOrEqual(t, clock.Now().Sub(lastNew), ttl, "step %d", step)
			}
		}

		clock.Advance(700 * time.Millisecond)
	}
}

func TestMemoryCache_ImplementsCache(t *testing.T) {
	var _ Cache = (*MemoryCache)(nil)
	var _ Cache = (*RedisCache)(nil)
}
