package cache

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics_CountedPerCacheName(t *testing.T) {
	c, err := NewRistrettoCache(DefaultRistrettoConfig("metrics-test", zap.NewNop()))
	require.NoError(t, err)
	defer c.Close()

	hits := testutil.ToFloat64(CacheHitsTotal.WithLabelValues("metrics-test"))
	misses := testutil.ToFloat64(CacheMissesTotal.WithLabelValues("metrics-test"))
	sets := testutil.ToFloat64(CacheSetsTotal.WithLabelValues("metrics-test"))
	deletes := testutil.ToFloat64(CacheDeletesTotal.WithLabelValues("metrics-test"))

	_, ok := c.Get("sports:active")
	assert.False(t, ok)

	c.Set("sports:active", []string{"basketball_nba"}, time.Minute)
	c.(*RistrettoCache).Wait()

	_, ok = c.Get("sports:active")
	assert.True(t, ok)

	c.Delete("sports:active")

	assert.Equal(t, hits+1, testutil.ToFloat64(CacheHitsTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, misses+1, testutil.ToFloat64(CacheMissesTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, sets+1, testutil.ToFloat64(CacheSetsTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, deletes+1, testutil.ToFloat64(CacheDeletesTotal.WithLabelValues("metrics-test")))
}
