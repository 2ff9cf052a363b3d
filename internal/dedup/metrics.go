package dedup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	NewFingerprintsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_dedup_new_total",
			Help: "Total number of fingerprints seen for the first time in their window",
		},
		[]string{"backend"},
	)

	DuplicatesSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_dedup_suppressed_total",
			Help: "Total number of duplicate opportunities suppressed",
		},
		[]string{"backend"},
	)

	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "odds_trader_dedup_entries",
			Help: "Number of fingerprints held after the last cleanup",
		},
		[]string{"backend"},
	)
)
