package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_provider_requests_total",
			Help: "Total number of odds provider requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	ProviderRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_provider_retries_total",
			Help: "Total number of odds provider request retries",
		},
		[]string{"endpoint"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "odds_trader_provider_request_duration_seconds",
			Help:    "Duration of odds provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	RequestsRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "odds_trader_provider_requests_remaining",
		Help: "Request quota remaining as reported by the odds provider",
	})
)
