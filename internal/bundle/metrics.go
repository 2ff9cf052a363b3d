package bundle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	BufferSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "odds_trader_buffer_size",
		Help: "Number of opportunities waiting in the bundle buffer",
	})

	FlushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_buffer_flushes_total",
		Help: "Total number of buffer flushes",
	})

	BundlesPerFlush = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odds_trader_bundles_per_flush",
		Help:    "Number of event bundles produced per flush",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})
)
