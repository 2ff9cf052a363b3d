package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// PollsTotal tracks poll cycles started.
	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_polls_total",
		Help: "Total number of poll cycles",
	})

	// PollErrorsTotal tracks failed poll cycles.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_poll_errors_total",
		Help: "Total number of failed poll cycles",
	})

	// PollDurationSeconds tracks poll cycle duration.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odds_trader_poll_duration_seconds",
		Help:    "Duration of poll cycles",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// SportScanErrorsTotal tracks sports skipped because their fetch failed.
	SportScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_sport_scan_errors_total",
		Help: "Total number of per-sport scan failures",
	})

	// OpportunitiesProcessedTotal tracks new opportunities persisted.
	OpportunitiesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_opportunities_processed_total",
			Help: "Total number of new opportunities persisted and notified",
		},
		[]string{"type"},
	)

	// ProcessErrorsTotal tracks per-item processing failures by stage.
	ProcessErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_process_errors_total",
			Help: "Total number of processing failures by stage",
		},
		[]string{"stage"},
	)

	// HeartbeatsTotal tracks heartbeats written.
	HeartbeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_heartbeats_total",
		Help: "Total number of worker heartbeats",
	})
)
