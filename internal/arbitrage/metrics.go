package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// OpportunitiesDetectedTotal tracks opportunities detected by type and market.
	OpportunitiesDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_opportunities_detected_total",
			Help: "Total number of opportunities detected",
		},
		[]string{"type", "market"},
	)

	// OpportunitiesRejectedTotal tracks rejected candidates by reason.
	OpportunitiesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_opportunities_rejected_total",
			Help: "Total number of candidate opportunities rejected",
		},
		[]string{"reason"},
	)

	// OpportunityEdgePct tracks edge percentages of emitted opportunities.
	OpportunityEdgePct = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "odds_trader_opportunity_edge_pct",
			Help:    "Edge percentage of detected opportunities",
			Buckets: []float64{-10, -5, -2, 0, 0.5, 1, 2, 3, 5, 10},
		},
		[]string{"type"},
	)

	// MiddleWidthPoints tracks middle window widths.
	MiddleWidthPoints = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odds_trader_middle_width_points",
		Help:    "Width in points of detected middles",
		Buckets: []float64{0.5, 1, 1.5, 2, 3, 4, 6, 8, 10},
	})

	// DetectionDurationSeconds tracks per-event detection latency.
	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odds_trader_detection_duration_seconds",
		Help:    "Duration of detection over one event",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
)
