package paper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	FillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_paper_fills_total",
			Help: "Total number of simulated fill attempts by status",
		},
		[]string{"status"},
	)

	SlippageApplied = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odds_trader_paper_slippage_odds",
		Help:    "Per-leg decimal odds lost to simulated slippage",
		Buckets: []float64{0, 0.005, 0.01, 0.02, 0.05, 0.1, 0.15},
	})

	FillLatencyMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "odds_trader_paper_fill_latency_ms",
		Help:    "Simulated fill latency in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 1500, 2000, 3000, 5000},
	})
)
