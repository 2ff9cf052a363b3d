package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	OpportunitiesStoredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_opportunities_stored_total",
			Help: "Total number of opportunities upserted",
		},
		[]string{"type"},
	)

	PaperPositionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_paper_positions_total",
			Help: "Total number of paper positions recorded by status",
		},
		[]string{"status"},
	)

	StorageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_storage_errors_total",
			Help: "Total number of storage write failures by operation",
		},
		[]string{"operation"},
	)
)
