package normalizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// EventsNormalizedTotal tracks events successfully normalized.
	EventsNormalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_normalizer_events_total",
		Help: "Total number of provider events normalized",
	})

	// OutcomesDroppedTotal tracks malformed outcomes excluded from detection.
	OutcomesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_normalizer_outcomes_dropped_total",
			Help: "Total number of provider outcomes dropped during normalization",
		},
		[]string{"reason"},
	)
)
