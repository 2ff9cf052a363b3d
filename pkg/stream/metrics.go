package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "odds_trader_stream_clients",
		Help: "Number of connected websocket clients",
	})

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_stream_messages_total",
			Help: "Total number of messages broadcast by type",
		},
		[]string{"type"},
	)

	DroppedClientsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "odds_trader_stream_dropped_clients_total",
		Help: "Total number of clients disconnected for falling behind",
	})
)
