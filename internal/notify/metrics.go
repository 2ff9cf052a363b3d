package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "odds_trader_notifications_total",
			Help: "Total number of notification attempts by channel and result",
		},
		[]string{"channel", "result"},
	)

	NotificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "odds_trader_notification_duration_seconds",
			Help:    "Duration of notification sends",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sender"},
	)
)
