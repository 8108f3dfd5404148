package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookSendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentryslack_webhook_send_total",
			Help: "Total webhook deliveries by status.",
		},
		[]string{"status"},
	)
	webhookSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentryslack_webhook_send_duration_seconds",
			Help:    "Duration of webhook HTTP requests.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
)

func observe(status string, d time.Duration) {
	webhookSendTotal.WithLabelValues(status).Inc()
	webhookSendDuration.WithLabelValues(status).Observe(d.Seconds())
}
