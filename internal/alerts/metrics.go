package alerts

import (
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSent      = "sent"
	statusFailed    = "failed"
	statusFiltered  = "filtered"
	statusDuplicate = "duplicate"
)

var (
	alertsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "alerts",
			Name:      "processed_total",
			Help:      "Deadline alerts processed by outcome",
		},
		[]string{"status"},
	)

	alertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "alerts",
			Name:      "sent_total",
			Help:      "Deadline alert deliveries by sender and status",
		},
		[]string{"sender", "status"},
	)

	alertSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Subsystem: "alerts",
			Name:      "send_duration_seconds",
			Help:      "Time to deliver an alert",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"sender"},
	)
)

func recordProcessed(status string) {
	alertsProcessed.WithLabelValues(status).Inc()
}

func recordSent(sender, status string, duration time.Duration) {
	alertsSent.WithLabelValues(sender, status).Inc()
	alertSendDuration.WithLabelValues(sender).Observe(duration.Seconds())
}
