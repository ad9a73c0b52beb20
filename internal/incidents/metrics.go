package incidents

import (
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	classificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "classifications_total",
			Help:      "Classifications computed, by effective tier and reason",
		},
		[]string{"tier", "reason"},
	)

	overridesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "overrides_total",
			Help:      "Manual classification overrides, by result",
		},
		[]string{"result"},
	)

	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "incidents",
			Name:      "status_transitions_total",
			Help:      "Status transition attempts, by target status and result",
		},
		[]string{"to", "result"},
	)

	pendingDeadlines = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Subsystem: "deadlines",
			Name:      "pending",
			Help:      "Unsubmitted report deadlines of open incidents, by stage and urgency",
		},
		[]string{"stage", "urgency"},
	)

	watcherRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "deadlines",
			Name:      "watcher_runs_total",
			Help:      "Deadline watcher runs, by result",
		},
		[]string{"result"},
	)
)

// Metric result labels.
const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
)
