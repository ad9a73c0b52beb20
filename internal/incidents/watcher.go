package incidents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/alerts"
	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/robfig/cron/v3"
)

// DeadlineSource lists the pending deadlines of open reportable incidents.
type DeadlineSource interface {
	OpenDeadlines(ctx context.Context) ([]OpenIncidentDeadlines, error)
}

// AlertNotifier delivers deadline alerts.
type AlertNotifier interface {
	Notify(ctx context.Context, a alerts.Alert) error
}

// WatcherConfig contains deadline watcher configuration.
type WatcherConfig struct {
	// Schedule is a cron spec, e.g. "@every 1m" or "*/5 * * * *".
	Schedule string
	// Timeout bounds a single run.
	Timeout time.Duration
	// BaseURL prefixes incident links in alerts.
	BaseURL string
}

// WatchSummary describes one watcher run.
type WatchSummary struct {
	Incidents int
	Pending   int
	Alerted   int
	Failed    int
}

// DeadlineWatcher periodically projects open deadlines, exports them as
// metrics and raises alerts for stages at high urgency or worse.
type DeadlineWatcher struct {
	config   WatcherConfig
	source   DeadlineSource
	notifier AlertNotifier
	cron     *cron.Cron
}

// NewDeadlineWatcher creates a watcher. notifier may be nil to only export metrics.
func NewDeadlineWatcher(config WatcherConfig, source DeadlineSource, notifier AlertNotifier) *DeadlineWatcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &DeadlineWatcher{
		config:   config,
		source:   source,
		notifier: notifier,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Start schedules the watcher. Runs stop being scheduled once ctx is done or Stop is called.
func (w *DeadlineWatcher) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.config.Schedule, func() {
		if ctx.Err() != nil {
			return
		}
		runCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
		defer cancel()

		if _, err := w.RunOnce(runCtx); err != nil {
			slog.Error("deadline watcher run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule deadline watcher: %w", err)
	}

	slog.Info("starting deadline watcher", "schedule", w.config.Schedule)
	w.cron.Start()
	return nil
}

// Stop waits for a running pass to finish and stops scheduling.
func (w *DeadlineWatcher) Stop() {
	<-w.cron.Stop().Done()
	slog.Info("deadline watcher stopped")
}

// RunOnce performs one pass over all open reportable incidents.
// Delivery failures are counted and logged; only a failure to list incidents is returned.
func (w *DeadlineWatcher) RunOnce(ctx context.Context) (WatchSummary, error) {
	var summary WatchSummary

	open, err := w.source.OpenDeadlines(ctx)
	if err != nil {
		watcherRunsTotal.WithLabelValues(resultError).Inc()
		return summary, err
	}

	counts := make(map[[2]string]int)
	for _, item := range open {
		summary.Incidents++
		for _, stage := range item.Report.Pending() {
			summary.Pending++
			c := *stage.Countdown
			counts[[2]string{string(stage.Stage), string(c.Urgency)}]++

			if w.notifier == nil || c.Urgency.Rank() < deadline.UrgencyHigh.Rank() {
				continue
			}

			a := alerts.Alert{
				IncidentID: item.Incident.ID,
				Title:      item.Incident.Title,
				Tier:       item.Report.Classification,
				Stage:      stage.Stage,
				Deadline:   stage.Deadline,
				Countdown:  c,
				URL:        w.incidentURL(item.Incident.ID),
			}
			if err := w.notifier.Notify(ctx, a); err != nil {
				summary.Failed++
				slog.Warn("deadline alert failed",
					"incident_id", a.IncidentID,
					"stage", a.Stage,
					"error", err,
				)
				continue
			}
			summary.Alerted++
		}
	}

	pendingDeadlines.Reset()
	for labels, n := range counts {
		pendingDeadlines.WithLabelValues(labels[0], labels[1]).Set(float64(n))
	}

	watcherRunsTotal.WithLabelValues(resultOK).Inc()
	slog.Debug("deadline watcher run completed",
		"incidents", summary.Incidents,
		"pending", summary.Pending,
		"alerted", summary.Alerted,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (w *DeadlineWatcher) incidentURL(id string) string {
	if w.config.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(w.config.BaseURL, "/") + "/api/v1/incidents/" + id
}
