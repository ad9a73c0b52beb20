package incidents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/alerts"
	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mu     sync.Mutex
	alerts []alerts.Alert
	err    error
}

func (m *mockNotifier) Notify(_ context.Context, a alerts.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, a)
	return nil
}

type failingSource struct{}

func (failingSource) OpenDeadlines(context.Context) ([]OpenIncidentDeadlines, error) {
	return nil, errors.New("database unavailable")
}

func detectIncident(t *testing.T, svc *Service, impact domain.ImpactMeasurement) *domain.Incident {
	t.Helper()
	inc := createIncident(t, svc, impact)
	inc, err := svc.Transition(context.Background(), inc.ID, domain.IncidentStatusDetected, testActor)
	require.NoError(t, err)
	return inc
}

func TestDeadlineWatcher_RunOnce(t *testing.T) {
	svc, _, clock := newTestService(t)
	major := detectIncident(t, svc, domain.ImpactMeasurement{DataBreach: ptr(true)})
	detectIncident(t, svc, domain.ImpactMeasurement{ClientsAffectedPercentage: ptr(6.0)})
	detectIncident(t, svc, domain.ImpactMeasurement{})

	clock.now = detectedAt.Add(3 * time.Hour)
	notifier := &mockNotifier{}
	w := NewDeadlineWatcher(WatcherConfig{Schedule: "@every 1m", BaseURL: "https://dora.example.com/"}, svc, notifier)

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Incidents)
	assert.Equal(t, 5, summary.Pending)
	assert.Equal(t, 1, summary.Alerted)
	assert.Equal(t, 0, summary.Failed)

	require.Len(t, notifier.alerts, 1)
	a := notifier.alerts[0]
	assert.Equal(t, major.ID, a.IncidentID)
	assert.Equal(t, domain.ReportStageInitial, a.Stage)
	assert.Equal(t, domain.TierMajor, a.Tier)
	assert.Equal(t, deadline.UrgencyHigh, a.Countdown.Urgency)
	assert.Equal(t, "https://dora.example.com/api/v1/incidents/"+major.ID, a.URL)
}

func TestDeadlineWatcher_OverdueAlerts(t *testing.T) {
	svc, _, clock := newTestService(t)
	detectIncident(t, svc, domain.ImpactMeasurement{DataBreach: ptr(true)})

	clock.now = detectedAt.Add(80 * time.Hour)
	notifier := &mockNotifier{}
	w := NewDeadlineWatcher(WatcherConfig{}, svc, notifier)

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Alerted, "initial and intermediate are overdue")
	for _, a := range notifier.alerts {
		assert.True(t, a.Countdown.IsOverdue)
		assert.Empty(t, a.URL)
	}
}

func TestDeadlineWatcher_NotifierFailure(t *testing.T) {
	svc, _, clock := newTestService(t)
	detectIncident(t, svc, domain.ImpactMeasurement{DataBreach: ptr(true)})

	clock.now = detectedAt.Add(3 * time.Hour)
	w := NewDeadlineWatcher(WatcherConfig{}, svc, &mockNotifier{err: errors.New("webhook down")})

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Alerted)
}

func TestDeadlineWatcher_MetricsOnly(t *testing.T) {
	svc, _, clock := newTestService(t)
	detectIncident(t, svc, domain.ImpactMeasurement{DataBreach: ptr(true)})

	clock.now = detectedAt.Add(3 * time.Hour)
	w := NewDeadlineWatcher(WatcherConfig{}, svc, nil)

	summary, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Pending)
	assert.Equal(t, 0, summary.Alerted)
}

func TestDeadlineWatcher_SourceError(t *testing.T) {
	w := NewDeadlineWatcher(WatcherConfig{}, failingSource{}, &mockNotifier{})

	_, err := w.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestDeadlineWatcher_StartStop(t *testing.T) {
	svc, _, _ := newTestService(t)

	w := NewDeadlineWatcher(WatcherConfig{Schedule: "not a schedule"}, svc, nil)
	assert.Error(t, w.Start(context.Background()))

	w = NewDeadlineWatcher(WatcherConfig{Schedule: "@every 1h"}, svc, nil)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
}
