package incidents

import (
	"context"
	"sync"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/google/uuid"
)

// mockRepository implements Repository in memory. Stored incidents are copied
// so the service cannot mutate them without a write.
type mockRepository struct {
	mu        sync.Mutex
	incidents map[string]domain.Incident
	order     []string
	logs      map[string][]*domain.ClassificationLogEntry
	changes   map[string][]*domain.StatusChange
	now       time.Time

	createErr error
	getErr    error
	listErr   error

	// beforeClassificationWrite runs once, unlocked, ahead of the next
	// UpdateClassification to interleave a concurrent writer.
	beforeClassificationWrite func()
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		incidents: make(map[string]domain.Incident),
		logs:      make(map[string][]*domain.ClassificationLogEntry),
		changes:   make(map[string][]*domain.StatusChange),
		now:       time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) Create(_ context.Context, inc *domain.Incident, entry *domain.ClassificationLogEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	inc.ID = uuid.NewString()
	inc.Version = 1
	inc.CreatedAt = m.now
	inc.UpdatedAt = m.now
	m.incidents[inc.ID] = *inc
	m.order = append(m.order, inc.ID)
	m.appendLog(inc.ID, entry)
	return nil
}

func (m *mockRepository) Get(_ context.Context, id string) (*domain.Incident, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	inc, ok := m.incidents[id]
	if !ok {
		return nil, ErrIncidentNotFound
	}
	return &inc, nil
}

func (m *mockRepository) List(_ context.Context, filter ListFilter) ([]*domain.Incident, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.Incident
	for _, id := range m.order {
		inc := m.incidents[id]
		if filter.Status != nil && inc.Status != *filter.Status {
			continue
		}
		if filter.Classification != nil && inc.Classification != *filter.Classification {
			continue
		}
		matched = append(matched, &inc)
	}

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (m *mockRepository) UpdateClassification(_ context.Context, inc *domain.Incident, entry *domain.ClassificationLogEntry) error {
	if hook := m.beforeClassificationWrite; hook != nil {
		m.beforeClassificationWrite = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.incidents[inc.ID]
	switch {
	case !ok:
		return ErrIncidentNotFound
	case stored.Status == domain.IncidentStatusClosed:
		return ErrIncidentClosed
	case stored.Version != inc.Version:
		return ErrVersionConflict
	}

	stored.Impact = inc.Impact
	stored.ClassificationRecord = inc.ClassificationRecord
	stored.Version++
	m.incidents[inc.ID] = stored
	inc.Version = stored.Version

	m.appendLog(inc.ID, entry)
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, inc *domain.Incident, change *domain.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.incidents[inc.ID]
	if !ok {
		return ErrIncidentNotFound
	}
	if stored.Status != change.FromStatus {
		return ErrStatusConflict
	}
	stored.Status = inc.Status
	stored.DetectedAt = inc.DetectedAt
	stored.ClosedAt = inc.ClosedAt
	stored.Version++
	m.incidents[inc.ID] = stored
	inc.Version = stored.Version

	change.ID = uuid.NewString()
	change.IncidentID = inc.ID
	change.CreatedAt = m.now
	m.changes[inc.ID] = append(m.changes[inc.ID], change)
	return nil
}

func (m *mockRepository) ListClassificationLog(_ context.Context, incidentID string) ([]*domain.ClassificationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.ClassificationLogEntry{}, m.logs[incidentID]...), nil
}

func (m *mockRepository) ListStatusChanges(_ context.Context, incidentID string) ([]*domain.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.StatusChange{}, m.changes[incidentID]...), nil
}

func (m *mockRepository) ListOpenReportable(_ context.Context) ([]*domain.Incident, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.Incident
	for _, id := range m.order {
		inc := m.incidents[id]
		if inc.Status == domain.IncidentStatusDraft || inc.Status == domain.IncidentStatusClosed {
			continue
		}
		if inc.DetectedAt == nil || !inc.RequiresReporting() {
			continue
		}
		out = append(out, &inc)
	}
	return out, nil
}

func (m *mockRepository) appendLog(incidentID string, entry *domain.ClassificationLogEntry) {
	entry.ID = uuid.NewString()
	entry.IncidentID = incidentID
	entry.CreatedAt = m.now
	m.logs[incidentID] = append(m.logs[incidentID], entry)
}

func ptr[T any](v T) *T {
	return &v
}
