package incidents

import (
	"context"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// Repository defines the interface for incident storage.
// Classification and status writes persist the incident row together with its audit entry.
type Repository interface {
	Create(ctx context.Context, incident *domain.Incident, entry *domain.ClassificationLogEntry) error
	Get(ctx context.Context, id string) (*domain.Incident, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Incident, int, error)

	UpdateClassification(ctx context.Context, incident *domain.Incident, entry *domain.ClassificationLogEntry) error
	UpdateStatus(ctx context.Context, incident *domain.Incident, change *domain.StatusChange) error

	ListClassificationLog(ctx context.Context, incidentID string) ([]*domain.ClassificationLogEntry, error)
	ListStatusChanges(ctx context.Context, incidentID string) ([]*domain.StatusChange, error)

	// ListOpenReportable returns detected, not closed incidents classified major or significant.
	ListOpenReportable(ctx context.Context) ([]*domain.Incident, error)
}

// ListFilter holds filter options for listing incidents.
type ListFilter struct {
	Status         *domain.IncidentStatus
	Classification *domain.Tier
	Limit          int
	Offset         int
}

// Classification log reasons.
const (
	ReasonCreated         = "created"
	ReasonImpactUpdated   = "impact_updated"
	ReasonOverrideSet     = "override_set"
	ReasonOverrideCleared = "override_cleared"
)
