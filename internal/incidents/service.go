// Package incidents manages DORA incident records: classification, status workflow and deadlines.
package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/classification"
	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/FedericoTs/dora-comply-sub000/internal/lifecycle"
	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/ctxlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/FedericoTs/dora-comply-sub000/internal/incidents")

// Service implements incident business logic.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for detection, closure and countdowns.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new incident service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssessInput holds data for a stateless classification.
type AssessInput struct {
	Impact     domain.ImpactMeasurement
	Override   classification.OverrideRequest
	DetectedAt *time.Time
}

// Assessment is the result of a stateless classification.
// Deadlines follow the effective tier. The evaluation carries none of its own.
type Assessment struct {
	Evaluation     classification.Result    `json:"evaluation"`
	Classification classification.Effective `json:"classification"`
	Deadlines      *deadline.Set            `json:"deadlines,omitempty"`
}

// CreateInput holds data for creating an incident.
type CreateInput struct {
	Title       string
	Description string
	Impact      domain.ImpactMeasurement
	Override    classification.OverrideRequest
	OccurredAt  *time.Time
	DetectedAt  *time.Time
}

// History is the audit trail of an incident.
type History struct {
	Classifications []*domain.ClassificationLogEntry `json:"classifications"`
	StatusChanges   []*domain.StatusChange           `json:"status_changes"`
}

// OpenIncidentDeadlines pairs an open reportable incident with its projected deadlines.
type OpenIncidentDeadlines struct {
	Incident *domain.Incident
	Report   *DeadlineReport
}

// Thresholds returns the classification threshold table.
func (s *Service) Thresholds() []classification.ThresholdDefinition {
	return classification.Thresholds()
}

// Assess classifies an impact measurement without persisting anything.
func (s *Service) Assess(ctx context.Context, in AssessInput) (*Assessment, error) {
	_, span := tracer.Start(ctx, "incidents.Assess")
	defer span.End()

	impact := in.Impact.Normalize()
	if err := validateImpact(impact); err != nil {
		return nil, err
	}

	result := classification.Evaluate(impact, nil)
	eff, errs := classification.ApplyOverride(result.Classification, in.Override)
	if errs != nil {
		return nil, NewValidationError(errs)
	}

	a := &Assessment{Evaluation: result, Classification: eff}
	if eff.Tier.RequiresReporting() && in.DetectedAt != nil {
		set := deadline.Calculate(*in.DetectedAt, eff.Tier)
		a.Deadlines = &set
	}

	span.SetAttributes(attribute.String("classification.tier", string(eff.Tier)))
	return a, nil
}

// Create records a new draft incident with its initial classification.
func (s *Service) Create(ctx context.Context, in CreateInput, actor string) (inc *domain.Incident, err error) {
	ctx, span := tracer.Start(ctx, "incidents.Create")
	defer func() { finishSpan(span, err) }()

	impact := in.Impact.Normalize()
	if err := validateImpact(impact); err != nil {
		return nil, err
	}
	if in.OccurredAt != nil && in.DetectedAt != nil && in.DetectedAt.Before(*in.OccurredAt) {
		return nil, NewValidationError(map[string]string{"detected_at": "must not be before occurred_at"})
	}

	result := classification.Evaluate(impact, nil)
	eff, errs := classification.ApplyOverride(result.Classification, in.Override)
	if errs != nil {
		overridesTotal.WithLabelValues(resultRejected).Inc()
		return nil, NewValidationError(errs)
	}

	inc = &domain.Incident{
		Title:                in.Title,
		Description:          in.Description,
		Status:               domain.IncidentStatusDraft,
		Impact:               impact,
		ClassificationRecord: eff.Record(),
		OccurredAt:           in.OccurredAt,
		DetectedAt:           in.DetectedAt,
		CreatedBy:            actor,
	}
	entry := newLogEntry(eff, ReasonCreated, actor)

	if err := s.repo.Create(ctx, inc, entry); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	span.SetAttributes(attribute.String("incident.id", inc.ID))
	s.recordClassification(ctx, inc, eff, ReasonCreated)
	return inc, nil
}

// Get returns an incident by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Incident, error) {
	inc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// List returns incidents matching the filter and the total match count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Incident, int, error) {
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list incidents: %w", err)
	}
	return list, total, nil
}

// UpdateImpact replaces the impact measurement and recomputes the calculated tier.
// An active override stays in force.
func (s *Service) UpdateImpact(ctx context.Context, id string, impact domain.ImpactMeasurement, actor string) (inc *domain.Incident, err error) {
	ctx, span := tracer.Start(ctx, "incidents.UpdateImpact", trace.WithAttributes(attribute.String("incident.id", id)))
	defer func() { finishSpan(span, err) }()

	inc, err = s.getOpen(ctx, id)
	if err != nil {
		return nil, err
	}

	impact = impact.Normalize()
	if err := validateImpact(impact); err != nil {
		return nil, err
	}

	result := classification.Evaluate(impact, nil)
	eff := classification.FromRecord(inc.ClassificationRecord)
	eff.Calculated = result.Classification
	if !eff.IsOverridden() {
		eff.Tier = result.Classification
	}

	inc.Impact = impact
	inc.ClassificationRecord = eff.Record()
	if err := s.repo.UpdateClassification(ctx, inc, newLogEntry(eff, ReasonImpactUpdated, actor)); err != nil {
		return nil, fmt.Errorf("update impact: %w", err)
	}

	s.recordClassification(ctx, inc, eff, ReasonImpactUpdated)
	return inc, nil
}

// SetOverride replaces the calculated classification with a justified manual tier.
func (s *Service) SetOverride(ctx context.Context, id string, tier domain.Tier, justification, actor string) (inc *domain.Incident, err error) {
	ctx, span := tracer.Start(ctx, "incidents.SetOverride", trace.WithAttributes(attribute.String("incident.id", id)))
	defer func() { finishSpan(span, err) }()

	inc, err = s.getOpen(ctx, id)
	if err != nil {
		return nil, err
	}

	eff, errs := classification.ApplyOverride(inc.ClassificationCalculated, classification.OverrideRequest{
		Enabled:       true,
		Tier:          tier,
		Justification: justification,
	})
	if errs != nil {
		overridesTotal.WithLabelValues(resultRejected).Inc()
		return nil, NewValidationError(errs)
	}

	inc.ClassificationRecord = eff.Record()
	if err := s.repo.UpdateClassification(ctx, inc, newLogEntry(eff, ReasonOverrideSet, actor)); err != nil {
		return nil, fmt.Errorf("set override: %w", err)
	}

	overridesTotal.WithLabelValues(resultOK).Inc()
	s.recordClassification(ctx, inc, eff, ReasonOverrideSet)
	return inc, nil
}

// ClearOverride restores the calculated classification. Clearing an absent override is a no-op.
func (s *Service) ClearOverride(ctx context.Context, id, actor string) (inc *domain.Incident, err error) {
	ctx, span := tracer.Start(ctx, "incidents.ClearOverride", trace.WithAttributes(attribute.String("incident.id", id)))
	defer func() { finishSpan(span, err) }()

	inc, err = s.getOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inc.ClassificationOverride {
		return inc, nil
	}

	eff, _ := classification.ApplyOverride(inc.ClassificationCalculated, classification.OverrideRequest{})
	inc.ClassificationRecord = eff.Record()
	if err := s.repo.UpdateClassification(ctx, inc, newLogEntry(eff, ReasonOverrideCleared, actor)); err != nil {
		return nil, fmt.Errorf("clear override: %w", err)
	}

	s.recordClassification(ctx, inc, eff, ReasonOverrideCleared)
	return inc, nil
}

// Transition moves the incident to a new status.
// Confirming detection stamps the detection time if none was recorded; closing stamps the closure time.
func (s *Service) Transition(ctx context.Context, id string, to domain.IncidentStatus, actor string) (inc *domain.Incident, err error) {
	ctx, span := tracer.Start(ctx, "incidents.Transition", trace.WithAttributes(
		attribute.String("incident.id", id),
		attribute.String("incident.status_to", string(to)),
	))
	defer func() { finishSpan(span, err) }()

	if !to.IsValid() {
		return nil, NewValidationError(map[string]string{"status": "unknown status"})
	}

	inc, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}

	from := inc.Status
	next, err := lifecycle.Transition(from, to)
	if err != nil {
		transitionsTotal.WithLabelValues(string(to), resultRejected).Inc()
		return nil, fmt.Errorf("transition incident: %w", err)
	}
	if lifecycle.IsReportSubmission(next) && !inc.RequiresReporting() {
		transitionsTotal.WithLabelValues(string(to), resultRejected).Inc()
		return nil, ErrReportingNotRequired
	}

	now := s.now()
	inc.Status = next
	if next == domain.IncidentStatusDetected && inc.DetectedAt == nil {
		inc.DetectedAt = &now
	}
	if next == domain.IncidentStatusClosed {
		inc.ClosedAt = &now
	}

	change := &domain.StatusChange{
		FromStatus: from,
		ToStatus:   next,
		CreatedBy:  actor,
	}
	if err := s.repo.UpdateStatus(ctx, inc, change); err != nil {
		transitionsTotal.WithLabelValues(string(to), resultError).Inc()
		return nil, fmt.Errorf("update status: %w", err)
	}

	transitionsTotal.WithLabelValues(string(to), resultOK).Inc()
	ctxlog.FromContext(ctx).Info("incident status changed",
		"incident_id", inc.ID,
		"from", from,
		"to", next,
		"actor", actor,
	)
	return inc, nil
}

// NextStatuses returns the statuses the incident may move to next.
func (s *Service) NextStatuses(ctx context.Context, id string) ([]domain.IncidentStatus, error) {
	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := lifecycle.SelectableNextStates(inc.Status, inc.RequiresReporting())
	if next == nil {
		next = []domain.IncidentStatus{}
	}
	return next, nil
}

// Deadlines returns the incident's report deadlines projected at the current time.
func (s *Service) Deadlines(ctx context.Context, id string) (*DeadlineReport, error) {
	inc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildDeadlineReport(inc, s.now()), nil
}

// History returns the classification and status audit trail of an incident.
func (s *Service) History(ctx context.Context, id string) (*History, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	classifications, err := s.repo.ListClassificationLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list classification log: %w", err)
	}
	changes, err := s.repo.ListStatusChanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}

	return &History{Classifications: classifications, StatusChanges: changes}, nil
}

// OpenDeadlines projects the pending deadlines of every open reportable incident at the current time.
func (s *Service) OpenDeadlines(ctx context.Context) ([]OpenIncidentDeadlines, error) {
	ctx, span := tracer.Start(ctx, "incidents.OpenDeadlines")
	defer span.End()

	list, err := s.repo.ListOpenReportable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open reportable incidents: %w", err)
	}

	now := s.now()
	out := make([]OpenIncidentDeadlines, 0, len(list))
	for _, inc := range list {
		out = append(out, OpenIncidentDeadlines{Incident: inc, Report: buildDeadlineReport(inc, now)})
	}
	span.SetAttributes(attribute.Int("incidents.count", len(out)))
	return out, nil
}

func (s *Service) getOpen(ctx context.Context, id string) (*domain.Incident, error) {
	inc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	if inc.Status == domain.IncidentStatusClosed {
		return nil, ErrIncidentClosed
	}
	return inc, nil
}

func (s *Service) recordClassification(ctx context.Context, inc *domain.Incident, eff classification.Effective, reason string) {
	classificationsTotal.WithLabelValues(string(eff.Tier), reason).Inc()
	ctxlog.FromContext(ctx).Info("incident classified",
		"incident_id", inc.ID,
		"calculated", eff.Calculated,
		"effective", eff.Tier,
		"override", eff.IsOverridden(),
		"reason", reason,
	)
}

func newLogEntry(eff classification.Effective, reason, actor string) *domain.ClassificationLogEntry {
	rec := eff.Record()
	return &domain.ClassificationLogEntry{
		Calculated:    rec.ClassificationCalculated,
		Effective:     rec.Classification,
		Override:      rec.ClassificationOverride,
		Justification: rec.ClassificationOverrideJustification,
		Reason:        reason,
		CreatedBy:     actor,
	}
}

func validateImpact(m domain.ImpactMeasurement) error {
	if m.ReputationalImpact != nil && !m.ReputationalImpact.IsValid() {
		return NewValidationError(map[string]string{
			"impact.reputational_impact": "must be one of low, medium, high",
		})
	}
	return nil
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
