package domain

import "time"

// Tier is the DORA severity classification of an incident.
type Tier string

// Classification tiers.
const (
	TierMajor       Tier = "major"
	TierSignificant Tier = "significant"
	TierMinor       Tier = "minor"
)

// IsValid checks if the tier is one of the three classification tiers.
func (t Tier) IsValid() bool {
	switch t {
	case TierMajor, TierSignificant, TierMinor:
		return true
	}
	return false
}

// Rank orders tiers by severity. Unknown tiers rank below minor.
func (t Tier) Rank() int {
	switch t {
	case TierMajor:
		return 2
	case TierSignificant:
		return 1
	case TierMinor:
		return 0
	}
	return -1
}

// RequiresReporting reports whether incidents of this tier must be reported to the authority.
func (t Tier) RequiresReporting() bool {
	return t == TierMajor || t == TierSignificant
}

// IncidentStatus is the position of an incident in the regulatory reporting workflow.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusDraft                 IncidentStatus = "draft"
	IncidentStatusDetected              IncidentStatus = "detected"
	IncidentStatusInitialSubmitted      IncidentStatus = "initial_submitted"
	IncidentStatusIntermediateSubmitted IncidentStatus = "intermediate_submitted"
	IncidentStatusFinalSubmitted        IncidentStatus = "final_submitted"
	IncidentStatusClosed                IncidentStatus = "closed"
)

// IsValid checks if the status is a known incident status.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusDraft, IncidentStatusDetected,
		IncidentStatusInitialSubmitted, IncidentStatusIntermediateSubmitted,
		IncidentStatusFinalSubmitted, IncidentStatusClosed:
		return true
	}
	return false
}

// IsOpen returns true while the incident still has reporting obligations to track.
// Drafts are not open: they have not been confirmed as incidents yet.
func (s IncidentStatus) IsOpen() bool {
	return s != IncidentStatusDraft && s != IncidentStatusClosed
}

// ReportStage identifies one of the regulatory report submissions.
type ReportStage string

// Report stages, in submission order.
const (
	ReportStageInitial      ReportStage = "initial"
	ReportStageIntermediate ReportStage = "intermediate"
	ReportStageFinal        ReportStage = "final"
)

// ReportStages lists all stages in submission order.
func ReportStages() []ReportStage {
	return []ReportStage{ReportStageInitial, ReportStageIntermediate, ReportStageFinal}
}

// ReputationalImpact is the qualitative reputational impact level.
type ReputationalImpact string

// Reputational impact levels.
const (
	ReputationalImpactLow    ReputationalImpact = "low"
	ReputationalImpactMedium ReputationalImpact = "medium"
	ReputationalImpactHigh   ReputationalImpact = "high"
)

// IsValid checks if the reputational impact level is valid.
func (r ReputationalImpact) IsValid() bool {
	return r == ReputationalImpactLow || r == ReputationalImpactMedium || r == ReputationalImpactHigh
}

// ImpactMeasurement is a snapshot of incident impact. Every field is optional
// because impact is assessed incrementally.
type ImpactMeasurement struct {
	ClientsAffectedPercentage *float64            `json:"clients_affected_percentage,omitempty"`
	TransactionsValueAffected *float64            `json:"transactions_value_affected,omitempty"`
	CriticalFunctionsAffected []string            `json:"critical_functions_affected,omitempty"`
	DataBreach                *bool               `json:"data_breach,omitempty"`
	DataRecordsAffected       *int64              `json:"data_records_affected,omitempty"`
	EconomicImpact            *float64            `json:"economic_impact,omitempty"`
	ReputationalImpact        *ReputationalImpact `json:"reputational_impact,omitempty"`
}

// Normalize enforces the caller contract that affected data records are only
// recorded for data breaches.
func (m ImpactMeasurement) Normalize() ImpactMeasurement {
	if m.DataBreach == nil || !*m.DataBreach {
		m.DataRecordsAffected = nil
	}
	return m
}

// ClassificationRecord is the persisted classification state of an incident.
// ClassificationCalculated always holds the evaluator's verdict, even when overridden.
type ClassificationRecord struct {
	Classification                      Tier    `json:"classification"`
	ClassificationCalculated            Tier    `json:"classification_calculated"`
	ClassificationOverride              bool    `json:"classification_override"`
	ClassificationOverrideJustification *string `json:"classification_override_justification,omitempty"`
}

// Incident is an ICT-related incident tracked for DORA reporting.
// Version increases with every stored write.
type Incident struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      IncidentStatus    `json:"status"`
	Impact      ImpactMeasurement `json:"impact"`
	ClassificationRecord
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
	DetectedAt *time.Time `json:"detected_at,omitempty"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	CreatedBy  string     `json:"created_by"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RequiresReporting reports whether the effective classification triggers reporting.
func (i *Incident) RequiresReporting() bool {
	return i.Classification.RequiresReporting()
}

// ClassificationLogEntry records a change of an incident's classification for audit.
type ClassificationLogEntry struct {
	ID            string    `json:"id"`
	IncidentID    string    `json:"incident_id"`
	Calculated    Tier      `json:"calculated"`
	Effective     Tier      `json:"effective"`
	Override      bool      `json:"override"`
	Justification *string   `json:"justification,omitempty"`
	Reason        string    `json:"reason"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusChange records a status transition of an incident.
type StatusChange struct {
	ID         string         `json:"id"`
	IncidentID string         `json:"incident_id"`
	FromStatus IncidentStatus `json:"from_status"`
	ToStatus   IncidentStatus `json:"to_status"`
	CreatedBy  string         `json:"created_by"`
	CreatedAt  time.Time      `json:"created_at"`
}
