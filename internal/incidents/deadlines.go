package incidents

import (
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/FedericoTs/dora-comply-sub000/internal/lifecycle"
)

// StageDeadline is the deadline of one report stage projected at a point in time.
// Countdown is nil once the stage has been submitted.
type StageDeadline struct {
	Stage     domain.ReportStage  `json:"stage"`
	Deadline  time.Time           `json:"deadline"`
	Submitted bool                `json:"submitted"`
	Countdown *deadline.Countdown `json:"countdown,omitempty"`
	Remaining string              `json:"remaining,omitempty"`
}

// DeadlineReport lists the regulatory deadlines of an incident.
type DeadlineReport struct {
	IncidentID        string          `json:"incident_id"`
	Classification    domain.Tier     `json:"classification"`
	RequiresReporting bool            `json:"requires_reporting"`
	DetectedAt        *time.Time      `json:"detected_at,omitempty"`
	EvaluatedAt       time.Time       `json:"evaluated_at"`
	Stages            []StageDeadline `json:"stages"`
}

// buildDeadlineReport computes the deadlines of the effective classification and projects them at now.
// Incidents without a detection time have no deadlines yet.
func buildDeadlineReport(inc *domain.Incident, now time.Time) *DeadlineReport {
	report := &DeadlineReport{
		IncidentID:        inc.ID,
		Classification:    inc.Classification,
		RequiresReporting: inc.RequiresReporting(),
		DetectedAt:        inc.DetectedAt,
		EvaluatedAt:       now,
		Stages:            []StageDeadline{},
	}
	if !report.RequiresReporting || inc.DetectedAt == nil {
		return report
	}

	set := deadline.Calculate(*inc.DetectedAt, inc.Classification)
	for _, stage := range domain.ReportStages() {
		at := set.For(stage)
		if at == nil {
			continue
		}

		sd := StageDeadline{
			Stage:     stage,
			Deadline:  *at,
			Submitted: lifecycle.IsStageSubmitted(inc.Status, stage),
		}
		if !sd.Submitted && inc.Status != domain.IncidentStatusClosed {
			c := deadline.Project(*at, now)
			sd.Countdown = &c
			sd.Remaining = deadline.FormatRemaining(c)
		}
		report.Stages = append(report.Stages, sd)
	}

	return report
}

// Pending returns the stages still awaiting submission.
func (r *DeadlineReport) Pending() []StageDeadline {
	pending := make([]StageDeadline, 0, len(r.Stages))
	for _, s := range r.Stages {
		if s.Countdown != nil {
			pending = append(pending, s)
		}
	}
	return pending
}
