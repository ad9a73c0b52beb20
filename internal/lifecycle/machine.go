// Package lifecycle defines the regulatory status workflow of an incident.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// ErrInvalidTransition is matched by every InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError reports an attempt to move between statuses the workflow does not connect.
type InvalidTransitionError struct {
	From domain.IncidentStatus
	To   domain.IncidentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// Is makes errors.Is(err, ErrInvalidTransition) succeed.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// nextStates returns the legal next statuses in display order.
// Drafts must be confirmed as detected before they can be closed; closed is terminal.
func nextStates(from domain.IncidentStatus) []domain.IncidentStatus {
	switch from {
	case domain.IncidentStatusDraft:
		return []domain.IncidentStatus{domain.IncidentStatusDetected}
	case domain.IncidentStatusDetected:
		return []domain.IncidentStatus{domain.IncidentStatusInitialSubmitted, domain.IncidentStatusClosed}
	case domain.IncidentStatusInitialSubmitted:
		return []domain.IncidentStatus{domain.IncidentStatusIntermediateSubmitted, domain.IncidentStatusClosed}
	case domain.IncidentStatusIntermediateSubmitted:
		return []domain.IncidentStatus{domain.IncidentStatusFinalSubmitted, domain.IncidentStatusClosed}
	case domain.IncidentStatusFinalSubmitted:
		return []domain.IncidentStatus{domain.IncidentStatusClosed}
	}
	return nil
}

// NextStates returns the statuses reachable from the given status in one step.
func NextStates(from domain.IncidentStatus) []domain.IncidentStatus {
	return nextStates(from)
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to domain.IncidentStatus) bool {
	for _, s := range nextStates(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Transition returns the new status, or an *InvalidTransitionError when the move is not legal.
func Transition(from, to domain.IncidentStatus) (domain.IncidentStatus, error) {
	if !CanTransition(from, to) {
		return from, &InvalidTransitionError{From: from, To: to}
	}
	return to, nil
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(s domain.IncidentStatus) bool {
	return len(nextStates(s)) == 0
}

// IsReportSubmission reports whether the status records a report submission.
func IsReportSubmission(s domain.IncidentStatus) bool {
	switch s {
	case domain.IncidentStatusInitialSubmitted,
		domain.IncidentStatusIntermediateSubmitted,
		domain.IncidentStatusFinalSubmitted:
		return true
	}
	return false
}

// SelectableNextStates returns the next statuses to offer to a user.
// Report submissions are hidden for incidents that do not require reporting.
func SelectableNextStates(from domain.IncidentStatus, requiresReporting bool) []domain.IncidentStatus {
	states := nextStates(from)
	if requiresReporting {
		return states
	}

	selectable := make([]domain.IncidentStatus, 0, len(states))
	for _, s := range states {
		if !IsReportSubmission(s) {
			selectable = append(selectable, s)
		}
	}
	return selectable
}

// SubmittedStages returns the report stages already submitted at the given status.
func SubmittedStages(s domain.IncidentStatus) []domain.ReportStage {
	switch s {
	case domain.IncidentStatusInitialSubmitted:
		return []domain.ReportStage{domain.ReportStageInitial}
	case domain.IncidentStatusIntermediateSubmitted:
		return []domain.ReportStage{domain.ReportStageInitial, domain.ReportStageIntermediate}
	case domain.IncidentStatusFinalSubmitted:
		return domain.ReportStages()
	}
	return nil
}

// IsStageSubmitted reports whether the given report stage is submitted at status s.
func IsStageSubmitted(s domain.IncidentStatus, stage domain.ReportStage) bool {
	for _, submitted := range SubmittedStages(s) {
		if submitted == stage {
			return true
		}
	}
	return false
}
