package lifecycle

import (
	"errors"
	"testing"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []domain.IncidentStatus{
	domain.IncidentStatusDraft,
	domain.IncidentStatusDetected,
	domain.IncidentStatusInitialSubmitted,
	domain.IncidentStatusIntermediateSubmitted,
	domain.IncidentStatusFinalSubmitted,
	domain.IncidentStatusClosed,
}

func TestCanTransition_Table(t *testing.T) {
	legal := map[domain.IncidentStatus][]domain.IncidentStatus{
		domain.IncidentStatusDraft:                 {domain.IncidentStatusDetected},
		domain.IncidentStatusDetected:              {domain.IncidentStatusInitialSubmitted, domain.IncidentStatusClosed},
		domain.IncidentStatusInitialSubmitted:      {domain.IncidentStatusIntermediateSubmitted, domain.IncidentStatusClosed},
		domain.IncidentStatusIntermediateSubmitted: {domain.IncidentStatusFinalSubmitted, domain.IncidentStatusClosed},
		domain.IncidentStatusFinalSubmitted:        {domain.IncidentStatusClosed},
		domain.IncidentStatusClosed:                {},
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			expected := false
			for _, s := range legal[from] {
				if s == to {
					expected = true
				}
			}
			assert.Equal(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_Examples(t *testing.T) {
	assert.True(t, CanTransition(domain.IncidentStatusDraft, domain.IncidentStatusDetected))
	assert.False(t, CanTransition(domain.IncidentStatusDraft, domain.IncidentStatusClosed))
	assert.False(t, CanTransition(domain.IncidentStatusDetected, domain.IncidentStatusFinalSubmitted))
}

func TestClosedIsTerminal(t *testing.T) {
	for _, s := range allStatuses {
		assert.False(t, CanTransition(domain.IncidentStatusClosed, s), "closed -> %s", s)
	}
	assert.True(t, IsTerminal(domain.IncidentStatusClosed))
	assert.False(t, IsTerminal(domain.IncidentStatusDraft))
}

func TestEveryConfirmedStatusCanClose(t *testing.T) {
	for _, s := range allStatuses {
		if s == domain.IncidentStatusDraft || s == domain.IncidentStatusClosed {
			continue
		}
		assert.True(t, CanTransition(s, domain.IncidentStatusClosed), "%s -> closed", s)
	}
}

func TestTransition(t *testing.T) {
	t.Run("legal", func(t *testing.T) {
		next, err := Transition(domain.IncidentStatusDetected, domain.IncidentStatusInitialSubmitted)
		require.NoError(t, err)
		assert.Equal(t, domain.IncidentStatusInitialSubmitted, next)
	})

	t.Run("illegal", func(t *testing.T) {
		next, err := Transition(domain.IncidentStatusDraft, domain.IncidentStatusClosed)
		require.Error(t, err)
		assert.Equal(t, domain.IncidentStatusDraft, next)
		assert.True(t, errors.Is(err, ErrInvalidTransition))

		var transitionErr *InvalidTransitionError
		require.ErrorAs(t, err, &transitionErr)
		assert.Equal(t, domain.IncidentStatusDraft, transitionErr.From)
		assert.Equal(t, domain.IncidentStatusClosed, transitionErr.To)
		assert.Contains(t, err.Error(), `"draft"`)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := Transition(domain.IncidentStatus("archived"), domain.IncidentStatusClosed)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestSelectableNextStates(t *testing.T) {
	tests := []struct {
		name              string
		from              domain.IncidentStatus
		requiresReporting bool
		expected          []domain.IncidentStatus
	}{
		{
			name:              "reportable detected",
			from:              domain.IncidentStatusDetected,
			requiresReporting: true,
			expected:          []domain.IncidentStatus{domain.IncidentStatusInitialSubmitted, domain.IncidentStatusClosed},
		},
		{
			name:              "minor detected can only close",
			from:              domain.IncidentStatusDetected,
			requiresReporting: false,
			expected:          []domain.IncidentStatus{domain.IncidentStatusClosed},
		},
		{
			name:              "minor draft still confirms detection",
			from:              domain.IncidentStatusDraft,
			requiresReporting: false,
			expected:          []domain.IncidentStatus{domain.IncidentStatusDetected},
		},
		{
			name:              "closed offers nothing",
			from:              domain.IncidentStatusClosed,
			requiresReporting: true,
			expected:          nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectableNextStates(tt.from, tt.requiresReporting)
			if tt.expected == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSubmittedStages(t *testing.T) {
	assert.Empty(t, SubmittedStages(domain.IncidentStatusDetected))
	assert.Equal(t, []domain.ReportStage{domain.ReportStageInitial}, SubmittedStages(domain.IncidentStatusInitialSubmitted))
	assert.Equal(t, domain.ReportStages(), SubmittedStages(domain.IncidentStatusFinalSubmitted))

	assert.True(t, IsStageSubmitted(domain.IncidentStatusIntermediateSubmitted, domain.ReportStageInitial))
	assert.False(t, IsStageSubmitted(domain.IncidentStatusIntermediateSubmitted, domain.ReportStageFinal))
}

func TestIsReportSubmission(t *testing.T) {
	assert.True(t, IsReportSubmission(domain.IncidentStatusInitialSubmitted))
	assert.False(t, IsReportSubmission(domain.IncidentStatusDetected))
	assert.False(t, IsReportSubmission(domain.IncidentStatusClosed))
}
