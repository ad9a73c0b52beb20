// Package deadline computes DORA reporting deadlines and projects live countdowns.
package deadline

import (
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// Statutory report offsets from detection time. Fixed hour offsets, not calendar aware.
const (
	InitialOffset      = 4 * time.Hour
	IntermediateOffset = 72 * time.Hour
	FinalOffset        = 30 * 24 * time.Hour
)

// Set holds the absolute deadlines of an incident's reports.
// A nil field means the stage has no deadline for the tier.
type Set struct {
	Initial      *time.Time `json:"initial,omitempty"`
	Intermediate *time.Time `json:"intermediate,omitempty"`
	Final        *time.Time `json:"final,omitempty"`
}

// IsEmpty returns true if no stage has a deadline.
func (s Set) IsEmpty() bool {
	return s.Initial == nil && s.Intermediate == nil && s.Final == nil
}

// For returns the deadline of a stage, or nil when the stage has none.
func (s Set) For(stage domain.ReportStage) *time.Time {
	switch stage {
	case domain.ReportStageInitial:
		return s.Initial
	case domain.ReportStageIntermediate:
		return s.Intermediate
	case domain.ReportStageFinal:
		return s.Final
	}
	return nil
}

// Calculate returns the report deadlines for an incident detected at detectedAt.
//
// Major incidents get all three deadlines, significant incidents have no
// initial (4h) report, minor incidents have none. A tier outside the known
// set is treated as major.
func Calculate(detectedAt time.Time, tier domain.Tier) Set {
	switch tier {
	case domain.TierMinor:
		return Set{}
	case domain.TierSignificant:
		return Set{
			Intermediate: at(detectedAt, IntermediateOffset),
			Final:        at(detectedAt, FinalOffset),
		}
	default:
		return Set{
			Initial:      at(detectedAt, InitialOffset),
			Intermediate: at(detectedAt, IntermediateOffset),
			Final:        at(detectedAt, FinalOffset),
		}
	}
}

func at(base time.Time, offset time.Duration) *time.Time {
	t := base.Add(offset)
	return &t
}
