package classification

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// MinJustificationLength is the minimum number of characters in an override justification.
const MinJustificationLength = 50

// Field keys used in ValidationErrors.
const (
	FieldTier          = "tier"
	FieldJustification = "justification"
)

// OverrideRequest is a user's request to replace the calculated classification.
type OverrideRequest struct {
	Enabled       bool        `json:"enabled"`
	Tier          domain.Tier `json:"tier,omitempty"`
	Justification string      `json:"justification,omitempty"`
}

// Override is an accepted manual classification.
type Override struct {
	Tier          domain.Tier `json:"tier"`
	Justification string      `json:"justification"`
}

// Effective is the classification in force after applying an optional override.
// A nil Override means the calculated tier applies.
type Effective struct {
	Calculated domain.Tier `json:"calculated"`
	Tier       domain.Tier `json:"tier"`
	Override   *Override   `json:"override,omitempty"`
}

// IsOverridden reports whether a manual override is in force.
func (e Effective) IsOverridden() bool {
	return e.Override != nil
}

// Record converts the effective classification to its persisted form.
func (e Effective) Record() domain.ClassificationRecord {
	rec := domain.ClassificationRecord{
		Classification:           e.Tier,
		ClassificationCalculated: e.Calculated,
	}
	if e.Override != nil {
		justification := e.Override.Justification
		rec.ClassificationOverride = true
		rec.ClassificationOverrideJustification = &justification
	}
	return rec
}

// FromRecord rebuilds the effective classification from its persisted form.
func FromRecord(rec domain.ClassificationRecord) Effective {
	e := Effective{Calculated: rec.ClassificationCalculated, Tier: rec.Classification}
	if rec.ClassificationOverride {
		o := &Override{Tier: rec.Classification}
		if rec.ClassificationOverrideJustification != nil {
			o.Justification = *rec.ClassificationOverrideJustification
		}
		e.Override = o
	}
	return e
}

// ValidationErrors maps a request field to a human-readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ApplyOverride validates the request and returns the effective classification.
// A disabled request yields the calculated tier and discards any justification.
// On validation failure the returned Effective carries the calculated tier.
func ApplyOverride(calculated domain.Tier, req OverrideRequest) (Effective, ValidationErrors) {
	noOverride := Effective{Calculated: calculated, Tier: calculated}
	if !req.Enabled {
		return noOverride, nil
	}

	errs := ValidationErrors{}
	if !req.Tier.IsValid() {
		errs[FieldTier] = "must be one of major, significant, minor"
	}

	justification := strings.TrimSpace(req.Justification)
	if utf8.RuneCountInString(justification) < MinJustificationLength {
		errs[FieldJustification] = "must be at least 50 characters"
	}

	if len(errs) > 0 {
		return noOverride, errs
	}

	return Effective{
		Calculated: calculated,
		Tier:       req.Tier,
		Override:   &Override{Tier: req.Tier, Justification: justification},
	}, nil
}
