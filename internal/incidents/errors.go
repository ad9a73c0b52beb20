package incidents

import (
	"errors"
	"sort"
	"strings"
)

// Incident errors.
var (
	ErrIncidentNotFound     = errors.New("incident not found")
	ErrIncidentClosed       = errors.New("incident is closed")
	ErrStatusConflict       = errors.New("incident status changed concurrently")
	ErrVersionConflict      = errors.New("incident was modified concurrently")
	ErrReportingNotRequired = errors.New("incident does not require regulatory reporting")
)

// ValidationError reports request fields that failed domain validation.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError wraps field messages keyed by request field.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation error: " + strings.Join(keys, ", ")
}

// FieldErrors returns the per-field messages.
func (e *ValidationError) FieldErrors() map[string]string {
	return e.Fields
}
