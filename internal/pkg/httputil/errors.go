package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/FedericoTs/dora-comply-sub000/internal/pkg/ctxlog"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string // if empty, uses err.Error()
}

// FieldErrorer is implemented by errors that carry per-field validation messages.
type FieldErrorer interface {
	error
	FieldErrors() map[string]string
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// Errors carrying field details are answered with 422 before mappings are consulted.
// If no mapping matches, logs the error and returns 500 Internal Server Error.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	var fe FieldErrorer
	if errors.As(err, &fe) {
		FieldErrors(w, http.StatusUnprocessableEntity, fe.FieldErrors())
		return
	}

	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, m.Status, msg)
			return
		}
	}
	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
