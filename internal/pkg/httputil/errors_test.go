package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotFound = errors.New("incident not found")

type fieldError map[string]string

func (f fieldError) Error() string                  { return "validation failed" }
func (f fieldError) FieldErrors() map[string]string { return f }

func TestHandleError(t *testing.T) {
	mappings := []ErrorMapping{
		{Error: errNotFound, Status: http.StatusNotFound},
	}

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantFields  map[string]string
	}{
		{
			name:        "mapped sentinel keeps wrapped message",
			err:         fmt.Errorf("get incident: %w", errNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "get incident: incident not found",
		},
		{
			name:        "field errors",
			err:         fmt.Errorf("create: %w", fieldError{"justification": "too short"}),
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "validation error",
			wantFields:  map[string]string{"justification": "too short"},
		},
		{
			name:        "unmapped error is hidden",
			err:         errors.New("pq: connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(context.Background(), rec, tt.err, mappings)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Error struct {
					Message string            `json:"message"`
					Fields  map[string]string `json:"fields"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMessage, body.Error.Message)
			assert.Equal(t, tt.wantFields, body.Error.Fields)
		})
	}
}
