//go:build integration

package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testJustification = "Impact was limited to an internal test tenant; no customer-facing payments failed."

type incidentResponse struct {
	ID                       string     `json:"id"`
	Title                    string     `json:"title"`
	Status                   string     `json:"status"`
	Classification           string     `json:"classification"`
	ClassificationCalculated string     `json:"classification_calculated"`
	ClassificationOverride   bool       `json:"classification_override"`
	Justification            *string    `json:"classification_override_justification"`
	DetectedAt               *time.Time `json:"detected_at"`
	ClosedAt                 *time.Time `json:"closed_at"`
	CreatedBy                string     `json:"created_by"`
	Version                  int64      `json:"version"`
}

type incidentOption func(map[string]interface{})

func withImpact(impact map[string]interface{}) incidentOption {
	return func(m map[string]interface{}) {
		m["impact"] = impact
	}
}

func withDetectedAt(at time.Time) incidentOption {
	return func(m map[string]interface{}) {
		m["detected_at"] = at.UTC().Format(time.RFC3339)
	}
}

func withOverride(tier string) incidentOption {
	return func(m map[string]interface{}) {
		m["override"] = map[string]interface{}{
			"enabled":       true,
			"tier":          tier,
			"justification": testJustification,
		}
	}
}

// majorImpact triggers the critical functions threshold.
func majorImpact() map[string]interface{} {
	return map[string]interface{}{
		"critical_functions_affected": []string{"payments"},
	}
}

// significantImpact triggers the economic impact threshold only.
func significantImpact() map[string]interface{} {
	return map[string]interface{}{
		"economic_impact": 150000,
	}
}

// createTestIncident creates a draft incident and returns it.
func createTestIncident(t *testing.T, client *testutil.Client, title string, opts ...incidentOption) incidentResponse {
	t.Helper()

	payload := map[string]interface{}{
		"title":       title,
		"description": "created by integration test",
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST("/api/v1/incidents", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var inc incidentResponse
	testutil.DecodeData(t, resp, &inc)
	return inc
}

// transition moves an incident to status and requires the expected response code.
func transition(t *testing.T, client *testutil.Client, id, status string, wantStatus int) {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents/"+id+"/transitions", map[string]string{"status": status})
	require.NoError(t, err)
	body := testutil.ReadBody(t, resp)
	require.Equal(t, wantStatus, resp.StatusCode, body)
}
