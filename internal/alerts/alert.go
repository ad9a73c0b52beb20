// Package alerts delivers reporting-deadline alerts for open incidents.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// Alert announces that a report stage of an incident is approaching or past its deadline.
type Alert struct {
	IncidentID string
	Title      string
	Tier       domain.Tier
	Stage      domain.ReportStage
	Deadline   time.Time
	Countdown  deadline.Countdown
	// URL links to the incident, empty when no base URL is configured.
	URL string
}

// Key identifies the alert for de-duplication. An incident stage alerts once per urgency band.
func (a Alert) Key() string {
	return fmt.Sprintf("%s/%s/%s", a.IncidentID, a.Stage, a.Countdown.Urgency)
}

// Message is a rendered alert ready for delivery.
type Message struct {
	Subject string
	Body    string
	Alert   Alert
}

// Sender delivers rendered alerts to one destination.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Deduper remembers which alerts were already delivered.
type Deduper interface {
	// Claim returns true if key was not claimed within ttl and claims it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets a claim so the alert can be delivered again.
	Release(ctx context.Context, key string) error
}
