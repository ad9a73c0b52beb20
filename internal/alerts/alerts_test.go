package alerts

import (
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAlert(remaining time.Duration) Alert {
	due := testNow.Add(remaining)
	return Alert{
		IncidentID: "0b7e1b9c-7f42-4c1f-9d11-6a3c2c1d5e10",
		Title:      "Card payments outage",
		Tier:       domain.TierMajor,
		Stage:      domain.ReportStageInitial,
		Deadline:   due,
		Countdown:  deadline.Project(due, testNow),
	}
}
