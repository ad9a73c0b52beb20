package classification

import (
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// TriggeredThreshold is a threshold the measurement crossed, with the value that crossed it.
type TriggeredThreshold struct {
	ThresholdDefinition
	MeasuredValue string `json:"measured_value"`
}

// Result is the outcome of evaluating an impact measurement.
type Result struct {
	Classification    domain.Tier           `json:"classification"`
	Triggered         []TriggeredThreshold  `json:"triggered_thresholds"`
	NotTriggered      []ThresholdDefinition `json:"not_triggered_thresholds"`
	RequiresReporting bool                  `json:"requires_reporting"`
	Deadlines         *deadline.Set         `json:"deadlines,omitempty"`
}

// TriggeredKeys returns the keys of the triggered thresholds in table order.
func (r Result) TriggeredKeys() []string {
	keys := make([]string, 0, len(r.Triggered))
	for _, t := range r.Triggered {
		keys = append(keys, t.Key)
	}
	return keys
}

// Evaluate classifies the measurement as the most severe tier among the triggered thresholds.
// Deadlines are populated only when the tier requires reporting and referenceTime is set.
func Evaluate(m domain.ImpactMeasurement, referenceTime *time.Time) Result {
	result := Result{
		Classification: domain.TierMinor,
		Triggered:      []TriggeredThreshold{},
		NotTriggered:   []ThresholdDefinition{},
	}

	for _, def := range Thresholds() {
		if !def.Matches(m) {
			result.NotTriggered = append(result.NotTriggered, def)
			continue
		}

		result.Triggered = append(result.Triggered, TriggeredThreshold{
			ThresholdDefinition: def,
			MeasuredValue:       def.Measure(m),
		})
		if def.Tier.Rank() > result.Classification.Rank() {
			result.Classification = def.Tier
		}
	}

	result.RequiresReporting = result.Classification.RequiresReporting()
	if result.RequiresReporting && referenceTime != nil {
		set := deadline.Calculate(*referenceTime, result.Classification)
		result.Deadlines = &set
	}

	return result
}
