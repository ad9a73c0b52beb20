// Package classification evaluates incident impact against the DORA materiality thresholds.
package classification

import (
	"strings"

	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
)

// Threshold keys.
const (
	KeyClientsAffectedMajor         = "clients_affected_major"
	KeyClientsAffectedSignificant   = "clients_affected_significant"
	KeyTransactionsValueMajor       = "transactions_value_major"
	KeyTransactionsValueSignificant = "transactions_value_significant"
	KeyCriticalFunctionsAffected    = "critical_functions_affected"
	KeyDataBreach                   = "data_breach"
	KeyEconomicImpactSignificant    = "economic_impact_significant"
	KeyReputationalImpactHigh       = "reputational_impact_high"
)

// Threshold limits.
const (
	ClientsMajorPercent        = 10.0
	ClientsSignificantPercent  = 5.0
	TransactionsMajorEUR       = 1_000_000.0
	TransactionsSignificantEUR = 100_000.0
	EconomicSignificantEUR     = 100_000.0
)

// ThresholdDefinition is one row of the threshold table.
type ThresholdDefinition struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Description string      `json:"description"`
	Tier        domain.Tier `json:"tier"`

	// Matches reports whether the measurement crosses the threshold. Absent fields never match.
	Matches func(m domain.ImpactMeasurement) bool `json:"-"`
	// Measure renders the measured value for display.
	Measure func(m domain.ImpactMeasurement) string `json:"-"`
}

// Thresholds returns the threshold table in evaluation order.
// A fresh slice is returned on every call.
func Thresholds() []ThresholdDefinition {
	return []ThresholdDefinition{
		{
			Key:         KeyClientsAffectedMajor,
			Label:       "Clients affected",
			Description: "At least 10% of clients affected",
			Tier:        domain.TierMajor,
			Matches: func(m domain.ImpactMeasurement) bool {
				return m.ClientsAffectedPercentage != nil && *m.ClientsAffectedPercentage >= ClientsMajorPercent
			},
			Measure: measurePercent(func(m domain.ImpactMeasurement) *float64 { return m.ClientsAffectedPercentage }),
		},
		{
			Key:         KeyClientsAffectedSignificant,
			Label:       "Clients affected",
			Description: "Between 5% and 10% of clients affected",
			Tier:        domain.TierSignificant,
			Matches: func(m domain.ImpactMeasurement) bool {
				p := m.ClientsAffectedPercentage
				return p != nil && *p >= ClientsSignificantPercent && *p < ClientsMajorPercent
			},
			Measure: measurePercent(func(m domain.ImpactMeasurement) *float64 { return m.ClientsAffectedPercentage }),
		},
		{
			Key:         KeyTransactionsValueMajor,
			Label:       "Transactions value affected",
			Description: "At least EUR 1,000,000 of transactions affected",
			Tier:        domain.TierMajor,
			Matches: func(m domain.ImpactMeasurement) bool {
				return m.TransactionsValueAffected != nil && *m.TransactionsValueAffected >= TransactionsMajorEUR
			},
			Measure: measureEUR(func(m domain.ImpactMeasurement) *float64 { return m.TransactionsValueAffected }),
		},
		{
			Key:         KeyTransactionsValueSignificant,
			Label:       "Transactions value affected",
			Description: "Between EUR 100,000 and EUR 1,000,000 of transactions affected",
			Tier:        domain.TierSignificant,
			Matches: func(m domain.ImpactMeasurement) bool {
				v := m.TransactionsValueAffected
				return v != nil && *v >= TransactionsSignificantEUR && *v < TransactionsMajorEUR
			},
			Measure: measureEUR(func(m domain.ImpactMeasurement) *float64 { return m.TransactionsValueAffected }),
		},
		{
			Key:         KeyCriticalFunctionsAffected,
			Label:       "Critical functions affected",
			Description: "One or more critical or important functions affected",
			Tier:        domain.TierMajor,
			Matches: func(m domain.ImpactMeasurement) bool {
				return len(m.CriticalFunctionsAffected) > 0
			},
			Measure: func(m domain.ImpactMeasurement) string {
				return strings.Join(m.CriticalFunctionsAffected, ", ")
			},
		},
		{
			Key:         KeyDataBreach,
			Label:       "Data breach",
			Description: "Loss of availability, authenticity, integrity or confidentiality of data",
			Tier:        domain.TierMajor,
			Matches: func(m domain.ImpactMeasurement) bool {
				return m.DataBreach != nil && *m.DataBreach
			},
			Measure: measureBreach,
		},
		{
			Key:         KeyEconomicImpactSignificant,
			Label:       "Economic impact",
			Description: "Direct and indirect costs of at least EUR 100,000",
			Tier:        domain.TierSignificant,
			Matches: func(m domain.ImpactMeasurement) bool {
				return m.EconomicImpact != nil && *m.EconomicImpact >= EconomicSignificantEUR
			},
			Measure: measureEUR(func(m domain.ImpactMeasurement) *float64 { return m.EconomicImpact }),
		},
		{
			Key:         KeyReputationalImpactHigh,
			Label:       "Reputational impact",
			Description: "High reputational impact",
			Tier:        domain.TierSignificant,
			Matches: func(m domain.ImpactMeasurement) bool {
				return m.ReputationalImpact != nil && *m.ReputationalImpact == domain.ReputationalImpactHigh
			},
			Measure: func(m domain.ImpactMeasurement) string {
				if m.ReputationalImpact == nil {
					return ""
				}
				return string(*m.ReputationalImpact)
			},
		},
	}
}

// ThresholdByKey looks up a single threshold definition.
func ThresholdByKey(key string) (ThresholdDefinition, bool) {
	for _, def := range Thresholds() {
		if def.Key == key {
			return def, true
		}
	}
	return ThresholdDefinition{}, false
}
