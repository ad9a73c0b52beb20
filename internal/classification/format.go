package classification

import (
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// FormatEUR renders a euro amount rounded to whole euros with thousands grouping.
func FormatEUR(v float64) string {
	return newPrinter().Sprintf("€%.0f", v)
}

// FormatPercent renders a percentage with one decimal.
func FormatPercent(v float64) string {
	return newPrinter().Sprintf("%.1f%%", v)
}

func measurePercent(field func(domain.ImpactMeasurement) *float64) func(domain.ImpactMeasurement) string {
	return func(m domain.ImpactMeasurement) string {
		v := field(m)
		if v == nil {
			return ""
		}
		return FormatPercent(*v)
	}
}

func measureEUR(field func(domain.ImpactMeasurement) *float64) func(domain.ImpactMeasurement) string {
	return func(m domain.ImpactMeasurement) string {
		v := field(m)
		if v == nil {
			return ""
		}
		return FormatEUR(*v)
	}
}

func measureBreach(m domain.ImpactMeasurement) string {
	if m.DataBreach == nil || !*m.DataBreach {
		return "no"
	}
	if m.DataRecordsAffected == nil {
		return "yes"
	}
	return newPrinter().Sprintf("yes (%d records)", *m.DataRecordsAffected)
}
