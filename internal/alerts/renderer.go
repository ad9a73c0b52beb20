package alerts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/FedericoTs/dora-comply-sub000/internal/deadline"
	"github.com/FedericoTs/dora-comply-sub000/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const alertTemplate = "templates/alert.tmpl"

// Renderer renders alerts into messages.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded alert template.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"title":        titleCase,
		"upper":        strings.ToUpper,
		"formatTime":   formatTime,
		"remaining":    deadline.FormatRemaining,
		"stageLabel":   stageLabel,
		"urgencyEmoji": urgencyEmoji,
	}

	content, err := templatesFS.ReadFile(alertTemplate)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", alertTemplate, err)
	}

	tmpl, err := template.New("alert").Funcs(funcMap).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", alertTemplate, err)
	}

	return &Renderer{tmpl: tmpl}, nil
}

// Render builds the subject and body for an alert.
func (r *Renderer) Render(a Alert) (Message, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, a); err != nil {
		return Message{}, fmt.Errorf("execute alert template: %w", err)
	}

	return Message{
		Subject: renderSubject(a),
		Body:    strings.TrimSpace(buf.String()),
		Alert:   a,
	}, nil
}

func renderSubject(a Alert) string {
	state := "due in " + deadline.FormatRemaining(a.Countdown)
	if a.Countdown.IsOverdue {
		state = "OVERDUE"
	}
	return fmt.Sprintf("[DORA %s] %s %s: %s", titleCase(string(a.Tier)), titleCase(stageLabel(a.Stage)), state, a.Title)
}

var titleCaser = cases.Title(language.English)

func titleCase(s string) string {
	return titleCaser.String(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}

func stageLabel(stage domain.ReportStage) string {
	return string(stage) + " report"
}

func urgencyEmoji(u deadline.Urgency) string {
	switch u {
	case deadline.UrgencyOverdue:
		return "⛔"
	case deadline.UrgencyCritical:
		return "🔴"
	case deadline.UrgencyHigh:
		return "🟠"
	case deadline.UrgencyMedium:
		return "🟡"
	default:
		return "⚪"
	}
}
