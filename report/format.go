// Package report renders validation reports and routing recommendations for
// the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/omlkit/oml/check"
	"github.com/omlkit/oml/playbook"
)

// Formatter renders a validation report.
type Formatter interface {
	Format(report *check.Report) error
	Recommendations(typeName string, recs []check.Recommendation) error
}

// NewFormatter creates a formatter by name.
func NewFormatter(name string, w io.Writer) Formatter {
	switch name {
	case "json":
		return NewJSONFormatter(w)
	default:
		return NewTextFormatter(w)
	}
}

// -----------------------------------------------------------------------------
// Text Formatter
// -----------------------------------------------------------------------------

var (
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	fileStyle = lipgloss.NewStyle().
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)
)

// TextFormatter renders human-readable output, colored when the writer is a
// terminal.
type TextFormatter struct {
	w     io.Writer
	color bool
}

// NewTextFormatter creates a text formatter. Color is enabled only when w is
// a TTY.
func NewTextFormatter(w io.Writer) *TextFormatter {
	color := false
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		color = true
	}

	return &TextFormatter{w: w, color: color}
}

// Format prints violations grouped by file, then a summary line.
func (t *TextFormatter) Format(report *check.Report) error {
	byFile := map[string][]check.Violation{}
	for _, v := range report.Violations {
		byFile[v.File] = append(byFile[v.File], v)
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}

	sort.Strings(files)

	for _, file := range files {
		_, _ = fmt.Fprintf(t.w, "%s\n", t.style(fileStyle, file))

		for _, v := range byFile[file] {
			rule := ""
			if v.RuleID != "" {
				rule = " [" + v.RuleID + "]"
			}

			_, _ = fmt.Fprintf(t.w, "  %s %s %s%s\n",
				t.severityLabel(v.Severity),
				v.Instance,
				v.Message,
				rule,
			)
		}

		_, _ = fmt.Fprintln(t.w)
	}

	errors := report.Count(playbook.SeverityError)
	warnings := report.Count(playbook.SeverityWarning)

	if report.Valid() && warnings == 0 {
		_, _ = fmt.Fprintf(t.w, "%s no violations\n", t.style(successStyle, "OK"))

		return nil
	}

	label := t.style(successStyle, "OK")
	if !report.Valid() {
		label = t.style(errorStyle, "FAIL")
	}

	_, _ = fmt.Fprintf(t.w, "%s %d errors, %d warnings\n", label, errors, warnings)

	return nil
}

// Recommendations prints ranked placement candidates for a type.
func (t *TextFormatter) Recommendations(typeName string, recs []check.Recommendation) error {
	_, _ = fmt.Fprintf(t.w, "where to declare a new %s:\n", t.style(fileStyle, typeName))

	for _, r := range recs {
		_, _ = fmt.Fprintf(t.w, "  %3d%%  %s (%s)\n", r.Confidence, r.File, r.Reason)
	}

	return nil
}

func (t *TextFormatter) severityLabel(sev playbook.Severity) string {
	switch sev {
	case playbook.SeverityError:
		return t.style(errorStyle, "error")
	case playbook.SeverityWarning:
		return t.style(warningStyle, "warning")
	case playbook.SeverityInfo:
		return t.style(infoStyle, "info")
	default:
		return string(sev)
	}
}

func (t *TextFormatter) style(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}

	return s.Render(text)
}

// -----------------------------------------------------------------------------
// JSON Formatter
// -----------------------------------------------------------------------------

// JSONFormatter outputs the report as a single JSON document.
type JSONFormatter struct {
	enc *json.Encoder
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return &JSONFormatter{enc: enc}
}

type jsonViolation struct {
	Type     string `json:"type"`
	RuleID   string `json:"rule_id,omitempty"`
	File     string `json:"file"`
	Instance string `json:"instance"`
	Property string `json:"property,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type jsonReport struct {
	Violations []jsonViolation `json:"violations"`
	Errors     int             `json:"errors"`
	Warnings   int             `json:"warnings"`
	Valid      bool            `json:"valid"`
}

// Format outputs the full report.
func (j *JSONFormatter) Format(report *check.Report) error {
	out := jsonReport{
		Violations: make([]jsonViolation, 0, len(report.Violations)),
		Errors:     report.Count(playbook.SeverityError),
		Warnings:   report.Count(playbook.SeverityWarning),
		Valid:      report.Valid(),
	}

	for _, v := range report.Violations {
		out.Violations = append(out.Violations, jsonViolation{
			Type:     string(v.Type),
			RuleID:   v.RuleID,
			File:     v.File,
			Instance: v.Instance,
			Property: v.Property,
			Message:  v.Message,
			Severity: string(v.Severity),
		})
	}

	return j.enc.Encode(out)
}

type jsonRecommendation struct {
	File       string `json:"file"`
	Confidence int    `json:"confidence"`
	Priority   int    `json:"priority,omitempty"`
	Reason     string `json:"reason"`
}

// Recommendations outputs ranked placement candidates.
func (j *JSONFormatter) Recommendations(typeName string, recs []check.Recommendation) error {
	out := struct {
		Type            string               `json:"type"`
		Recommendations []jsonRecommendation `json:"recommendations"`
	}{Type: typeName}

	for _, r := range recs {
		out.Recommendations = append(out.Recommendations, jsonRecommendation{
			File:       r.File,
			Confidence: r.Confidence,
			Priority:   r.Priority,
			Reason:     r.Reason,
		})
	}

	return j.enc.Encode(out)
}
