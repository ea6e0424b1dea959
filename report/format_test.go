package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omlkit/oml/check"
	"github.com/omlkit/oml/playbook"
	"github.com/omlkit/oml/report"
)

func sampleReport() *check.Report {
	return &check.Report{
		Violations: []check.Violation{
			{
				Type:     check.MissingProperty,
				RuleID:   "component-has-mass",
				File:     "system_components.oml",
				Instance: "sys:comp2",
				Property: "base:mass",
				Message:  "required property base:mass has no assertion",
				Severity: playbook.SeverityError,
			},
			{
				Type:     check.WrongContainer,
				File:     "interfaces.oml",
				Instance: "if:stray",
				Message:  "instance type not allowed in interfaces.oml; allowed in system_components.oml",
				Severity: playbook.SeverityWarning,
			},
		},
	}
}

func TestTextFormatterGroupsByFile(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := report.NewTextFormatter(&buf)
	require.NoError(t, f.Format(sampleReport()))

	out := buf.String()

	// A buffer is not a TTY, so output carries no escape codes.
	assert.NotContains(t, out, "\x1b[")

	assert.Contains(t, out, "system_components.oml")
	assert.Contains(t, out, "interfaces.oml")
	assert.Contains(t, out, "sys:comp2")
	assert.Contains(t, out, "[component-has-mass]")
	assert.Contains(t, out, "FAIL 1 errors, 1 warnings")
}

func TestTextFormatterCleanReport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := report.NewTextFormatter(&buf)
	require.NoError(t, f.Format(&check.Report{}))

	assert.Contains(t, buf.String(), "OK no violations")
}

func TestTextFormatterRecommendations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := report.NewTextFormatter(&buf)
	err := f.Recommendations("base:Component", []check.Recommendation{
		{File: "system_components.oml", Confidence: 100, Priority: 1, Reason: "explicit routing entry"},
		{File: "catch_all.oml", Confidence: 30, Reason: "matches allowed pattern"},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "base:Component")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "system_components.oml")
	assert.Contains(t, out, "explicit routing entry")
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := report.NewJSONFormatter(&buf)
	require.NoError(t, f.Format(sampleReport()))

	var decoded struct {
		Violations []struct {
			Type     string `json:"type"`
			RuleID   string `json:"rule_id"`
			Instance string `json:"instance"`
			Severity string `json:"severity"`
		} `json:"violations"`
		Errors   int  `json:"errors"`
		Warnings int  `json:"warnings"`
		Valid    bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Len(t, decoded.Violations, 2)
	assert.Equal(t, "missing_property", decoded.Violations[0].Type)
	assert.Equal(t, "component-has-mass", decoded.Violations[0].RuleID)
	assert.Equal(t, 1, decoded.Errors)
	assert.Equal(t, 1, decoded.Warnings)
	assert.False(t, decoded.Valid)
}

func TestJSONFormatterRecommendations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := report.NewJSONFormatter(&buf)
	err := f.Recommendations("base:Component", []check.Recommendation{
		{File: "system_components.oml", Confidence: 100, Priority: 1, Reason: "explicit routing entry"},
	})
	require.NoError(t, err)

	var decoded struct {
		Type            string `json:"type"`
		Recommendations []struct {
			File       string `json:"file"`
			Confidence int    `json:"confidence"`
		} `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "base:Component", decoded.Type)
	require.Len(t, decoded.Recommendations, 1)
	assert.Equal(t, 100, decoded.Recommendations[0].Confidence)
}

func TestNewFormatterSelection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	assert.IsType(t, &report.JSONFormatter{}, report.NewFormatter("json", &buf))
	assert.IsType(t, &report.TextFormatter{}, report.NewFormatter("text", &buf))
	assert.IsType(t, &report.TextFormatter{}, report.NewFormatter("", &buf))
}
