package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/fhirgate/core/agg"
	"github.com/huangsam/fhirgate/schema"
)

var testTime = time.Date(2024, 5, 1, 12, 30, 45, 0, time.UTC)

func sampleReport() schema.BatchValidationReport {
	issues := []schema.ValidationIssue{
		{Severity: schema.SeverityWarning, Code: "value", Description: "unexpected code", Location: "Patient.maritalStatus"},
		{Severity: schema.SeverityError, Code: "required", Description: "missing <script>name</script>", Location: "Patient.name"},
	}
	results := []schema.ValidationResult{
		schema.NewValidationResult("fixtures/ok.json", "Patient", "p1", []string{schema.DefaultProfileURL("Patient")}, nil, 3*time.Millisecond, testTime),
		schema.NewValidationResult("fixtures/bad.json", "Patient", "p2", []string{schema.DefaultProfileURL("Patient")}, issues, 5*time.Millisecond, testTime),
	}
	report := agg.BuildReport("fixtures", results, testTime, testTime.Add(2*time.Second), schema.RunConfiguration{
		PassThreshold: 95,
		Root:          "fixtures",
		Pattern:       "*.json",
		Workers:       2,
	})
	return report
}

func plain() Options {
	return Options{UseColors: false, Width: 160}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	report := sampleReport()
	data, err := Render(report, schema.JSONOut, plain())
	require.NoError(t, err)

	var decoded schema.BatchValidationReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, report, decoded)
}

func TestRenderCSV(t *testing.T) {
	data, err := Render(sampleReport(), schema.CSVOut, plain())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"resource", "status", "issues", "duration_ms"},
		{"fixtures/ok.json", "PASS", "0", "3"},
		{"fixtures/bad.json", "FAIL", "2", "5"},
	}, rows)
}

func TestRenderText(t *testing.T) {
	report := sampleReport()

	data, err := Render(report, schema.TextOut, plain())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "FHIR Validation Report: fixtures")
	assert.Contains(t, text, "2 total, 1 passed, 1 failed, 1 with warnings")
	assert.Contains(t, text, "Pass rate:  50.0%")
	assert.Contains(t, text, "fixtures/bad.json")
	assert.NotContains(t, text, "  - [ERROR]")

	opts := plain()
	opts.Verbose = true
	data, err = Render(report, schema.TextOut, opts)
	require.NoError(t, err)
	verbose := string(data)
	assert.Contains(t, verbose, "  - [ERROR] required Patient.name: missing <script>name</script>")
	assert.Contains(t, verbose, "  - [WARNING] value Patient.maritalStatus: unexpected code")
}

func TestRenderTextKeepsIssueOrder(t *testing.T) {
	opts := plain()
	opts.Verbose = true
	data, err := Render(sampleReport(), schema.TextOut, opts)
	require.NoError(t, err)

	warning := bytes.Index(data, []byte("unexpected code"))
	blocking := bytes.Index(data, []byte("missing <script>name</script>"))
	require.NotEqual(t, -1, warning)
	require.NotEqual(t, -1, blocking)
	assert.Less(t, warning, blocking)
}

func TestRenderTextEmpty(t *testing.T) {
	report := agg.BuildReport("empty", nil, testTime, testTime, schema.RunConfiguration{})
	data, err := Render(report, schema.TextOut, plain())
	require.NoError(t, err)
	assert.Contains(t, string(data), "No resources were validated.")
}

func TestRenderHTMLEscapes(t *testing.T) {
	data, err := Render(sampleReport(), schema.HTMLOut, plain())
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "<title>FHIR Validation Report: fixtures</title>")
	assert.Contains(t, html, "&lt;script&gt;name&lt;/script&gt;")
	assert.NotContains(t, html, "<script>name")
	assert.Contains(t, html, "50.0%")
}

func TestRenderParquet(t *testing.T) {
	data, err := Render(sampleReport(), schema.ParquetOut, plain())
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(sampleReport(), schema.OutputFormat("yaml"), plain())
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestRenderDoesNotMutateReport(t *testing.T) {
	report := sampleReport()
	before, err := json.Marshal(report)
	require.NoError(t, err)

	for _, format := range schema.AllOutputFormats {
		_, err := Render(report, format, Options{Verbose: true})
		require.NoError(t, err, "format %s", format)
	}

	after, err := json.Marshal(report)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestWriteReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	formats := append([]schema.OutputFormat{}, schema.AllOutputFormats...)
	formats = append(formats, "yaml")

	outcomes := WriteReports(sampleReport(), formats, dir, testTime, plain())
	require.Len(t, outcomes, len(formats))
	assert.Equal(t, 1, FailedOutcomes(outcomes))

	for _, outcome := range outcomes {
		if outcome.Format == "yaml" {
			assert.True(t, errors.Is(outcome.Err, ErrUnknownFormat))
			continue
		}
		require.NoError(t, outcome.Err, "format %s", outcome.Format)
		assert.Equal(t, filepath.Join(dir, schema.ReportFileName(outcome.Format, "20240501-123045")), outcome.Path)
		info, err := os.Stat(outcome.Path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	txt, err := os.ReadFile(filepath.Join(dir, "validation-report-20240501-123045.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(txt), "\x1b[", "file output must not carry ANSI colors")
}

func TestWriteReportsExclusiveCreate(t *testing.T) {
	dir := t.TempDir()
	formats := []schema.OutputFormat{schema.JSONOut, schema.CSVOut}

	first := WriteReports(sampleReport(), formats, dir, testTime, plain())
	assert.Equal(t, 0, FailedOutcomes(first))

	second := WriteReports(sampleReport(), formats, dir, testTime, plain())
	require.Len(t, second, 2)
	for _, outcome := range second {
		assert.True(t, errors.Is(outcome.Err, os.ErrExist), "format %s: %v", outcome.Format, outcome.Err)
	}
}

func TestWriteNarrativeMatchesText(t *testing.T) {
	report := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, WriteNarrative(&buf, report, plain()))

	data, err := Render(report, schema.TextOut, plain())
	require.NoError(t, err)
	assert.Equal(t, string(data), buf.String())
}

func TestRenderCISummary(t *testing.T) {
	passed := schema.CiSummary{
		ExitCode:  0,
		Passed:    true,
		Threshold: 95,
		Decided:   schema.ValidationSummary{TotalResources: 4, PassedResources: 4, PassRate: 100, OverallSuccess: true},
	}
	out := RenderCISummary(passed, false)
	assert.Contains(t, out, "✅ Policy check passed")
	assert.Contains(t, out, "Pass rate: 100.0% (threshold 95.0%)")
	assert.Contains(t, out, "Exit code: 0")
	assert.Contains(t, out, "╭")

	failed := passed
	failed.Passed = false
	failed.ExitCode = 1
	out = RenderCISummary(failed, false)
	assert.Contains(t, out, "❌ Policy check failed")
	assert.Contains(t, out, "Exit code: 1")
}

func TestPrintProgress(t *testing.T) {
	var buf bytes.Buffer
	PrintProgress(&buf, schema.NewBatchValidationProgress(2, 4, "fixtures/a.json"), 120)
	assert.Equal(t, "[2/4] 50% fixtures/a.json\n", buf.String())
}
