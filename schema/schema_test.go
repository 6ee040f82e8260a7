package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityInformation, SeverityWarning)
	assert.Less(t, SeverityWarning, SeverityError)
	assert.Less(t, SeverityError, SeverityFatal)

	assert.False(t, SeverityInformation.IsBlocking())
	assert.False(t, SeverityWarning.IsBlocking())
	assert.True(t, SeverityError.IsBlocking())
	assert.True(t, SeverityFatal.IsBlocking())
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in      string
		want    Severity
		wantErr bool
	}{
		{"information", SeverityInformation, false},
		{"WARNING", SeverityWarning, false},
		{" error ", SeverityError, false},
		{"Fatal", SeverityFatal, false},
		{"critical", SeverityInformation, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSeverity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityJSON(t *testing.T) {
	issue := ValidationIssue{Severity: SeverityError, Code: "required", Description: "missing", Location: "Patient.name"}
	data, err := json.Marshal(issue)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"severity":"error"`)

	var decoded ValidationIssue
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, issue, decoded)
}

func TestNewValidationResult(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		issues       []ValidationIssue
		wantValid    bool
		wantWarnings bool
	}{
		{"no issues", nil, true, false},
		{"information only", []ValidationIssue{{Severity: SeverityInformation}}, true, false},
		{"warning only", []ValidationIssue{{Severity: SeverityWarning}}, true, true},
		{"error", []ValidationIssue{{Severity: SeverityError}}, false, false},
		{"fatal and warning", []ValidationIssue{{Severity: SeverityWarning}, {Severity: SeverityFatal}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewValidationResult("a.json", "Patient", "p1", []string{"p"}, tt.issues, time.Millisecond, now)
			assert.Equal(t, tt.wantValid, r.IsValid)
			assert.Equal(t, tt.wantWarnings, r.HasWarnings)
			assert.NotNil(t, r.Issues)
		})
	}
}

func TestNewValidationResultCopiesIssues(t *testing.T) {
	issues := []ValidationIssue{{Severity: SeverityWarning, Description: "first"}}
	r := NewValidationResult("a.json", "Patient", "", nil, issues, 0, time.Now())
	issues[0].Description = "changed"
	assert.Equal(t, "first", r.Issues[0].Description)
}

func TestWithSummaryLeavesReceiver(t *testing.T) {
	report := BatchValidationReport{BatchName: "b", Summary: ValidationSummary{TotalResources: 2}}
	decided := report.WithSummary(ValidationSummary{TotalResources: 2, OverallSuccess: true})
	assert.False(t, report.Summary.OverallSuccess)
	assert.True(t, decided.Summary.OverallSuccess)
}

func TestNewBatchValidationProgress(t *testing.T) {
	p := NewBatchValidationProgress(1, 4, "a.json")
	assert.Equal(t, 25.0, p.ProgressPercentage)
	assert.Equal(t, 0.0, NewBatchValidationProgress(0, 0, "").ProgressPercentage)
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "validation-report-20240501-120000.json", ReportFileName(JSONOut, "20240501-120000"))
	assert.Equal(t, "validation-report-20240501-120000.txt", ReportFileName(TextOut, "20240501-120000"))
	assert.Equal(t, "validation-report-20240501-120000.html", ReportFileName(HTMLOut, "20240501-120000"))
}
