package schema

import (
	"slices"
	"time"
)

// ValidationIssue is one conformance finding.
type ValidationIssue struct {
	Severity    Severity `json:"severity"`
	Code        string   `json:"code,omitempty"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
}

// ValidationResult is the outcome of validating exactly one document.
// Use NewValidationResult so that IsValid and HasWarnings stay consistent with Issues.
type ValidationResult struct {
	ResourceName       string            `json:"resourceName"`
	ResourceType       string            `json:"resourceType,omitempty"`
	ResourceID         string            `json:"resourceId,omitempty"`
	IsValid            bool              `json:"isValid"`
	HasWarnings        bool              `json:"hasWarnings"`
	Issues             []ValidationIssue `json:"issues"`
	ProfileURLs        []string          `json:"profileUrls"`
	ValidationDuration time.Duration     `json:"validationDuration"`
	Timestamp          time.Time         `json:"timestamp"`
}

// NewValidationResult builds a result and derives its validity flags from the issues.
// The issue and profile slices are copied so later changes by the caller are not observed.
func NewValidationResult(name, resourceType, resourceID string, profiles []string, issues []ValidationIssue, duration time.Duration, ts time.Time) ValidationResult {
	ownIssues := slices.Clone(issues)
	if ownIssues == nil {
		ownIssues = []ValidationIssue{}
	}
	return ValidationResult{
		ResourceName:       name,
		ResourceType:       resourceType,
		ResourceID:         resourceID,
		IsValid:            !anySeverity(ownIssues, func(s Severity) bool { return s.IsBlocking() }),
		HasWarnings:        anySeverity(ownIssues, func(s Severity) bool { return s == SeverityWarning }),
		Issues:             ownIssues,
		ProfileURLs:        slices.Clone(profiles),
		ValidationDuration: duration,
		Timestamp:          ts,
	}
}

// CountBySeverity returns how many issues of the given severity the result carries.
func (r ValidationResult) CountBySeverity(sev Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}

// StatusLabel returns PASS or FAIL.
func (r ValidationResult) StatusLabel() string {
	if r.IsValid {
		return "PASS"
	}
	return "FAIL"
}

func anySeverity(issues []ValidationIssue, pred func(Severity) bool) bool {
	for _, issue := range issues {
		if pred(issue.Severity) {
			return true
		}
	}
	return false
}

// ValidationSummary is the derived, read-only view over a batch.
type ValidationSummary struct {
	TotalResources   int     `json:"totalResources"`
	PassedResources  int     `json:"passedResources"`
	FailedResources  int     `json:"failedResources"`
	WarningResources int     `json:"warningResources"`
	TotalIssues      int     `json:"totalIssues"`
	PassRate         float64 `json:"passRate"`
	OverallSuccess   bool    `json:"overallSuccess"`
}

// RunConfiguration captures the parameters a batch was run with.
type RunConfiguration struct {
	PassThreshold float64        `json:"passThreshold"`
	Profiles      []string       `json:"profiles,omitempty"`
	Root          string         `json:"root,omitempty"`
	Pattern       string         `json:"pattern,omitempty"`
	Workers       int            `json:"workers"`
	Normalize     bool           `json:"normalize"`
	Formats       []OutputFormat `json:"formats,omitempty"`
}

// BatchValidationReport aggregates every result of one run.
type BatchValidationReport struct {
	RunID               string             `json:"runId"`
	BatchName           string             `json:"batchName"`
	Results             []ValidationResult `json:"results"`
	ValidationStartTime time.Time          `json:"validationStartTime"`
	ValidationEndTime   time.Time          `json:"validationEndTime"`
	TotalDuration       time.Duration      `json:"totalDuration"`
	Summary             ValidationSummary  `json:"summary"`
	Configuration       RunConfiguration   `json:"configuration"`
}

// WithSummary returns a shallow copy of the report carrying the given summary.
// The receiver is left untouched.
func (r BatchValidationReport) WithSummary(summary ValidationSummary) BatchValidationReport {
	r.Summary = summary
	return r
}

// BatchValidationProgress is passed to progress observers once per processed document.
type BatchValidationProgress struct {
	CurrentResource     int     `json:"currentResource"`
	TotalResources      int     `json:"totalResources"`
	CurrentResourceName string  `json:"currentResourceName"`
	ProgressPercentage  float64 `json:"progressPercentage"`
}

// NewBatchValidationProgress builds a progress value for the 1-based ordinal current.
func NewBatchValidationProgress(current, total int, name string) BatchValidationProgress {
	pct := 0.0
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	return BatchValidationProgress{
		CurrentResource:     current,
		TotalResources:      total,
		CurrentResourceName: name,
		ProgressPercentage:  pct,
	}
}

// ProgressFunc observes batch progress.
type ProgressFunc func(BatchValidationProgress)
