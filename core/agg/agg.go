// Package agg has aggregation logic for validation results.
package agg

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/fhirgate/schema"
)

// Summarize derives the batch summary from per-resource results.
// It is pure and idempotent; OverallSuccess is left false for the CI policy to decide.
func Summarize(results []schema.ValidationResult) schema.ValidationSummary {
	summary := schema.ValidationSummary{TotalResources: len(results)}
	for _, r := range results {
		if r.IsValid {
			summary.PassedResources++
		} else {
			summary.FailedResources++
		}
		if r.HasWarnings {
			summary.WarningResources++
		}
		summary.TotalIssues += len(r.Issues)
	}
	summary.PassRate = PassRate(summary.PassedResources, summary.TotalResources)
	return summary
}

// PassRate returns passed as a percentage of total, or 0 when total is 0.
func PassRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed*100) / float64(total)
}

// BuildReport assembles a batch report with a fresh run id. The results slice is copied so
// the report does not alias the caller's slice.
func BuildReport(batchName string, results []schema.ValidationResult, start, end time.Time, cfg schema.RunConfiguration) schema.BatchValidationReport {
	own := slices.Clone(results)
	if own == nil {
		own = []schema.ValidationResult{}
	}
	return schema.BatchValidationReport{
		RunID:               uuid.New().String(),
		BatchName:           batchName,
		Results:             own,
		ValidationStartTime: start,
		ValidationEndTime:   end,
		TotalDuration:       end.Sub(start),
		Summary:             Summarize(own),
		Configuration:       cfg,
	}
}

// CountIssuesBySeverity tallies issues across all results.
func CountIssuesBySeverity(results []schema.ValidationResult) map[schema.Severity]int {
	counts := make(map[schema.Severity]int, 4)
	for _, r := range results {
		for _, issue := range r.Issues {
			counts[issue.Severity]++
		}
	}
	return counts
}

// FailedResults returns the results that did not pass, in report order.
func FailedResults(results []schema.ValidationResult) []schema.ValidationResult {
	var failed []schema.ValidationResult
	for _, r := range results {
		if !r.IsValid {
			failed = append(failed, r)
		}
	}
	return failed
}
