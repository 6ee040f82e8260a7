package core

import (
	"fmt"
	"math"

	"github.com/huangsam/fhirgate/core/agg"
	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// CIDecisionBuilder builds the CI verdict for a report using a builder pattern.
type CIDecisionBuilder struct {
	report    schema.BatchValidationReport
	threshold float64
	summary   schema.ValidationSummary
	result    *schema.CiSummary
}

// NewCIDecisionBuilder creates a new builder for a report and a pass threshold in percent.
func NewCIDecisionBuilder(report schema.BatchValidationReport, threshold float64) *CIDecisionBuilder {
	return &CIDecisionBuilder{
		report:    report,
		threshold: threshold,
	}
}

// ValidateThreshold rejects thresholds outside 0..100.
func (b *CIDecisionBuilder) ValidateThreshold() (*CIDecisionBuilder, error) {
	if math.IsNaN(b.threshold) || b.threshold < contract.MinPassThreshold || b.threshold > contract.MaxPassThreshold {
		return nil, fmt.Errorf("pass threshold must be between %.0f and %.0f, got %v", contract.MinPassThreshold, contract.MaxPassThreshold, b.threshold)
	}
	return b, nil
}

// ComputeSummary recomputes the summary from the report results.
func (b *CIDecisionBuilder) ComputeSummary() *CIDecisionBuilder {
	b.summary = agg.Summarize(b.report.Results)
	return b
}

// Decide sets overallSuccess on the builder's copy of the summary.
func (b *CIDecisionBuilder) Decide() *CIDecisionBuilder {
	b.summary.OverallSuccess = b.summary.PassRate >= b.threshold
	return b
}

// BuildSummary constructs the final CiSummary.
func (b *CIDecisionBuilder) BuildSummary() *CIDecisionBuilder {
	s := b.summary
	verdict, exitCode := "failed", schema.ExitFailure
	if s.OverallSuccess {
		verdict, exitCode = "passed", schema.ExitSuccess
	}
	b.result = &schema.CiSummary{
		Summary: fmt.Sprintf("Validation %s: %d total, %d passed, %d failed, %d with warnings (pass rate %.1f%%, threshold %.1f%%)",
			verdict, s.TotalResources, s.PassedResources, s.FailedResources, s.WarningResources, s.PassRate, b.threshold),
		ExitCode:  exitCode,
		Passed:    s.OverallSuccess,
		Threshold: b.threshold,
		Decided:   s,
	}
	return b
}

// GetResult returns the built CiSummary.
func (b *CIDecisionBuilder) GetResult() *schema.CiSummary {
	return b.result
}
