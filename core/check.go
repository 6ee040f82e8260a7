package core

import (
	"fmt"

	"github.com/huangsam/fhirgate/schema"
)

// EvaluateCI turns a report into a CI verdict. The report itself is not modified;
// the decided summary is carried on the returned CiSummary.
func EvaluateCI(report schema.BatchValidationReport, threshold float64) (schema.CiSummary, error) {
	builder, err := NewCIDecisionBuilder(report, threshold).ValidateThreshold()
	if err != nil {
		return RunErrorSummary(err), err
	}
	return *builder.ComputeSummary().Decide().BuildSummary().GetResult(), nil
}

// RunErrorSummary is the verdict of a run that could not produce a report.
func RunErrorSummary(err error) schema.CiSummary {
	return schema.CiSummary{
		Summary:  fmt.Sprintf("Validation error: %v", err),
		ExitCode: schema.ExitFailure,
	}
}

