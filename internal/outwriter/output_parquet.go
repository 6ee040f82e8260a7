package outwriter

import (
	"io"

	"github.com/huangsam/fhirgate/internal/parquet"
	"github.com/huangsam/fhirgate/schema"
)

// writeParquetReport writes the issue projection of the report.
func writeParquetReport(w io.Writer, report schema.BatchValidationReport, _ Options) error {
	return parquet.WriteIssues(w, parquet.IssuesFromReport(report))
}
