package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/fhirgate/schema"
)

// writeCSVReport writes one row per resource: resource,status,issues,duration_ms.
func writeCSVReport(w io.Writer, report schema.BatchValidationReport, _ Options) error {
	header := []string{"resource", "status", "issues", "duration_ms"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range report.Results {
			row := []string{
				r.ResourceName,
				r.StatusLabel(),
				strconv.Itoa(len(r.Issues)),
				strconv.FormatInt(r.ValidationDuration.Milliseconds(), 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
