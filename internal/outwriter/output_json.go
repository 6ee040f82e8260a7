package outwriter

import (
	"io"

	"github.com/huangsam/fhirgate/schema"
)

// writeJSONReport writes the whole report as indented JSON.
func writeJSONReport(w io.Writer, report schema.BatchValidationReport, _ Options) error {
	return writeJSON(w, report)
}
