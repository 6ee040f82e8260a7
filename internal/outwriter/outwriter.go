// Package outwriter has report rendering and writer logic.
package outwriter

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// ErrUnknownFormat is returned when a report is requested in an unsupported format.
var ErrUnknownFormat = errors.New("unknown output format")

// Options controls presentation details shared by the renderers.
type Options struct {
	Verbose   bool
	UseColors bool
	Width     int // Terminal width override (0 = auto-detect)
}

// OptionsFromConfig derives renderer options from the validated config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		Verbose:   cfg.Verbose,
		UseColors: cfg.UseColors,
		Width:     cfg.Width,
	}
}

// renderFunc writes one encoding of a report. Implementations must not modify the report.
type renderFunc func(w io.Writer, report schema.BatchValidationReport, opts Options) error

var renderers = map[schema.OutputFormat]renderFunc{
	schema.JSONOut:    writeJSONReport,
	schema.CSVOut:     writeCSVReport,
	schema.TextOut:    writeTextReport,
	schema.HTMLOut:    writeHTMLReport,
	schema.ParquetOut: writeParquetReport,
}

// Render produces one encoding of the report.
func Render(report schema.BatchValidationReport, format schema.OutputFormat, opts Options) ([]byte, error) {
	render, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	var buf bytes.Buffer
	if err := render(&buf, report, opts); err != nil {
		return nil, fmt.Errorf("error writing %s output: %w", format, err)
	}
	return buf.Bytes(), nil
}

// WriteNarrative prints the long-form console narrative of the report.
func WriteNarrative(w io.Writer, report schema.BatchValidationReport, opts Options) error {
	return writeTextReport(w, report, opts)
}
