package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// fileWidth is the width used for resource names in persisted text reports.
const fileWidth = 200

// FormatOutcome records what happened to one requested format.
type FormatOutcome struct {
	Format schema.OutputFormat
	Path   string
	Err    error
}

// WriteReports renders each format concurrently and writes it into dir as
// validation-report-<timestamp>.<ext>. Failures are logged per format and
// never stop the other formats.
func WriteReports(report schema.BatchValidationReport, formats []schema.OutputFormat, dir string, now time.Time, opts Options) []FormatOutcome {
	outcomes := make([]FormatOutcome, len(formats))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		for i, format := range formats {
			outcomes[i] = FormatOutcome{Format: format, Err: fmt.Errorf("failed to create output directory: %w", err)}
		}
		contract.LogWarn(fmt.Sprintf("Cannot write reports to %s", dir), err)
		return outcomes
	}

	// Persisted reports never carry ANSI colors.
	fileOpts := opts
	fileOpts.UseColors = false
	fileOpts.Width = fileWidth
	stamp := now.Format(schema.ReportTimestampFormat)

	var wg sync.WaitGroup
	for i, format := range formats {
		wg.Go(func() {
			outcomes[i] = writeReport(report, format, dir, stamp, fileOpts)
		})
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			contract.LogWarn(fmt.Sprintf("Skipped %s report", outcome.Format), outcome.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote %s report to %s\n", outcome.Format, outcome.Path)
	}
	return outcomes
}

// FailedOutcomes counts the formats that could not be written.
func FailedOutcomes(outcomes []FormatOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

func writeReport(report schema.BatchValidationReport, format schema.OutputFormat, dir, stamp string, opts Options) FormatOutcome {
	outcome := FormatOutcome{Format: format}
	data, err := Render(report, format, opts)
	if err != nil {
		outcome.Err = err
		return outcome
	}
	path := filepath.Join(dir, schema.ReportFileName(format, stamp))
	if err := writeExclusive(path, data); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Path = path
	return outcome
}

// writeExclusive creates path and fails if it already exists.
func writeExclusive(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
