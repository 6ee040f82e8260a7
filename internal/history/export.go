package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/parquet"
)

// ErrNoHistory is returned when an export finds no recorded runs.
var ErrNoHistory = errors.New("no run history found to export")

// ExportFiles names the files written by ExportParquet.
type ExportFiles struct {
	RunsFile    string
	ResultsFile string
}

// ExportParquet writes every stored run and result to <outputPrefix>.runs.parquet
// and <outputPrefix>.results.parquet. Progress lines go to w.
func ExportParquet(w io.Writer, store contract.HistoryStore, outputPrefix string) (ExportFiles, error) {
	var files ExportFiles
	if outputPrefix == "" {
		return files, errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return files, fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return files, ErrNoHistory
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total validation runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total result records: %d\n", status.TableSizes[resultsTable])

	runs, err := store.ListRuns(0)
	if err != nil {
		return files, fmt.Errorf("failed to retrieve validation runs: %w", err)
	}
	results, err := store.GetAllResults()
	if err != nil {
		return files, fmt.Errorf("failed to retrieve validation results: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetResults := parquet.ConvertResultRecords(results)

	files.RunsFile = outputPrefix + ".runs.parquet"
	if err := parquet.WriteValidationRunsParquet(parquetRuns, files.RunsFile); err != nil {
		return files, fmt.Errorf("failed to write validation runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d validation runs to: %s\n", len(parquetRuns), files.RunsFile)

	files.ResultsFile = outputPrefix + ".results.parquet"
	if err := parquet.WriteValidationResultsParquet(parquetResults, files.ResultsFile); err != nil {
		return files, fmt.Errorf("failed to write validation results: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d result records to: %s\n", len(parquetResults), files.ResultsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	return files, nil
}
