package history

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/fhirgate/schema"
)

const statusTimeLayout = "2006-01-02 15:04:05"

// PrintStatus prints history status information.
func PrintStatus(w io.Writer, status schema.HistoryStatus) error {
	_, _ = fmt.Fprintf(w, "History Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return nil
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %s\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format(statusTimeLayout))
		_, _ = fmt.Fprintf(w, "Total Resources Validated: %d\n", status.TotalResources)
		_, _ = fmt.Fprintf(w, "Average Pass Rate: %.1f%%\n", status.AveragePassRate)
	}

	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Table", "Rows"})
	for _, name := range tables {
		if err := table.Append([]string{name, strconv.FormatInt(status.TableSizes[name], 10)}); err != nil {
			return err
		}
	}
	return table.Render()
}
