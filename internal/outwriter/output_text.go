package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/fhirgate/core/agg"
	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// writeTextReport writes the human-readable narrative: header, counts, results table,
// and with Verbose the full issue list per resource.
func writeTextReport(w io.Writer, report schema.BatchValidationReport, opts Options) error {
	if err := writeTextHeader(w, report, opts); err != nil {
		return err
	}
	if len(report.Results) == 0 {
		_, err := fmt.Fprintln(w, "No resources were validated.")
		return err
	}
	if err := writeResultsTable(w, report, opts); err != nil {
		return err
	}
	if opts.Verbose {
		return writeIssueDetails(w, report, opts)
	}
	return nil
}

// writeTextHeader prints run metadata and summary counts with aligned labels.
func writeTextHeader(w io.Writer, report schema.BatchValidationReport, opts Options) error {
	s := report.Summary
	counts := agg.CountIssuesBySeverity(report.Results)

	verdict := contract.GetStatusLabel(s.OverallSuccess, opts.UseColors)
	if s.OverallSuccess {
		verdict += " (threshold met)"
	} else {
		verdict += " (threshold not met)"
	}

	labels := []string{"Run ID:", "Started:", "Finished:", "Duration:", "Resources:", "Issues:", "Pass rate:", "Verdict:"}
	values := []string{
		report.RunID,
		report.ValidationStartTime.Format(time.RFC3339),
		report.ValidationEndTime.Format(time.RFC3339),
		report.TotalDuration.Round(time.Millisecond).String(),
		fmt.Sprintf("%d total, %d passed, %d failed, %d with warnings",
			s.TotalResources, s.PassedResources, s.FailedResources, s.WarningResources),
		fmt.Sprintf("%d (fatal %d, error %d, warning %d, information %d)", s.TotalIssues,
			counts[schema.SeverityFatal], counts[schema.SeverityError],
			counts[schema.SeverityWarning], counts[schema.SeverityInformation]),
		fmt.Sprintf("%.1f%%", s.PassRate),
		verdict,
	}

	maxLabelLen := 0
	for _, label := range labels {
		maxLabelLen = max(maxLabelLen, len(label))
	}

	if _, err := fmt.Fprintf(w, "FHIR Validation Report: %s\n", report.BatchName); err != nil {
		return err
	}
	for i, label := range labels {
		if _, err := fmt.Fprintf(w, "  %-*s %s\n", maxLabelLen+1, label, values[i]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// writeResultsTable renders one row per resource.
func writeResultsTable(w io.Writer, report schema.BatchValidationReport, opts Options) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Resource", "Type", "Status", "Errors", "Warnings", "Duration"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := maxResourceNameWidth(opts.Width)
	var data [][]string
	for i, r := range report.Results {
		errCount := r.CountBySeverity(schema.SeverityError) + r.CountBySeverity(schema.SeverityFatal)
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.ResourceName, nameWidth),
			r.ResourceType,
			contract.GetStatusLabel(r.IsValid, opts.UseColors),
			strconv.Itoa(errCount),
			strconv.Itoa(r.CountBySeverity(schema.SeverityWarning)),
			r.ValidationDuration.Round(time.Microsecond).String(),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeIssueDetails lists every issue grouped by resource, in checker order.
func writeIssueDetails(w io.Writer, report schema.BatchValidationReport, opts Options) error {
	if _, err := fmt.Fprintln(w, "\nIssues:"); err != nil {
		return err
	}
	for _, r := range report.Results {
		if len(r.Issues) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n%s (%s)\n", r.ResourceName, r.StatusLabel()); err != nil {
			return err
		}
		for _, issue := range r.Issues {
			if _, err := fmt.Fprintf(w, "  - [%s] %s\n", contract.GetSeverityLabel(issue.Severity, opts.UseColors), formatIssue(issue)); err != nil {
				return err
			}
		}
	}
	return nil
}

// formatIssue renders code, location and description on one line.
func formatIssue(issue schema.ValidationIssue) string {
	text := issue.Description
	if issue.Location != "" {
		text = issue.Location + ": " + text
	}
	if issue.Code != "" {
		text = issue.Code + " " + text
	}
	return text
}
