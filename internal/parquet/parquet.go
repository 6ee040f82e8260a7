// Package parquet provides data structures and functions for exporting fhirgate
// validation data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/fhirgate/schema"
)

// ValidationRun represents a single batch validation run with its summary.
// This struct maps to the fhirgate_validation_runs database table.
type ValidationRun struct {
	// RunID is the unique identifier for this run
	RunID string `parquet:"run_id,snappy"`

	// BatchName is the file or directory name the run was started for
	BatchName string `parquet:"batch_name,snappy"`

	// StartTime is when validation began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when validation completed
	EndTime time.Time `parquet:"end_time,snappy"`

	DurationMs       int64   `parquet:"duration_ms,snappy"`
	TotalResources   int32   `parquet:"total_resources,snappy"`
	PassedResources  int32   `parquet:"passed_resources,snappy"`
	FailedResources  int32   `parquet:"failed_resources,snappy"`
	WarningResources int32   `parquet:"warning_resources,snappy"`
	TotalIssues      int32   `parquet:"total_issues,snappy"`
	PassRate         float64 `parquet:"pass_rate,snappy"`
	Threshold        float64 `parquet:"threshold,snappy"`
	OverallSuccess   bool    `parquet:"overall_success,snappy"`

	// ConfigParams contains the JSON-encoded run configuration (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// ValidationResult represents the outcome for a single resource in a run.
// This struct maps to the fhirgate_validation_results database table.
type ValidationResult struct {
	RunID        string    `parquet:"run_id,snappy"`
	Ordinal      int32     `parquet:"ordinal,snappy"`
	ResourceName string    `parquet:"resource_name,snappy"`
	ResourceType string    `parquet:"resource_type,snappy"`
	ResourceID   string    `parquet:"resource_id,snappy"`
	IsValid      bool      `parquet:"is_valid,snappy"`
	HasWarnings  bool      `parquet:"has_warnings,snappy"`
	ErrorCount   int32     `parquet:"error_count,snappy"`
	WarningCount int32     `parquet:"warning_count,snappy"`
	IssueCount   int32     `parquet:"issue_count,snappy"`
	DurationMs   int64     `parquet:"duration_ms,snappy"`
	ValidatedAt  time.Time `parquet:"validated_at,snappy"`

	// ProfileURLs is the comma-separated list of profiles checked
	ProfileURLs string `parquet:"profile_urls,snappy"`
}

// Issue is one row of the issue projection of a report.
// Resources without issues get a single row with the issue columns left null.
type Issue struct {
	RunID        string  `parquet:"run_id,snappy"`
	BatchName    string  `parquet:"batch_name,snappy"`
	ResourceName string  `parquet:"resource_name,snappy"`
	ResourceType string  `parquet:"resource_type,snappy"`
	Status       string  `parquet:"status,snappy"`
	Severity     *string `parquet:"severity,optional,snappy"`
	Code         *string `parquet:"code,optional,snappy"`
	Location     *string `parquet:"location,optional,snappy"`
	Description  *string `parquet:"description,optional,snappy"`
}

// WriteValidationRunsParquet writes a slice of ValidationRun structs to a Parquet file.
func WriteValidationRunsParquet(data []ValidationRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteValidationResultsParquet writes a slice of ValidationResult structs to a Parquet file.
func WriteValidationResultsParquet(data []ValidationResult, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteIssues encodes issue rows as a Parquet stream.
func WriteIssues(w io.Writer, data []Issue) error {
	return writeRows(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeRows(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// writeRows derives the schema from the struct tags of T.
func writeRows[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRunRecords converts schema.RunRecord to ValidationRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []ValidationRun {
	result := make([]ValidationRun, len(records))
	for i, record := range records {
		result[i] = ValidationRun{
			RunID:            record.RunID,
			BatchName:        record.BatchName,
			StartTime:        record.StartTime,
			EndTime:          record.EndTime,
			DurationMs:       record.DurationMs,
			TotalResources:   record.TotalResources,
			PassedResources:  record.PassedResources,
			FailedResources:  record.FailedResources,
			WarningResources: record.WarningResources,
			TotalIssues:      record.TotalIssues,
			PassRate:         record.PassRate,
			Threshold:        record.Threshold,
			OverallSuccess:   record.OverallSuccess,
			ConfigParams:     record.ConfigParams,
		}
	}
	return result
}

// ConvertResultRecords converts schema.ResultRecord to ValidationResult for Parquet export.
func ConvertResultRecords(records []schema.ResultRecord) []ValidationResult {
	result := make([]ValidationResult, len(records))
	for i, record := range records {
		result[i] = ValidationResult{
			RunID:        record.RunID,
			Ordinal:      record.Ordinal,
			ResourceName: record.ResourceName,
			ResourceType: record.ResourceType,
			ResourceID:   record.ResourceID,
			IsValid:      record.IsValid,
			HasWarnings:  record.HasWarnings,
			ErrorCount:   record.ErrorCount,
			WarningCount: record.WarningCount,
			IssueCount:   record.IssueCount,
			DurationMs:   record.DurationMs,
			ValidatedAt:  record.ValidatedAt,
			ProfileURLs:  record.ProfileURLs,
		}
	}
	return result
}

// IssuesFromReport projects a report into one row per issue.
func IssuesFromReport(report schema.BatchValidationReport) []Issue {
	var rows []Issue
	for _, r := range report.Results {
		base := Issue{
			RunID:        report.RunID,
			BatchName:    report.BatchName,
			ResourceName: r.ResourceName,
			ResourceType: r.ResourceType,
			Status:       r.StatusLabel(),
		}
		if len(r.Issues) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, issue := range r.Issues {
			row := base
			row.Severity = ptr(issue.Severity.String())
			row.Code = optional(issue.Code)
			row.Location = optional(issue.Location)
			row.Description = ptr(issue.Description)
			rows = append(rows, row)
		}
	}
	return rows
}

func ptr(s string) *string { return &s }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
