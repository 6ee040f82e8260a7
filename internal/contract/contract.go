// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/fhirgate/schema"
)

// Checker decides whether a parsed resource conforms to a profile.
// The orchestration layer depends only on this interface, so any conformance engine can be
// plugged in behind it.
type Checker interface {
	// Check returns the issues found for doc against the profile identified by profileURL.
	// An error means the checker itself failed; conformance problems are issues, not errors.
	Check(ctx context.Context, doc schema.Document, profileURL string) ([]schema.ValidationIssue, error)
}

// HistoryStore defines the interface for persisting validation runs and their results.
type HistoryStore interface {
	// RecordRun stores a decided batch report and one row per result
	RecordRun(ctx context.Context, report schema.BatchValidationReport) error

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]schema.RunRecord, error)

	// GetAllResults returns every stored result in run and ordinal order
	GetAllResults() ([]schema.ResultRecord, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Close closes the underlying connection
	Close() error
}
