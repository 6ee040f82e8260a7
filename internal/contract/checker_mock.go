package contract

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/huangsam/fhirgate/schema"
)

// MockChecker is a mock implementation of Checker for testing.
type MockChecker struct {
	mock.Mock
}

var _ Checker = &MockChecker{} // Compile-time check

// Check implements the Checker interface.
func (m *MockChecker) Check(ctx context.Context, doc schema.Document, profileURL string) ([]schema.ValidationIssue, error) {
	args := m.Called(ctx, doc, profileURL)
	issues, _ := args.Get(0).([]schema.ValidationIssue)
	return issues, args.Error(1)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordRun implements the HistoryStore interface.
func (m *MockHistoryStore) RecordRun(ctx context.Context, report schema.BatchValidationReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// ListRuns implements the HistoryStore interface.
func (m *MockHistoryStore) ListRuns(limit int) ([]schema.RunRecord, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllResults implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllResults() ([]schema.ResultRecord, error) {
	args := m.Called()
	results, _ := args.Get(0).([]schema.ResultRecord)
	return results, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
