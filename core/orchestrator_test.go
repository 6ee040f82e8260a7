package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/parser"
	"github.com/huangsam/fhirgate/schema"
)

const (
	patientJSON     = `{"resourceType":"Patient","id":"p1","gender":"M"}`
	patientProfile  = "http://hl7.org/fhir/StructureDefinition/Patient"
	usCoreProfile   = "http://hl7.org/fhir/us/core/StructureDefinition/us-core-patient"
	malformedJSON   = `{"resourceType":"Patient",`
	observationJSON = `{"resourceType":"Observation","id":"o1","status":"final"}`
)

func testConfig(workers int) *contract.Config {
	cfg := contract.DefaultConfig()
	cfg.Workers = workers
	cfg.UseColors = false
	return cfg
}

func TestValidateContentDefaultProfile(t *testing.T) {
	checker := &contract.MockChecker{}
	warning := schema.ValidationIssue{Severity: schema.SeverityWarning, Code: "value", Description: "odd", Location: "Patient.name"}
	checker.On("Check", mock.Anything, mock.Anything, patientProfile).Return([]schema.ValidationIssue{warning}, nil)

	o := NewOrchestrator(checker, testConfig(1))
	result, err := o.ValidateContent(context.Background(), "p1.json", []byte(patientJSON), schema.JSONContent, nil)
	require.NoError(t, err)

	assert.Equal(t, "p1.json", result.ResourceName)
	assert.Equal(t, "Patient", result.ResourceType)
	assert.Equal(t, "p1", result.ResourceID)
	assert.True(t, result.IsValid)
	assert.True(t, result.HasWarnings)
	assert.Equal(t, []string{patientProfile}, result.ProfileURLs)
	assert.Equal(t, []schema.ValidationIssue{warning}, result.Issues)
	checker.AssertExpectations(t)
}

func TestValidateContentConcatenatesProfilesInOrder(t *testing.T) {
	checker := &contract.MockChecker{}
	first := schema.ValidationIssue{Severity: schema.SeverityError, Code: "required", Description: "first"}
	second := schema.ValidationIssue{Severity: schema.SeverityInformation, Code: "informational", Description: "second"}
	checker.On("Check", mock.Anything, mock.Anything, patientProfile).Return([]schema.ValidationIssue{first}, nil)
	checker.On("Check", mock.Anything, mock.Anything, usCoreProfile).Return([]schema.ValidationIssue{second}, nil)

	o := NewOrchestrator(checker, testConfig(1))
	result, err := o.ValidateContent(context.Background(), "p1.json", []byte(patientJSON), schema.JSONContent,
		[]string{patientProfile, usCoreProfile})
	require.NoError(t, err)

	assert.False(t, result.IsValid)
	assert.False(t, result.HasWarnings)
	assert.Equal(t, []schema.ValidationIssue{first, second}, result.Issues)
	assert.Equal(t, []string{patientProfile, usCoreProfile}, result.ProfileURLs)
}

func TestValidateContentParseError(t *testing.T) {
	checker := &contract.MockChecker{}
	o := NewOrchestrator(checker, testConfig(1))

	_, err := o.ValidateContent(context.Background(), "bad.json", []byte(malformedJSON), schema.JSONContent, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrParse))
	checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateContentCheckerFault(t *testing.T) {
	checker := &contract.MockChecker{}
	boom := errors.New("engine crashed")
	checker.On("Check", mock.Anything, mock.Anything, patientProfile).Return(nil, boom)

	o := NewOrchestrator(checker, testConfig(1))
	_, err := o.ValidateContent(context.Background(), "p1.json", []byte(patientJSON), schema.JSONContent, nil)
	require.Error(t, err)

	var fault *contract.ValidationFault
	require.True(t, errors.As(err, &fault))
	assert.Equal(t, "Patient", fault.ResourceType)
	assert.Equal(t, patientProfile, fault.Profile)
	assert.True(t, errors.Is(err, boom))
}

func TestValidateContentCancelled(t *testing.T) {
	checker := &contract.MockChecker{}
	o := NewOrchestrator(checker, testConfig(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.ValidateContent(ctx, "p1.json", []byte(patientJSON), schema.JSONContent, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	checker.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateContentCancelledDuringCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	checker := &contract.MockChecker{}
	checker.On("Check", mock.Anything, mock.Anything, patientProfile).
		Run(func(mock.Arguments) { cancel() }).
		Return([]schema.ValidationIssue{}, nil)

	o := NewOrchestrator(checker, testConfig(1))
	_, err := o.ValidateContent(ctx, "p1.json", []byte(patientJSON), schema.JSONContent, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	var fault *contract.ValidationFault
	assert.False(t, errors.As(err, &fault))
}

func TestValidateContentNormalizes(t *testing.T) {
	checker := &contract.MockChecker{}
	checker.On("Check", mock.Anything, mock.MatchedBy(func(doc schema.Document) bool {
		return doc.Data["gender"] == "male"
	}), patientProfile).Return([]schema.ValidationIssue{}, nil)

	cfg := testConfig(1)
	cfg.Normalize = true
	o := NewOrchestrator(checker, cfg)

	result, err := o.ValidateContent(context.Background(), "p1.json", []byte(patientJSON), schema.JSONContent, nil)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	checker.AssertExpectations(t)
}

func TestValidateResource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patient.json")
	require.NoError(t, os.WriteFile(path, []byte(patientJSON), 0o644))

	checker := &contract.MockChecker{}
	checker.On("Check", mock.Anything, mock.Anything, patientProfile).Return([]schema.ValidationIssue{}, nil)
	o := NewOrchestrator(checker, testConfig(1))

	result, err := o.ValidateResource(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, result.ResourceName)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Issues)
}

func TestValidateResourceInputErrors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0o644))

	o := NewOrchestrator(&contract.MockChecker{}, testConfig(1))

	tests := []struct {
		name   string
		path   string
		target error
	}{
		{"missing file", filepath.Join(dir, "missing.json"), os.ErrNotExist},
		{"unsupported extension", txt, parser.ErrUnsupportedContentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.ValidateResource(context.Background(), tt.path, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestValidateResourceDirectory(t *testing.T) {
	o := NewOrchestrator(&contract.MockChecker{}, testConfig(1))
	_, err := o.ValidateResource(context.Background(), t.TempDir(), nil)
	assert.Error(t, err)
}
