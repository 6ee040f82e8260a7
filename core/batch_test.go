package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// writeTree creates files relative to a fresh temp dir and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"b.json":       patientJSON,
		"a.json":       observationJSON,
		"bad.json":     malformedJSON,
		"sub/c.json":   patientJSON,
		"notes.txt":    "ignored",
		"sub/d.xml":    `<Patient xmlns="http://hl7.org/fhir"><id value="x1"/></Patient>`,
		"sub/e.README": "ignored",
	})
}

func passingChecker() *contract.MockChecker {
	checker := &contract.MockChecker{}
	checker.On("Check", mock.Anything, mock.Anything, mock.Anything).Return([]schema.ValidationIssue{}, nil)
	return checker
}

func resultNames(root string, results []schema.ValidationResult) []string {
	names := make([]string, len(results))
	for i, r := range results {
		rel, _ := filepath.Rel(root, r.ResourceName)
		names[i] = filepath.ToSlash(rel)
	}
	return names
}

func TestValidateDirectoryOrderAndFailures(t *testing.T) {
	root := sampleTree(t)
	o := NewOrchestrator(passingChecker(), testConfig(1))

	report, err := o.ValidateDirectory(context.Background(), root, "*.json", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.json", "b.json", "bad.json", "sub/c.json"}, resultNames(root, report.Results))
	assert.Equal(t, 4, report.Summary.TotalResources)
	assert.Equal(t, 3, report.Summary.PassedResources)
	assert.Equal(t, 1, report.Summary.FailedResources)
	assert.Equal(t, 75.0, report.Summary.PassRate)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, filepath.Base(root), report.BatchName)

	bad := report.Results[2]
	assert.False(t, bad.IsValid)
	require.Len(t, bad.Issues, 1)
	assert.Equal(t, schema.SeverityFatal, bad.Issues[0].Severity)
	assert.Equal(t, "structure", bad.Issues[0].Code)
}

func TestValidateDirectorySkipsUnknownExtensions(t *testing.T) {
	root := sampleTree(t)
	o := NewOrchestrator(passingChecker(), testConfig(1))

	report, err := o.ValidateDirectory(context.Background(), root, "*", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json", "bad.json", "sub/c.json", "sub/d.xml"}, resultNames(root, report.Results))
}

func TestValidateDirectoryCheckerFaultBecomesResult(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.json": observationJSON,
		"b.json": patientJSON,
	})
	checker := &contract.MockChecker{}
	checker.On("Check", mock.Anything, mock.Anything, "http://hl7.org/fhir/StructureDefinition/Observation").
		Return(nil, errors.New("engine down"))
	checker.On("Check", mock.Anything, mock.Anything, patientProfile).Return([]schema.ValidationIssue{}, nil)

	o := NewOrchestrator(checker, testConfig(1))
	report, err := o.ValidateDirectory(context.Background(), root, "*.json", nil, nil)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	failed := report.Results[0]
	assert.False(t, failed.IsValid)
	require.Len(t, failed.Issues, 1)
	assert.Equal(t, "exception", failed.Issues[0].Code)
	assert.Contains(t, failed.Issues[0].Description, "engine down")
	assert.True(t, report.Results[1].IsValid)
}

func TestValidateDirectoryWorkerPoolMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"k", "c", "x", "a", "m", "b", "z", "q", "d", "e", "f", "g"} {
		files[name+".json"] = patientJSON
	}
	files["n/bad.json"] = malformedJSON
	root := writeTree(t, files)

	sequential, err := NewOrchestrator(passingChecker(), testConfig(1)).
		ValidateDirectory(context.Background(), root, "*.json", nil, nil)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		progress []schema.BatchValidationProgress
	)
	observe := func(p schema.BatchValidationProgress) {
		mu.Lock()
		defer mu.Unlock()
		progress = append(progress, p)
	}
	parallel, err := NewOrchestrator(passingChecker(), testConfig(4)).
		ValidateDirectory(context.Background(), root, "*.json", nil, observe)
	require.NoError(t, err)

	assert.Equal(t, resultNames(root, sequential.Results), resultNames(root, parallel.Results))
	assert.Equal(t, sequential.Summary, parallel.Summary)

	require.Len(t, progress, len(parallel.Results))
	for i, p := range progress {
		assert.Equal(t, i+1, p.CurrentResource)
		assert.Equal(t, len(parallel.Results), p.TotalResources)
		assert.Equal(t, parallel.Results[i].ResourceName, p.CurrentResourceName)
	}
	assert.Equal(t, 100.0, progress[len(progress)-1].ProgressPercentage)
}

func TestValidateDirectoryCancelled(t *testing.T) {
	root := sampleTree(t)

	for _, workers := range []int{1, 3} {
		ctx, cancel := context.WithCancel(context.Background())
		checker := &contract.MockChecker{}
		checker.On("Check", mock.Anything, mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { cancel() }).
			Return([]schema.ValidationIssue{}, nil)

		_, err := NewOrchestrator(checker, testConfig(workers)).ValidateDirectory(ctx, root, "*.json", nil, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled), "workers=%d: %v", workers, err)
		cancel()
	}
}

func TestValidateDirectoryInputErrors(t *testing.T) {
	root := sampleTree(t)
	o := NewOrchestrator(passingChecker(), testConfig(1))

	_, err := o.ValidateDirectory(context.Background(), filepath.Join(root, "missing"), "*.json", nil, nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = o.ValidateDirectory(context.Background(), filepath.Join(root, "b.json"), "*.json", nil, nil)
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestValidateDirectoryEmpty(t *testing.T) {
	o := NewOrchestrator(passingChecker(), testConfig(2))
	report, err := o.ValidateDirectory(context.Background(), t.TempDir(), "*.json", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0.0, report.Summary.PassRate)
}

func TestValidateDirectoryBatchNameOverride(t *testing.T) {
	root := sampleTree(t)
	ctx := WithBatchName(context.Background(), "nightly")
	report, err := NewOrchestrator(passingChecker(), testConfig(1)).ValidateDirectory(ctx, root, "*.json", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "nightly", report.BatchName)
	assert.Equal(t, root, report.Configuration.Root)
	assert.Equal(t, "*.json", report.Configuration.Pattern)
}
