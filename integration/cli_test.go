//go:build basic

// Package integration contains integration tests for fhirgate.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolatedEnv points every run at its own SQLite history file.
func isolatedEnv(t *testing.T) []string {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	return []string{
		"FHIRGATE_HISTORY_BACKEND=sqlite",
		"FHIRGATE_HISTORY_DB_CONNECT=" + dbPath,
	}
}

func TestValidateSingleResource(t *testing.T) {
	env := isolatedEnv(t)

	tests := []struct {
		name     string
		resource string
		wantCode int
	}{
		{"valid observation", "testdata/resources/observation-temp.json", 0},
		{"invalid status", "testdata/resources/observation-bad-status.json", 1},
		{"malformed json", "testdata/resources/broken.json", 1},
		{"missing file", "testdata/resources/absent.json", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, code := runFhirgate(t, env, "validate", "--resource", tt.resource, "--color", "no")
			assert.Equal(t, tt.wantCode, code, output)
		})
	}
}

func TestValidateDirectoryThreshold(t *testing.T) {
	env := isolatedEnv(t)

	// Two of the four fixtures are valid.
	output, code := runFhirgate(t, env, "validate-directory", "--directory", "testdata/resources",
		"--pass-threshold", "50", "--quiet")
	assert.Equal(t, 0, code, output)

	output, code = runFhirgate(t, env, "validate-directory", "--directory", "testdata/resources",
		"--pass-threshold", "75", "--quiet")
	assert.Equal(t, 1, code, output)
}

func TestValidateDirectoryWritesReport(t *testing.T) {
	env := isolatedEnv(t)
	outDir := t.TempDir()

	output, code := runFhirgate(t, env, "validate-directory", "--directory", "testdata/resources",
		"--pass-threshold", "0", "--quiet", "--output", outDir, "--formats", "json")
	require.Equal(t, 0, code, output)

	matches, err := filepath.Glob(filepath.Join(outDir, "*.json"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Contains(t, report, "summary")
}

func TestHistoryLifecycle(t *testing.T) {
	env := isolatedEnv(t)

	output, code := runFhirgate(t, env, "history", "migrate")
	require.Equal(t, 0, code, output)

	output, code = runFhirgate(t, env, "validate-directory", "--directory", "testdata/resources",
		"--pass-threshold", "0", "--quiet", "--batch-name", "nightly")
	require.Equal(t, 0, code, output)

	output, code = runFhirgate(t, env, "history", "list", "--color", "no")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "nightly")

	output, code = runFhirgate(t, env, "history", "status")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "Total Runs: 1")

	prefix := filepath.Join(t.TempDir(), "export")
	output, code = runFhirgate(t, env, "history", "export", "--output-file", prefix)
	require.Equal(t, 0, code, output)
	assert.FileExists(t, prefix+".runs.parquet")
	assert.FileExists(t, prefix+".results.parquet")

	output, code = runFhirgate(t, env, "history", "clear")
	require.Equal(t, 0, code, output)
}

func TestNormalizeCommand(t *testing.T) {
	output, code := runFhirgate(t, nil, "normalize", "--kind", "date", "--value", "03/05/2024")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "2024-03-05")

	output, code = runFhirgate(t, nil, "normalize", "--kind", "numeric", "--value", "N/A")
	assert.Equal(t, 1, code, output)
}
