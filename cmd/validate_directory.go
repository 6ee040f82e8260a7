package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/fhirgate/core"
	"github.com/huangsam/fhirgate/internal/contract"
)

// validateDirectoryCmd is the batch command focused on CI/CD policy enforcement.
var validateDirectoryCmd = &cobra.Command{
	Use:   "validate-directory",
	Short: "Validate every matching resource under a directory and enforce a pass rate",
	Long: `Recursively validate every file matching --pattern under --directory and fail the
run when the share of valid resources drops below --pass-threshold.

Files are processed by --workers concurrent workers; results always keep the sorted
path order. Files that cannot be parsed count as failed resources instead of aborting
the batch. Matching files with an extension other than .json or .xml are skipped.

Default threshold: 95.0 percent

Use cases:
- Pull request gates for generated FHIR fixtures
- Vendor feed acceptance before import
- Nightly conformance runs with history tracking

Examples:
  # Gate a directory of resources at the default threshold
  fhirgate validate-directory --directory fixtures

  # XML resources, stricter gate, every report format
  fhirgate validate-directory --directory feed --pattern "*.xml" --pass-threshold 99 \
    --output reports --formats json,csv,text,html,parquet

  # Normalize vendor values and record the run in SQLite
  fhirgate validate-directory --directory feed --normalize --history-backend sqlite`,
	PreRunE: validationSetup,
	Run: func(_ *cobra.Command, _ []string) {
		dir := strings.TrimSpace(viper.GetString("directory"))
		if dir == "" {
			contract.LogFatal("Validation failed", errors.New("--directory is required"))
		}

		ci, err := core.ExecuteValidateDirectory(runContext(), cfg, conformance, historyStore, dir)
		if err != nil {
			contract.LogFatal("Validation failed", err)
		}
		exitWith(ci.ExitCode)
	},
}
