package cmd

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/fhirgate/core"
	"github.com/huangsam/fhirgate/internal/contract"
)

// runContext applies the presentation flags to the root context.
func runContext() context.Context {
	ctx := rootCtx
	if viper.GetBool("quiet") {
		ctx = core.WithQuiet(ctx)
	}
	if name := strings.TrimSpace(viper.GetString("batch-name")); name != "" {
		ctx = core.WithBatchName(ctx, name)
	}
	return ctx
}

// validateCmd validates one resource file.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a single FHIR resource file",
	Long: `Validate one FHIR resource (JSON or XML) against its profiles and print the findings.

The resource is checked against every --profiles URL in order. Without --profiles the
base profile of its resource type is used. The run passes when the resource has no
error or fatal issues.

Exit codes:
  0 - the resource is valid
  1 - the resource is invalid, missing, has an unsupported extension, or any error occurred

Examples:
  # Validate a patient against the base profile
  fhirgate validate --resource patient.json

  # Validate against US Core and write JSON and HTML reports
  fhirgate validate --resource patient.json \
    --profiles http://hl7.org/fhir/us/core/StructureDefinition/us-core-patient \
    --output reports --formats json,html`,
	PreRunE: validationSetup,
	Run: func(_ *cobra.Command, _ []string) {
		path := strings.TrimSpace(viper.GetString("resource"))
		if path == "" {
			contract.LogFatal("Validation failed", errors.New("--resource is required"))
		}

		ci, err := core.ExecuteValidate(runContext(), cfg, conformance, historyStore, path)
		if err != nil {
			contract.LogFatal("Validation failed", err)
		}
		exitWith(ci.ExitCode)
	},
}
