package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/normalize"
	"github.com/huangsam/fhirgate/schema"
)

// normalizeCmd runs one normalization rule on a value.
var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize a single vendor value",
	Long: `Apply one normalization rule to a raw vendor value and print the result.

The rules and tables are the same ones validate and validate-directory apply with
--normalize, including the normalization section of the config file.

Exit codes:
  0 - the value was normalized
  1 - the value could not be normalized or the kind is unknown

Examples:
  fhirgate normalize --kind date --value 03/05/2024
  fhirgate normalize --kind phone --value "(555) 123-4567"
  fhirgate normalize --kind postal --value k1a0b1 --country CA`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return sharedSetup(rootCtx, cmd, args)
	},
	Run: func(_ *cobra.Command, _ []string) {
		kind := schema.NormalizeKind(strings.ToLower(strings.TrimSpace(viper.GetString("kind"))))
		if kind == "" {
			contract.LogFatal("Normalization failed", errors.New("--kind is required"))
		}

		n := normalize.New(cfg.Normalization)
		value, ok, err := n.Value(kind, viper.GetString("value"), viper.GetString("country"))
		if err != nil {
			contract.LogFatal("Normalization failed", err)
		}
		if !ok {
			contract.LogWarn("Could not normalize value", fmt.Errorf("kind %s", kind))
			exitWith(schema.ExitFailure)
		}
		_, _ = fmt.Fprintln(os.Stdout, value)
	},
}
