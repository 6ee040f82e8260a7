package cmd

import (
	"fmt"
	"io"
	"maps"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huangsam/fhirgate/internal/checker"
	"github.com/huangsam/fhirgate/schema"
)

// versionCmd shows the build details and what this binary can validate and emit.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of fhirgate and its built-in capabilities.",
	Long: `Display build details together with the built-in base profiles, report formats
and history backends of this binary.

Useful when a CI job needs to confirm which profiles a pinned fhirgate release
ships with before relying on the default base-profile selection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeVersion(cmd.OutOrStdout())
	},
}

// writeVersion prints build metadata and the capabilities compiled into the binary.
func writeVersion(w io.Writer) error {
	reg, err := checker.NewBaseRegistry()
	if err != nil {
		return err
	}
	formats := slices.Sorted(maps.Keys(schema.ValidOutputFormats))
	backends := slices.Sorted(maps.Keys(schema.ValidDatabaseBackends))

	_, _ = fmt.Fprintf(w, "fhirgate %s (commit %s, built %s, %s)\n", version, commit, date, runtime.Version())
	_, _ = fmt.Fprintf(w, "  Formats:  %s\n", joinStrings(formats))
	_, _ = fmt.Fprintf(w, "  Backends: %s\n", joinStrings(backends))
	_, _ = fmt.Fprintf(w, "  Base profiles (%d):\n", len(reg.URLs()))
	for _, url := range reg.URLs() {
		_, _ = fmt.Fprintf(w, "    %s\n", url)
	}
	return nil
}

func joinStrings[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
