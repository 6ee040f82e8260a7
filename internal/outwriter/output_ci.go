package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

var (
	passBorder = lipgloss.Color("#22C55E") // green
	failBorder = lipgloss.Color("#EF4444") // red

	verdictBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2)
)

// PrintCISummary prints the CI verdict in a rounded box.
func PrintCISummary(w io.Writer, ci schema.CiSummary, useColors bool) {
	_, _ = fmt.Fprintln(w, RenderCISummary(ci, useColors))
}

// RenderCISummary renders the CI verdict box without printing it.
func RenderCISummary(ci schema.CiSummary, useColors bool) string {
	title := "❌ Policy check failed"
	border := failBorder
	if ci.Passed {
		title = "✅ Policy check passed"
		border = passBorder
	}

	s := ci.Decided
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Resources: %d total, %d passed, %d failed, %d with warnings\n",
		s.TotalResources, s.PassedResources, s.FailedResources, s.WarningResources)
	fmt.Fprintf(&b, "Pass rate: %.1f%% (threshold %.1f%%)\n", s.PassRate, ci.Threshold)
	fmt.Fprintf(&b, "Exit code: %d", ci.ExitCode)

	style := verdictBoxStyle
	if useColors {
		style = style.BorderForeground(border)
	}
	return style.Render(b.String())
}

// PrintProgress prints one batch progress line as [n/N] pct% name.
func PrintProgress(w io.Writer, p schema.BatchValidationProgress, width int) {
	name := contract.TruncatePath(p.CurrentResourceName, maxResourceNameWidth(width))
	_, _ = fmt.Fprintf(w, "[%d/%d] %.0f%% %s\n", p.CurrentResource, p.TotalResources, p.ProgressPercentage, name)
}
