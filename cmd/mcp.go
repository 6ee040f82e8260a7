package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/fhirgate/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the fhirgate MCP server",
	Long:  `Launch an MCP server on stdio that lets AI agents validate FHIR resources and normalize vendor values via standard tools.`,
	// Narrative and progress output never reach stdout here since the
	// tools call the orchestrator directly; stdout carries the protocol.
	PreRunE: validationSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, conformance, version)
	},
}
