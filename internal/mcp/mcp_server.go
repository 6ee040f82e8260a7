// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/fhirgate/internal/contract"
)

// NewMCPServer initializes and configures the fhirgate MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, checker contract.Checker, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"FHIR Validation Gate",
		version,
		server.WithLogging(),
	)

	h := newToolHandler(baseCfg, checker)

	// --- 1. Tool: validate_resource ---
	s.AddTool(mcp.NewTool("validate_resource",
		mcp.WithDescription("Validate one FHIR resource passed inline and return the per-resource result."),
		mcp.WithString("content", mcp.Description("The resource document."), mcp.Required()),
		mcp.WithString("content_type", mcp.Description("Encoding of the content. Defaults to 'json'."), mcp.Enum("json", "xml")),
		mcp.WithString("profiles", mcp.Description("Comma-separated profile URLs. Defaults to the base profile of the resource type.")),
	), h.handleValidateResource)

	// --- 2. Tool: validate_directory ---
	s.AddTool(mcp.NewTool("validate_directory",
		mcp.WithDescription("Validate every matching resource file under a directory and apply the pass-rate policy."),
		mcp.WithString("directory", mcp.Description("Directory to scan recursively."), mcp.Required()),
		mcp.WithString("pattern", mcp.Description("File name glob (defaults to '*.json').")),
		mcp.WithNumber("pass_threshold", mcp.Description("Minimum pass rate in percent required for success.")),
		mcp.WithString("profiles", mcp.Description("Comma-separated profile URLs applied to every file.")),
	), h.handleValidateDirectory)

	// --- 3. Tool: normalize_value ---
	s.AddTool(mcp.NewTool("normalize_value",
		mcp.WithDescription("Normalize one vendor value the way the validator does before checking."),
		mcp.WithString("kind", mcp.Description("Kind of value."), mcp.Required(),
			mcp.Enum("date", "gender", "status", "phone", "email", "postal", "numeric")),
		mcp.WithString("value", mcp.Description("The raw vendor value."), mcp.Required()),
		mcp.WithString("country", mcp.Description("Country for postal codes (e.g. US, CA).")),
	), h.handleNormalizeValue)

	return s
}

// StartMCPServer starts the fhirgate MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, checker contract.Checker, version string) error {
	s := NewMCPServer(baseCfg, checker, version)
	return server.ServeStdio(s)
}
