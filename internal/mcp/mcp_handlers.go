package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/fhirgate/core"
	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/normalize"
	"github.com/huangsam/fhirgate/internal/parser"
	"github.com/huangsam/fhirgate/schema"
)

// inlineResourceName labels results of resources passed as tool arguments.
const inlineResourceName = "inline"

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg    *contract.Config
	checker    contract.Checker
	normalizer *normalize.Normalizer
}

func newToolHandler(baseCfg *contract.Config, checker contract.Checker) *toolHandler {
	if baseCfg == nil {
		baseCfg = contract.DefaultConfig()
	}
	return &toolHandler{
		baseCfg:    baseCfg,
		checker:    checker,
		normalizer: normalize.New(baseCfg.Normalization),
	}
}

// directoryResult is the payload of validate_directory.
type directoryResult struct {
	Report schema.BatchValidationReport `json:"report"`
	CI     schema.CiSummary             `json:"ci"`
}

// normalizedValue is the payload of normalize_value.
type normalizedValue struct {
	Kind  schema.NormalizeKind `json:"kind"`
	Value string               `json:"value,omitempty"`
	OK    bool                 `json:"ok"`
}

func (h *toolHandler) handleValidateResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil || strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	ct, err := parser.ParseContentType(request.GetString("content_type", string(schema.JSONContent)))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid content_type: %v", err)), nil
	}

	cfg := h.baseCfg.Clone()
	profiles := profilesArg(request, cfg.Profiles)

	o := core.NewOrchestrator(h.checker, cfg)
	result, err := o.ValidateContent(ctx, inlineResourceName, []byte(content), ct, profiles)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleValidateDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("directory")
	if err != nil || strings.TrimSpace(dir) == "" {
		return mcp.NewToolResultError("directory is required"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.PassThreshold = request.GetFloat("pass_threshold", cfg.PassThreshold)
	if p := strings.TrimSpace(request.GetString("pattern", "")); p != "" {
		cfg.Pattern = p
	}
	profiles := profilesArg(request, cfg.Profiles)

	// Reject a bad threshold before touching the file system
	if _, err := core.NewCIDecisionBuilder(schema.BatchValidationReport{}, cfg.PassThreshold).ValidateThreshold(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid pass_threshold: %v", err)), nil
	}

	o := core.NewOrchestrator(h.checker, cfg)
	report, err := o.ValidateDirectory(ctx, dir, cfg.Pattern, profiles, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}

	ci, err := core.EvaluateCI(report, cfg.PassThreshold)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("policy evaluation failed: %v", err)), nil
	}
	return jsonResult(directoryResult{Report: report.WithSummary(ci.Decided), CI: ci})
}

func (h *toolHandler) handleNormalizeValue(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind is required"), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError("value is required"), nil
	}

	k := schema.NormalizeKind(strings.ToLower(strings.TrimSpace(kind)))
	out, ok, err := h.normalizer.Value(k, value, request.GetString("country", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(normalizedValue{Kind: k, Value: out, OK: ok})
}

// profilesArg reads the comma-separated profiles argument, falling back to defaults.
func profilesArg(request mcp.CallToolRequest, defaults []string) []string {
	raw := request.GetString("profiles", "")
	var profiles []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			profiles = append(profiles, p)
		}
	}
	if len(profiles) == 0 {
		return defaults
	}
	return profiles
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
