package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/petski/rector-src/internal/config"
	"github.com/petski/rector-src/internal/runner"
	"github.com/petski/rector-src/pkg/rules/registry"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// Tool name constants.
const (
	ToolNamePreview   = "rector_preview"
	ToolNameListRules = "rector_list_rules"
)

// Sentinel errors for tool input validation.
var (
	// ErrNoPaths indicates the paths parameter is empty.
	ErrNoPaths = errors.New("paths parameter is required and must not be empty")
	// ErrNoRules indicates the rules parameter is empty.
	ErrNoRules = errors.New("rules parameter is required and must not be empty")
)

// Input types (auto-generate JSON schemas via struct tags).

// RuleActivation names one registered rule plus its optional payload.
type RuleActivation struct {
	Rule string         `json:"rule"           jsonschema:"registered rule identifier"`
	With map[string]any `json:"with,omitempty" jsonschema:"optional rule configuration payload"`
}

// PreviewInput is the input schema for the rector_preview tool.
type PreviewInput struct {
	MaxPasses int              `json:"max_passes,omitempty" jsonschema:"convergence pass cap (default 10)"`
	Paths     []string         `json:"paths"                jsonschema:"files or directories to preview"`
	Rules     []RuleActivation `json:"rules"                jsonschema:"ordered rule activations to apply"`
}

// ListRulesInput is the input schema for the rector_list_rules tool. It has
// no parameters.
type ListRulesInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// PreviewDiff is one previewed file change.
type PreviewDiff struct {
	Path         string `json:"path"`
	Diff         string `json:"diff"`
	Passes       int    `json:"passes"`
	Applications int    `json:"applications"`
}

// PreviewFailure is one file that could not be processed.
type PreviewFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// PreviewResult is the structured output of the rector_preview tool.
type PreviewResult struct {
	Scanned  int              `json:"scanned"`
	Lines    int              `json:"lines"`
	Diffs    []PreviewDiff    `json:"diffs"`
	Failures []PreviewFailure `json:"failures,omitempty"`
}

// RuleInfo describes one registered rule.
type RuleInfo struct {
	Name         string `json:"name"`
	Configurable bool   `json:"configurable"`
	Description  string `json:"description"`
}

// handlePreview processes rector_preview tool calls. It runs the full
// pipeline in dry-run mode; nothing is written back.
func handlePreview(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input PreviewInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if len(input.Paths) == 0 {
		return errorResult(ErrNoPaths)
	}

	if len(input.Rules) == 0 {
		return errorResult(ErrNoRules)
	}

	entries := make([]registry.Entry, 0, len(input.Rules))
	for _, activation := range input.Rules {
		entries = append(entries, registry.Entry{Rule: activation.Rule, With: activation.With})
	}

	rules, err := registry.NewRegistry().Build(entries)
	if err != nil {
		return errorResult(fmt.Errorf("build rules: %w", err))
	}

	run := runner.New(runner.Options{
		Rules:        rules,
		DocMappings:  registry.CollectDocMappings(rules),
		MaxPasses:    input.MaxPasses,
		Extensions:   config.DefaultExtensions,
		SkipVendored: config.DefaultSkipVendored,
	})

	report, err := run.Run(ctx, input.Paths)
	if err != nil {
		return errorResult(fmt.Errorf("preview: %w", err))
	}

	result := PreviewResult{
		Scanned: report.Scanned,
		Lines:   report.Lines,
		Diffs:   make([]PreviewDiff, 0, len(report.Changes)),
	}

	for _, change := range report.Changes {
		result.Diffs = append(result.Diffs, PreviewDiff{
			Path:         change.Path,
			Diff:         change.Diff,
			Passes:       change.Passes,
			Applications: change.Applications,
		})
	}

	for _, failure := range report.Errors {
		result.Failures = append(result.Failures, PreviewFailure{
			Path:  failure.Path,
			Error: failure.Err.Error(),
		})
	}

	return jsonResult(result)
}

// handleListRules processes rector_list_rules tool calls.
func handleListRules(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ ListRulesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	reg := registry.NewRegistry()

	infos := make([]RuleInfo, 0, len(reg.Names()))

	for _, name := range reg.Names() {
		described, err := reg.Describe(name)
		if err != nil {
			return errorResult(err)
		}

		_, configurable := described.(rule.Configurable)

		infos = append(infos, RuleInfo{
			Name:         name,
			Configurable: configurable,
			Description:  described.Description(),
		})
	}

	return jsonResult(infos)
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
