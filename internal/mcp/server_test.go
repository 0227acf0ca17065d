package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerRegistersTools(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	assert.Equal(t, []string{ToolNameListRules, ToolNamePreview}, srv.ListToolNames())
}

func TestListRulesTool(t *testing.T) {
	t.Parallel()

	result, output, err := handleListRules(context.Background(), nil, ListRulesInput{})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	infos, ok := output.Data.([]RuleInfo)
	require.True(t, ok)
	require.Len(t, infos, 5)
	assert.Equal(t, "array_merge_to_spread", infos[0].Name)
	assert.False(t, infos[0].Configurable)
	assert.Equal(t, "rename_class", infos[3].Name)
	assert.True(t, infos[3].Configurable)
}

func TestPreviewToolRewritesWithoutWriting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "basket.php")
	src := []byte("<?php\n\nclass Basket\n{\n    public function combine($more)\n    {\n        return array_merge([1], $more);\n    }\n}\n")
	require.NoError(t, os.WriteFile(path, src, 0o600))

	input := PreviewInput{
		Paths: []string{dir},
		Rules: []RuleActivation{{Rule: "array_merge_to_spread"}},
	}

	result, output, err := handlePreview(context.Background(), nil, input)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	preview, ok := output.Data.(PreviewResult)
	require.True(t, ok)
	assert.Equal(t, 1, preview.Scanned)
	require.Len(t, preview.Diffs, 1)
	assert.Contains(t, preview.Diffs[0].Diff, "+        return [1, ...$more];")
	assert.Empty(t, preview.Failures)

	// Preview never writes back.
	after, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, src, after)
}

func TestPreviewToolValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    PreviewInput
		expected string
	}{
		{
			"missing paths",
			PreviewInput{Rules: []RuleActivation{{Rule: "array_merge_to_spread"}}},
			ErrNoPaths.Error(),
		},
		{
			"missing rules",
			PreviewInput{Paths: []string{"."}},
			ErrNoRules.Error(),
		},
		{
			"unknown rule",
			PreviewInput{Paths: []string{"."}, Rules: []RuleActivation{{Rule: "nope"}}},
			"unknown rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, _, err := handlePreview(context.Background(), nil, tt.input)

			require.NoError(t, err, "validation failures surface as tool errors, not protocol errors")
			require.NotNil(t, result)
			assert.True(t, result.IsError)

			require.Len(t, result.Content, 1)
			text, ok := result.Content[0].(*mcpsdk.TextContent)
			require.True(t, ok)
			assert.Contains(t, text.Text, tt.expected)
		})
	}
}
