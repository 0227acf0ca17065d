package arrays_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/parser"
	"github.com/petski/rector-src/pkg/rules/arrays"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// firstCall parses a one-statement method body and returns its call node.
func firstCall(t *testing.T, expr string) *node.Node {
	t.Helper()

	src := "<?php\nclass C\n{\n    public function m($more)\n    {\n        return " + expr + ";\n    }\n}\n"

	root, err := parser.NewParser().Parse("c.php", []byte(src))
	require.NoError(t, err)

	calls := root.Find(func(n *node.Node) bool { return n.Type == node.TypeCall })
	require.NotEmpty(t, calls)

	return calls[0]
}

func TestArrayMergeUnpacksLiteralsAndSpreadsExprs(t *testing.T) {
	t.Parallel()

	call := firstCall(t, "array_merge([1, 2], $more, items())")

	result, err := arrays.NewArrayMergeToSpreadRule().Refactor(rule.NewContext("c.php"), call)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, node.TypeArray, result.Type)

	require.Len(t, result.Children, 4)
	assert.Equal(t, node.TypeArrayItem, result.Children[0].Type)
	assert.Equal(t, node.TypeArrayItem, result.Children[1].Type)
	assert.Equal(t, node.TypeSpread, result.Children[2].Type)
	assert.Equal(t, node.TypeVariable, result.Children[2].Children[0].Type)
	assert.Equal(t, node.TypeSpread, result.Children[3].Type)
	assert.Equal(t, node.TypeCall, result.Children[3].Children[0].Type)
}

func TestArrayMergeKeepsKeyedLiterals(t *testing.T) {
	t.Parallel()

	call := firstCall(t, "array_merge(['k' => 'v'], $more)")

	result, err := arrays.NewArrayMergeToSpreadRule().Refactor(rule.NewContext("c.php"), call)
	require.NoError(t, err)
	assert.Nil(t, result, "string keys cannot be expressed with spreads")
}

func TestArrayMergeIgnoresOtherCalls(t *testing.T) {
	t.Parallel()

	r := arrays.NewArrayMergeToSpreadRule()

	other := firstCall(t, "array_filter($more)")

	result, err := r.Refactor(rule.NewContext("c.php"), other)
	require.NoError(t, err)
	assert.Nil(t, result)

	empty := firstCall(t, "array_merge()")

	result, err = r.Refactor(rule.NewContext("c.php"), empty)
	require.NoError(t, err)
	assert.Nil(t, result, "a zero-argument merge has no spread form worth emitting")
}
