package renaming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/docblock"
	"github.com/petski/rector-src/pkg/rules/renaming"
	"github.com/petski/rector-src/pkg/rules/rule"
)

func configuredPseudoRule(t *testing.T) *renaming.PseudoNamespaceToNamespaceRule {
	t.Helper()

	r := renaming.NewPseudoNamespaceToNamespaceRule()
	err := r.Configure(map[string]any{
		"mappings": []any{
			map[string]any{
				"prefix":         "Some_",
				"excluded_names": []any{"Some_Legacy"},
			},
		},
	})
	require.NoError(t, err)

	return r
}

func TestPseudoNamespaceConfigureRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing mappings", map[string]any{}},
		{"mappings not a list", map[string]any{"mappings": "Some_"}},
		{"entry not an object", map[string]any{"mappings": []any{"Some_"}}},
		{"empty prefix", map[string]any{"mappings": []any{map[string]any{"prefix": ""}}}},
		{"non-string exclusion", map[string]any{"mappings": []any{
			map[string]any{"prefix": "Some_", "excluded_names": []any{7}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := renaming.NewPseudoNamespaceToNamespaceRule().Configure(tt.payload)
			require.ErrorIs(t, err, renaming.ErrBadMapping)
		})
	}
}

func TestPseudoNamespaceRewritesReferences(t *testing.T) {
	t.Parallel()

	r := configuredPseudoRule(t)
	rctx := rule.NewContext("x.php")

	name := node.NewWithToken(node.TypeName, "Some_Chicken")
	name.Roles = []node.Role{node.RoleExtends}

	result, err := r.Refactor(rctx, name)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Some\\Chicken", result.Token)
	assert.Equal(t, []node.Role{node.RoleExtends}, result.Roles)

	namespace, ok := rctx.Fact(docblock.FactNamespace)
	require.True(t, ok)
	assert.Equal(t, "Some", namespace)
}

func TestPseudoNamespaceShortensDeclarations(t *testing.T) {
	t.Parallel()

	r := configuredPseudoRule(t)

	ident := node.NewWithToken(node.TypeIdentifier, "Some_Chicken")
	ident.Roles = []node.Role{node.RoleName}

	result, err := r.Refactor(rule.NewContext("x.php"), ident)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Chicken", result.Token, "declarations keep only the symbol name")
}

func TestPseudoNamespaceSkipsExcludedAndForeignNames(t *testing.T) {
	t.Parallel()

	r := configuredPseudoRule(t)
	rctx := rule.NewContext("x.php")

	for _, token := range []string{"Some_Legacy", "Other_Thing", "Chicken"} {
		result, err := r.Refactor(rctx, node.NewWithToken(node.TypeName, token))
		require.NoError(t, err)
		assert.Nil(t, result, token)
	}
}

func TestPseudoNamespaceInsertsDeclaration(t *testing.T) {
	t.Parallel()

	r := configuredPseudoRule(t)
	rctx := rule.NewContext("x.php")
	rctx.SetFact(docblock.FactNamespace, "Some")

	file := node.New(node.TypeFile)
	class := node.New(node.TypeClass)
	class.Pos = &node.Span{StartOffset: 7, EndOffset: 30}
	file.AddChild(class)

	result, err := r.Refactor(rctx, file)
	require.NoError(t, err)
	require.Same(t, file, result, "insertion is an in-place edit")

	decl := file.FirstChildOfType(node.TypeNamespace)
	require.NotNil(t, decl)
	assert.Same(t, decl, file.Children[0])
	assert.Equal(t, "Some", decl.FirstChildOfType(node.TypeName).Token)
	assert.True(t, decl.Dirty())

	require.NotNil(t, decl.Pos)
	assert.Equal(t, uint(7), decl.Pos.StartOffset)
	assert.Equal(t, uint(7), decl.Pos.EndOffset, "the declaration splices in without replacing bytes")

	// A second visit leaves the file alone.
	result, err = r.Refactor(rctx, file)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestPseudoNamespaceConflictAcrossPrefixes(t *testing.T) {
	t.Parallel()

	r := renaming.NewPseudoNamespaceToNamespaceRule()
	require.NoError(t, r.Configure(map[string]any{
		"mappings": []any{
			map[string]any{"prefix": "Some_"},
			map[string]any{"prefix": "Other_"},
		},
	}))

	rctx := rule.NewContext("x.php")

	_, err := r.Refactor(rctx, node.NewWithToken(node.TypeName, "Some_A"))
	require.NoError(t, err)

	_, err = r.Refactor(rctx, node.NewWithToken(node.TypeName, "Other_B"))

	var conflict *docblock.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Some", conflict.Existing)
	assert.Equal(t, "Other", conflict.Proposed)
}

func TestPseudoNamespaceDocMappings(t *testing.T) {
	t.Parallel()

	r := configuredPseudoRule(t)

	mappings := r.DocMappings()
	require.Len(t, mappings.Prefixes, 1)
	assert.Equal(t, "Some_", mappings.Prefixes[0].Prefix)
}
