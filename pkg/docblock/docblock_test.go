package docblock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/docblock"
	"github.com/petski/rector-src/pkg/rules/rule"
)

func TestSplitPseudoNamespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ident    string
		expected []string
		ok       bool
	}{
		{"two segments", "Some_Chicken", []string{"Some", "Chicken"}, true},
		{"three segments", "Some_Sub_Egg", []string{"Some", "Sub", "Egg"}, true},
		{"no underscore", "Chicken", nil, false},
		{"leading underscore", "_internal", nil, false},
		{"trailing underscore", "Some_", nil, false},
		{"double underscore", "SOME__X", nil, false},
		{"digit after separator", "Some_1x", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			segments, ok := docblock.SplitPseudoNamespace(tt.ident)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, segments)
		})
	}
}

func TestMappingsRewriteName(t *testing.T) {
	t.Parallel()

	mappings := docblock.Mappings{
		Renames: map[string]string{"OldLogger": "NewLogger"},
		Prefixes: []docblock.PrefixMapping{
			{Prefix: "Some_", ExcludedNames: []string{"Some_Legacy"}},
		},
	}

	rewritten, changed, namespace := mappings.RewriteName("OldLogger")
	assert.True(t, changed)
	assert.Equal(t, "NewLogger", rewritten)
	assert.Empty(t, namespace)

	rewritten, changed, namespace = mappings.RewriteName("Some_Chicken")
	assert.True(t, changed)
	assert.Equal(t, "Some\\Chicken", rewritten)
	assert.Equal(t, "Some", namespace)

	_, changed, _ = mappings.RewriteName("Some_Legacy")
	assert.False(t, changed, "excluded names bypass the prefix rewrite")

	_, changed, _ = mappings.RewriteName("Untouched")
	assert.False(t, changed)

	rewritten, changed, _ = mappings.RewriteName("\\OldLogger")
	assert.True(t, changed, "a leading backslash does not hide the name")
	assert.Equal(t, "NewLogger", rewritten)
}

func TestProposeNamespaceConflict(t *testing.T) {
	t.Parallel()

	rctx := rule.NewContext("x.php")

	require.NoError(t, docblock.ProposeNamespace(rctx, "Some"))
	require.NoError(t, docblock.ProposeNamespace(rctx, "Some"), "re-proposing the same namespace is fine")

	err := docblock.ProposeNamespace(rctx, "Other")
	require.Error(t, err)

	var conflict *docblock.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Some", conflict.Existing)
	assert.Equal(t, "Other", conflict.Proposed)
	assert.Equal(t, "x.php", conflict.File)
}

func TestRewriterRewritesAnnotations(t *testing.T) {
	t.Parallel()

	mappings := docblock.Mappings{
		Renames:  map[string]string{"OldLogger": "NewLogger"},
		Prefixes: []docblock.PrefixMapping{{Prefix: "Some_"}},
	}
	rewriter := docblock.NewRewriter(mappings)
	rctx := rule.NewContext("x.php")

	doc := `/**
 * @param Some_Chicken $bird
 * @var OldLogger|null $log
 * @return ?Some_Egg
 * @throws Some_Error[]
 */`

	rewritten, changed, err := rewriter.RewriteDoc(rctx, doc)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Contains(t, rewritten, "@param Some\\Chicken $bird")
	assert.Contains(t, rewritten, "@var NewLogger|null $log")
	assert.Contains(t, rewritten, "@return ?Some\\Egg")
	assert.Contains(t, rewritten, "@throws Some\\Error[]")

	namespace, ok := rctx.Fact(docblock.FactNamespace)
	require.True(t, ok)
	assert.Equal(t, "Some", namespace)
}

func TestRewriterLeavesUnknownTypesAlone(t *testing.T) {
	t.Parallel()

	rewriter := docblock.NewRewriter(docblock.Mappings{
		Prefixes: []docblock.PrefixMapping{{Prefix: "Some_"}},
	})

	doc := "/** @param string $name */"

	rewritten, changed, err := rewriter.RewriteDoc(rule.NewContext("x.php"), doc)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, doc, rewritten)
}

func TestRewriterApplyWalksDocComments(t *testing.T) {
	t.Parallel()

	file := node.New(node.TypeFile)
	class := node.New(node.TypeClass)
	doc := node.NewWithToken(node.TypeDocComment, "/** @var Some_Chicken $c */")
	class.AddChild(doc)
	file.AddChild(class)

	rewriter := docblock.NewRewriter(docblock.Mappings{
		Prefixes: []docblock.PrefixMapping{{Prefix: "Some_"}},
	})

	changed, err := rewriter.Apply(rule.NewContext("x.php"), file)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "/** @var Some\\Chicken $c */", doc.Token)
	assert.True(t, doc.Dirty())
}

func TestRewriterSurfacesConflicts(t *testing.T) {
	t.Parallel()

	rewriter := docblock.NewRewriter(docblock.Mappings{
		Prefixes: []docblock.PrefixMapping{{Prefix: "Some_"}, {Prefix: "Other_"}},
	})

	doc := "/** @param Some_A $a\n * @param Other_B $b */"

	_, _, err := rewriter.RewriteDoc(rule.NewContext("x.php"), doc)

	var conflict *docblock.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "Some", conflict.Existing)
	assert.Equal(t, "Other", conflict.Proposed)
}
