package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petski/rector-src/pkg/rules/registry"
	"github.com/petski/rector-src/pkg/rules/rule"
)

func TestRegistryKnowsBuiltins(t *testing.T) {
	t.Parallel()

	names := registry.NewRegistry().Names()

	assert.Equal(t, []string{
		"array_merge_to_spread",
		"param_type_to_interface",
		"pseudo_namespace_to_namespace",
		"rename_class",
		"typed_property_from_assigns",
	}, names)
}

func TestRegistryBuildPreservesEntryOrder(t *testing.T) {
	t.Parallel()

	rules, err := registry.NewRegistry().Build([]registry.Entry{
		{Rule: "array_merge_to_spread"},
		{Rule: "typed_property_from_assigns"},
	})
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "array_merge_to_spread", rules[0].Name())
	assert.Equal(t, "typed_property_from_assigns", rules[1].Name())
}

func TestRegistryBuildConfiguresRules(t *testing.T) {
	t.Parallel()

	rules, err := registry.NewRegistry().Build([]registry.Entry{
		{
			Rule: "pseudo_namespace_to_namespace",
			With: map[string]any{
				"mappings": []any{
					map[string]any{"prefix": "Some_"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, rules, 1)

	mappings := registry.CollectDocMappings(rules)
	require.Len(t, mappings.Prefixes, 1)
	assert.Equal(t, "Some_", mappings.Prefixes[0].Prefix)
}

func TestRegistryBuildFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entry    registry.Entry
		expected error
	}{
		{
			"unknown rule",
			registry.Entry{Rule: "does_not_exist"},
			registry.ErrUnknownRule,
		},
		{
			"payload for plain rule",
			registry.Entry{Rule: "array_merge_to_spread", With: map[string]any{"x": 1}},
			registry.ErrNotConfigurable,
		},
		{
			"schema violation",
			registry.Entry{
				Rule: "pseudo_namespace_to_namespace",
				With: map[string]any{"mappings": "Some_"},
			},
			registry.ErrInvalidPayload,
		},
		{
			"unknown payload key",
			registry.Entry{
				Rule: "rename_class",
				With: map[string]any{"renames": map[string]any{"A": "B"}, "extra": true},
			},
			registry.ErrInvalidPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := registry.NewRegistry().Build([]registry.Entry{tt.entry})
			require.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestRegistrySuggestsClosestName(t *testing.T) {
	t.Parallel()

	_, err := registry.NewRegistry().Build([]registry.Entry{{Rule: "rename_clas"}})

	require.ErrorIs(t, err, registry.ErrUnknownRule)
	assert.Contains(t, err.Error(), `did you mean "rename_class"?`)
}

func TestRegistryDescribe(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry()

	described, err := reg.Describe("rename_class")
	require.NoError(t, err)

	_, configurable := described.(rule.Configurable)
	assert.True(t, configurable)
	assert.NotEmpty(t, described.Description())

	_, err = reg.Describe("nope")
	require.ErrorIs(t, err, registry.ErrUnknownRule)
}
