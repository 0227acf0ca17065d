// Package registry maps rule names to constructors and builds configured
// rule sets from declarative configuration entries.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/petski/rector-src/pkg/docblock"
	"github.com/petski/rector-src/pkg/levenshtein"
	"github.com/petski/rector-src/pkg/rules/arrays"
	"github.com/petski/rector-src/pkg/rules/renaming"
	"github.com/petski/rector-src/pkg/rules/rule"
	"github.com/petski/rector-src/pkg/rules/typing"
)

var (
	// ErrUnknownRule is returned when configuration names a rule that is not
	// registered.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrNotConfigurable is returned when a payload is supplied for a rule
	// that accepts none.
	ErrNotConfigurable = errors.New("rule accepts no configuration")

	// ErrInvalidPayload is returned when a payload fails its rule's schema.
	ErrInvalidPayload = errors.New("invalid rule configuration")
)

// Factory constructs one fresh, unconfigured rule instance.
type Factory func() rule.Rule

// Entry is one configured rule activation: the registered name plus its
// optional payload.
type Entry struct {
	Rule string         `mapstructure:"rule" yaml:"rule"`
	With map[string]any `mapstructure:"with" yaml:"with,omitempty"`
}

// DocMappingProvider is implemented by rules that contribute mappings to the
// annotation rewriter.
type DocMappingProvider interface {
	DocMappings() docblock.Mappings
}

// Registry holds the known rule factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry preloaded with the built-in rules.
func NewRegistry() *Registry {
	reg := &Registry{factories: make(map[string]Factory)}

	reg.Register(func() rule.Rule { return renaming.NewPseudoNamespaceToNamespaceRule() })
	reg.Register(func() rule.Rule { return renaming.NewRenameClassRule() })
	reg.Register(func() rule.Rule { return arrays.NewArrayMergeToSpreadRule() })
	reg.Register(func() rule.Rule { return typing.NewParamTypeToInterfaceRule() })
	reg.Register(func() rule.Rule { return typing.NewTypedPropertyFromAssignsRule() })

	return reg
}

// Register adds a factory under the name its product reports. Registering
// the same name twice replaces the earlier factory.
func (reg *Registry) Register(factory Factory) {
	reg.factories[factory().Name()] = factory
}

// Names returns the registered rule names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.factories))
	for name := range reg.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Describe returns a fresh instance for inspection, without configuring it.
func (reg *Registry) Describe(name string) (rule.Rule, error) {
	factory, ok := reg.factories[name]
	if !ok {
		return nil, reg.unknownRule(name)
	}

	return factory(), nil
}

// unknownRule builds the lookup failure error, suggesting the closest
// registered name when one is within editing distance of a typo.
func (reg *Registry) unknownRule(name string) error {
	const maxTypoDistance = 5

	lev := &levenshtein.Context{}

	best := ""
	bestDistance := maxTypoDistance + 1

	for _, candidate := range reg.Names() {
		if distance := lev.Distance(name, candidate); distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	if best == "" {
		return fmt.Errorf("%w: %s", ErrUnknownRule, name)
	}

	return fmt.Errorf("%w: %s (did you mean %q?)", ErrUnknownRule, name, best)
}

// Build instantiates and configures the rules named by the entries,
// preserving entry order. Payloads are validated against each rule's JSON
// Schema before Configure runs, so a bad configuration fails before any file
// is touched.
func (reg *Registry) Build(entries []Entry) ([]rule.Rule, error) {
	rules := make([]rule.Rule, 0, len(entries))

	for _, entry := range entries {
		built, err := reg.buildOne(entry)
		if err != nil {
			return nil, err
		}

		rules = append(rules, built)
	}

	return rules, nil
}

func (reg *Registry) buildOne(entry Entry) (rule.Rule, error) {
	factory, ok := reg.factories[entry.Rule]
	if !ok {
		return nil, reg.unknownRule(entry.Rule)
	}

	built := factory()

	if len(entry.With) == 0 {
		return built, nil
	}

	configurable, ok := built.(rule.Configurable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigurable, entry.Rule)
	}

	if err := validatePayload(entry.Rule, configurable.Schema(), entry.With); err != nil {
		return nil, err
	}

	if err := configurable.Configure(entry.With); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, entry.Rule, err)
	}

	return built, nil
}

// validatePayload checks the payload against the rule's declared schema.
func validatePayload(name, schema string, payload map[string]any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, name, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(encoded),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, name, err)
	}

	if result.Valid() {
		return nil
	}

	violations := result.Errors()
	first := ""

	if len(violations) > 0 {
		first = violations[0].String()
	}

	return fmt.Errorf("%w: %s: %s", ErrInvalidPayload, name, first)
}

// CollectDocMappings merges the annotation mappings contributed by the
// configured rules.
func CollectDocMappings(rules []rule.Rule) docblock.Mappings {
	var merged docblock.Mappings

	for _, candidate := range rules {
		if provider, ok := candidate.(DocMappingProvider); ok {
			merged.Merge(provider.DocMappings())
		}
	}

	return merged
}
