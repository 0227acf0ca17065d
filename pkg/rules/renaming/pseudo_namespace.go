// Package renaming bundles the rules that retarget type names: expanding
// underscore pseudo-namespaces into real namespaces and applying configured
// class renames.
package renaming

import (
	"errors"
	"fmt"
	"slices"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/docblock"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// ErrBadMapping is the sentinel for malformed pseudo-namespace payloads.
var ErrBadMapping = errors.New("invalid pseudo-namespace mapping")

// pseudoNamespaceSchema validates the configuration payload shape at
// startup, before any file is touched.
const pseudoNamespaceSchema = `{
  "type": "object",
  "required": ["mappings"],
  "additionalProperties": false,
  "properties": {
    "mappings": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["prefix"],
        "additionalProperties": false,
        "properties": {
          "prefix": {"type": "string", "minLength": 2},
          "excluded_names": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

// PseudoNamespaceToNamespaceRule rewrites underscore pseudo-namespaced
// identifiers like `Some_Chicken` into namespaced form `Some\Chicken` and
// inserts the resulting namespace declaration into files that lack one.
//
// All rewrites in one file must agree on a single target namespace; a
// disagreement between two configured prefixes is a fatal per-file
// configuration conflict.
type PseudoNamespaceToNamespaceRule struct {
	mappings docblock.Mappings
}

// NewPseudoNamespaceToNamespaceRule creates the rule unconfigured; it is an
// identity transform until Configure supplies mappings.
func NewPseudoNamespaceToNamespaceRule() *PseudoNamespaceToNamespaceRule {
	return &PseudoNamespaceToNamespaceRule{}
}

// Name implements rule.Rule.
func (r *PseudoNamespaceToNamespaceRule) Name() string {
	return "pseudo_namespace_to_namespace"
}

// Description implements rule.Rule.
func (r *PseudoNamespaceToNamespaceRule) Description() string {
	return "Replace underscore pseudo-namespace identifiers with real namespaces"
}

// NodeTypes implements rule.Rule.
func (r *PseudoNamespaceToNamespaceRule) NodeTypes() []node.Type {
	return []node.Type{node.TypeName, node.TypeIdentifier, node.TypeFile}
}

// Schema implements rule.Configurable.
func (r *PseudoNamespaceToNamespaceRule) Schema() string {
	return pseudoNamespaceSchema
}

// Configure implements rule.Configurable.
func (r *PseudoNamespaceToNamespaceRule) Configure(payload map[string]any) error {
	rawMappings, ok := payload["mappings"].([]any)
	if !ok {
		return fmt.Errorf("%w: mappings must be a list", ErrBadMapping)
	}

	for _, rawMapping := range rawMappings {
		entry, entryOk := rawMapping.(map[string]any)
		if !entryOk {
			return fmt.Errorf("%w: mapping entries must be objects", ErrBadMapping)
		}

		prefix, prefixOk := entry["prefix"].(string)
		if !prefixOk || prefix == "" {
			return fmt.Errorf("%w: prefix must be a non-empty string", ErrBadMapping)
		}

		mapping := docblock.PrefixMapping{Prefix: prefix}

		if rawExcluded, exists := entry["excluded_names"].([]any); exists {
			for _, rawName := range rawExcluded {
				name, nameOk := rawName.(string)
				if !nameOk {
					return fmt.Errorf("%w: excluded_names must be strings", ErrBadMapping)
				}

				mapping.ExcludedNames = append(mapping.ExcludedNames, name)
			}
		}

		r.mappings.Prefixes = append(r.mappings.Prefixes, mapping)
	}

	return nil
}

// DocMappings exposes the configured mappings to the annotation rewriter.
func (r *PseudoNamespaceToNamespaceRule) DocMappings() docblock.Mappings {
	return r.mappings
}

// Refactor implements rule.Rule.
func (r *PseudoNamespaceToNamespaceRule) Refactor(rctx *rule.Context, target *node.Node) (*node.Node, error) {
	if r.mappings.Empty() {
		return nil, nil
	}

	if target.Type == node.TypeFile {
		return r.insertNamespace(rctx, target)
	}

	rewritten, changed, namespace := r.mappings.RewriteName(target.Token)
	if !changed {
		return nil, nil
	}

	if namespace != "" {
		if err := docblock.ProposeNamespace(rctx, namespace); err != nil {
			return nil, err
		}
	}

	if target.Type == node.TypeIdentifier {
		// Declarations keep only the symbol name; the namespace part moves
		// into the file's namespace declaration.
		rewritten = node.LastSegment(rewritten)
	}

	replacement := node.NewWithToken(target.Type, rewritten)
	replacement.Roles = slices.Clone(target.Roles)

	return replacement, nil
}

// insertNamespace adds the chosen namespace declaration to a file that has
// none yet. The declaration is anchored as a zero-width span right before
// the first statement so the printer splices it without re-rendering the
// rest of the file.
func (r *PseudoNamespaceToNamespaceRule) insertNamespace(rctx *rule.Context, file *node.Node) (*node.Node, error) {
	namespace, ok := rctx.Fact(docblock.FactNamespace)
	if !ok || namespace == "" {
		return nil, nil
	}

	if file.FirstChildOfType(node.TypeNamespace) != nil {
		return nil, nil
	}

	anchor := uint(0)
	insertAt := 0

	if len(file.Children) > 0 && file.Children[0].Pos != nil {
		anchor = file.Children[0].Pos.StartOffset
	}

	name := node.NewWithToken(node.TypeName, namespace)
	name.Roles = []node.Role{node.RoleName}

	decl := node.New(node.TypeNamespace)
	decl.AddChild(name)
	decl.Pos = &node.Span{StartOffset: anchor, EndOffset: anchor}
	decl.SetProp("suffix", "\n\n")
	decl.MarkDirty()

	file.Children = slices.Insert(file.Children, insertAt, decl)

	return file, nil
}
