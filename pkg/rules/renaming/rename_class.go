package renaming

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/docblock"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// ErrBadRename is the sentinel for malformed rename payloads.
var ErrBadRename = errors.New("invalid class rename mapping")

const renameClassSchema = `{
  "type": "object",
  "required": ["renames"],
  "additionalProperties": false,
  "properties": {
    "renames": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "string", "minLength": 1}
    }
  }
}`

// RenameClassRule replaces configured class names wherever they are
// referenced: extends and implements clauses, instantiations, parameter and
// property types, and use imports. Declarations matching an old name are
// renamed to the new name's final segment.
type RenameClassRule struct {
	renames map[string]string
}

// NewRenameClassRule creates the rule unconfigured.
func NewRenameClassRule() *RenameClassRule {
	return &RenameClassRule{}
}

// Name implements rule.Rule.
func (r *RenameClassRule) Name() string {
	return "rename_class"
}

// Description implements rule.Rule.
func (r *RenameClassRule) Description() string {
	return "Replace old class names with their configured successors"
}

// NodeTypes implements rule.Rule.
func (r *RenameClassRule) NodeTypes() []node.Type {
	return []node.Type{node.TypeName, node.TypeIdentifier}
}

// Schema implements rule.Configurable.
func (r *RenameClassRule) Schema() string {
	return renameClassSchema
}

// Configure implements rule.Configurable.
func (r *RenameClassRule) Configure(payload map[string]any) error {
	rawRenames, ok := payload["renames"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: renames must be an object", ErrBadRename)
	}

	r.renames = make(map[string]string, len(rawRenames))

	for old, rawReplacement := range rawRenames {
		replacement, replacementOk := rawReplacement.(string)
		if !replacementOk || replacement == "" {
			return fmt.Errorf("%w: replacement for %q must be a non-empty string", ErrBadRename, old)
		}

		r.renames[strings.TrimPrefix(old, "\\")] = replacement
	}

	return nil
}

// DocMappings exposes the configured renames to the annotation rewriter.
func (r *RenameClassRule) DocMappings() docblock.Mappings {
	return docblock.Mappings{Renames: r.renames}
}

// Refactor implements rule.Rule.
func (r *RenameClassRule) Refactor(_ *rule.Context, target *node.Node) (*node.Node, error) {
	if len(r.renames) == 0 {
		return nil, nil
	}

	replacement, ok := r.renames[strings.TrimPrefix(target.Token, "\\")]
	if !ok {
		return nil, nil
	}

	if target.Type == node.TypeIdentifier {
		replacement = node.LastSegment(replacement)
	}

	// A namespaced successor can share its final segment with the old name,
	// leaving a declaration token that needs no edit. Reporting a fresh node
	// here would count as a change on every pass and never converge.
	if replacement == target.Token {
		return nil, nil
	}

	renamed := node.NewWithToken(target.Type, replacement)
	renamed.Roles = slices.Clone(target.Roles)

	return renamed, nil
}
