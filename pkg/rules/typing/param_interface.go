// Package typing holds rules that widen or add type declarations based on
// the scope facts of the enclosing file.
package typing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// ErrBadPreference is the sentinel for malformed preference payloads.
var ErrBadPreference = errors.New("invalid interface preference")

const paramInterfaceSchema = `{
  "type": "object",
  "required": ["preferences"],
  "additionalProperties": false,
  "properties": {
    "preferences": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "string", "minLength": 1}
    }
  }
}`

// ParamTypeToInterfaceRule widens concrete parameter type declarations to a
// preferred interface. The widening only happens when the concrete class is
// declared in the same file and its declaration actually lists the preferred
// interface; unknown classes are left alone.
type ParamTypeToInterfaceRule struct {
	preferences map[string]string
}

// NewParamTypeToInterfaceRule creates the rule unconfigured.
func NewParamTypeToInterfaceRule() *ParamTypeToInterfaceRule {
	return &ParamTypeToInterfaceRule{}
}

// Name implements rule.Rule.
func (r *ParamTypeToInterfaceRule) Name() string {
	return "param_type_to_interface"
}

// Description implements rule.Rule.
func (r *ParamTypeToInterfaceRule) Description() string {
	return "Widen concrete parameter types to their preferred interface"
}

// NodeTypes implements rule.Rule.
func (r *ParamTypeToInterfaceRule) NodeTypes() []node.Type {
	return []node.Type{node.TypeParam}
}

// Schema implements rule.Configurable.
func (r *ParamTypeToInterfaceRule) Schema() string {
	return paramInterfaceSchema
}

// Configure implements rule.Configurable.
func (r *ParamTypeToInterfaceRule) Configure(payload map[string]any) error {
	rawPreferences, ok := payload["preferences"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: preferences must be an object", ErrBadPreference)
	}

	r.preferences = make(map[string]string, len(rawPreferences))

	for concrete, rawInterface := range rawPreferences {
		preferred, prefOk := rawInterface.(string)
		if !prefOk || preferred == "" {
			return fmt.Errorf("%w: interface for %q must be a non-empty string", ErrBadPreference, concrete)
		}

		r.preferences[strings.TrimPrefix(concrete, "\\")] = preferred
	}

	return nil
}

// Refactor implements rule.Rule.
func (r *ParamTypeToInterfaceRule) Refactor(rctx *rule.Context, target *node.Node) (*node.Node, error) {
	if len(r.preferences) == 0 || rctx.Scope == nil {
		return nil, nil
	}

	typeName := target.ChildWithRole(node.RoleType)
	if typeName == nil {
		return nil, nil
	}

	preferred, ok := r.preferences[strings.TrimPrefix(typeName.Token, "\\")]
	if !ok || typeName.Token == preferred {
		return nil, nil
	}

	concrete, known := rctx.Scope.Class(typeName.Token)
	if !known || !concrete.Implements(preferred) {
		return nil, nil
	}

	typeName.Token = preferred
	typeName.MarkDirty()

	return target, nil
}
