package typing

import (
	"slices"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// TypedPropertyFromAssignsRule adds a native type declaration to untyped
// properties whose only write is a constructor assignment from a typed
// parameter. Properties written more than once, or from untyped sources,
// stay untyped.
type TypedPropertyFromAssignsRule struct{}

// NewTypedPropertyFromAssignsRule creates the rule.
func NewTypedPropertyFromAssignsRule() *TypedPropertyFromAssignsRule {
	return &TypedPropertyFromAssignsRule{}
}

// Name implements rule.Rule.
func (r *TypedPropertyFromAssignsRule) Name() string {
	return "typed_property_from_assigns"
}

// Description implements rule.Rule.
func (r *TypedPropertyFromAssignsRule) Description() string {
	return "Add property types inferred from single constructor assignments"
}

// NodeTypes implements rule.Rule.
func (r *TypedPropertyFromAssignsRule) NodeTypes() []node.Type {
	return []node.Type{node.TypeProperty}
}

// Refactor implements rule.Rule.
func (r *TypedPropertyFromAssignsRule) Refactor(rctx *rule.Context, target *node.Node) (*node.Node, error) {
	if rctx.Scope == nil || target.ChildWithRole(node.RoleType) != nil {
		return nil, nil
	}

	class, ok := rctx.Scope.ClassScope(target)
	if !ok {
		return nil, nil
	}

	prop, ok := class.Properties[target.Token]
	if !ok || prop.AssignCount != 1 || prop.ConstructorParamType == "" {
		return nil, nil
	}

	typeName := node.NewWithToken(node.TypeName, prop.ConstructorParamType)
	typeName.Roles = []node.Role{node.RoleType}

	insertAt := r.typePosition(target)
	target.Children = slices.Insert(target.Children, insertAt, typeName)

	// The declaration gains a token between its modifiers and the variable,
	// so the whole property line is re-rendered.
	target.MarkDirty()

	return target, nil
}

// typePosition finds the child slot the type declaration belongs in: after a
// leading doc comment, before the variable.
func (r *TypedPropertyFromAssignsRule) typePosition(property *node.Node) int {
	for idx, child := range property.Children {
		if child.Type != node.TypeDocComment {
			return idx
		}
	}

	return len(property.Children)
}
