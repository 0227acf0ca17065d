// Package arrays holds rules that modernize array construction expressions.
package arrays

import (
	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// ArrayMergeToSpreadRule replaces array_merge calls with array spread
// literals: array_merge($a, [1, 2], items()) becomes [...$a, 1, 2,
// ...items()].
//
// Literal array arguments are unpacked inline rather than spread. The call
// is left untouched when any literal argument carries a keyed item, since
// the spread operator only accepts list-shaped arrays.
type ArrayMergeToSpreadRule struct{}

// NewArrayMergeToSpreadRule creates the rule.
func NewArrayMergeToSpreadRule() *ArrayMergeToSpreadRule {
	return &ArrayMergeToSpreadRule{}
}

// Name implements rule.Rule.
func (r *ArrayMergeToSpreadRule) Name() string {
	return "array_merge_to_spread"
}

// Description implements rule.Rule.
func (r *ArrayMergeToSpreadRule) Description() string {
	return "Replace array_merge calls with array spread literals"
}

// NodeTypes implements rule.Rule.
func (r *ArrayMergeToSpreadRule) NodeTypes() []node.Type {
	return []node.Type{node.TypeCall}
}

// Refactor implements rule.Rule.
func (r *ArrayMergeToSpreadRule) Refactor(_ *rule.Context, target *node.Node) (*node.Node, error) {
	if !isArrayMergeCall(target) {
		return nil, nil
	}

	arguments := target.ChildrenWithRole(node.RoleArgument)
	if len(arguments) == 0 {
		return nil, nil
	}

	for _, argument := range arguments {
		if argument.Type == node.TypeArray && hasKeyedItem(argument) {
			return nil, nil
		}
	}

	spreadArray := node.New(node.TypeArray)

	for _, argument := range arguments {
		if argument.Type == node.TypeArray {
			// Inline the literal's items instead of spreading a fresh array.
			spreadArray.Children = append(spreadArray.Children, argument.Children...)

			continue
		}

		spread := node.New(node.TypeSpread)
		spread.AddChild(argument)
		spreadArray.AddChild(spread)
	}

	return spreadArray, nil
}

func isArrayMergeCall(call *node.Node) bool {
	if len(call.Children) == 0 {
		return false
	}

	callee := call.Children[0]

	return callee.Type == node.TypeName && callee.Token == "array_merge"
}

func hasKeyedItem(array *node.Node) bool {
	for _, item := range array.ChildrenOfType(node.TypeArrayItem) {
		if item.ChildWithRole(node.RoleKey) != nil {
			return true
		}
	}

	return false
}
