// Package engine hosts the rewrite machinery: the node-type rule index, the
// traversal engine that applies rules to an AST, and the convergence driver
// that repeats traversal until a fixed point.
package engine

import (
	"sort"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// Index maps each node variant tag to the ordered list of rules interested
// in it. Built once per run before traversal begins; read-only afterwards,
// safe to share across file-level workers.
type Index struct {
	byType map[node.Type][]rule.Rule
}

// BuildIndex registers every rule under each variant tag it declares
// interest in. Rule order per tag follows priority (higher first), ties
// keep the given configuration order.
func BuildIndex(rules []rule.Rule) *Index {
	index := &Index{byType: make(map[node.Type][]rule.Rule)}

	ordered := make([]rule.Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rule.PriorityOf(ordered[i]) > rule.PriorityOf(ordered[j])
	})

	for _, candidate := range ordered {
		for _, tag := range candidate.NodeTypes() {
			index.byType[tag] = append(index.byType[tag], candidate)
		}
	}

	return index
}

// RulesFor returns the rules interested in the given variant tag, in
// dispatch order. Returns nil when no rule registered for the tag; the
// traversal engine skips such visits without further work.
func (index *Index) RulesFor(tag node.Type) []rule.Rule {
	return index.byType[tag]
}

// Tags returns the number of distinct variant tags with registered rules.
func (index *Index) Tags() int {
	return len(index.byType)
}
