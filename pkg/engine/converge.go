package engine

import (
	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
	"github.com/petski/rector-src/pkg/scope"
)

// DefaultMaxPasses is the conservative bound on convergence passes. One
// rule's output can create a pattern another rule recognizes, so a single
// pass is insufficient; an unbounded chain indicates a rule-authoring bug.
const DefaultMaxPasses = 10

// Result summarizes one convergence run over a single file.
type Result struct {
	// Passes is the number of full-tree traversals performed.
	Passes int

	// Changed reports whether any pass rewrote anything.
	Changed bool

	// Exhausted is set when MaxPasses was reached while changes were still
	// occurring. The rewrite produced so far is still valid and must be
	// surfaced as a warning, not discarded.
	Exhausted bool

	// Applications is the total number of successful rule rewrites.
	Applications int

	// Overflows is the total number of single-node fixpoint overflows.
	Overflows int
}

// Converger repeats full-tree traversal until a pass reports no changes or
// the pass cap is hit.
type Converger struct {
	traverser *Traverser
	maxPasses int
}

// NewConverger creates a convergence driver. A non-positive maxPasses falls
// back to DefaultMaxPasses.
func NewConverger(index *Index, maxPasses int) *Converger {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	return &Converger{
		traverser: NewTraverser(index),
		maxPasses: maxPasses,
	}
}

// Run drives traversal passes over the tree until convergence. Before every
// pass the context's scope snapshot is rebuilt, because symbol facts do not
// survive structural changes from the previous pass.
func (c *Converger) Run(rctx *rule.Context, root *node.Node) (*node.Node, Result, error) {
	var result Result

	for pass := 1; pass <= c.maxPasses; pass++ {
		rctx.Scope = scope.NewResolver(root)

		rewritten, changed, stats, err := c.traverser.ApplyAll(rctx, root)
		if err != nil {
			return nil, result, err
		}

		root = rewritten
		result.Passes = pass
		result.Applications += stats.Applications
		result.Overflows += stats.Overflows

		if !changed {
			return root, result, nil
		}

		result.Changed = true
	}

	result.Exhausted = true

	return root, result, nil
}
