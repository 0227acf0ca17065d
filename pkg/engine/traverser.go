package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// maxNodeRewrites bounds the single-node fixpoint loop. A chain this long
// means two rules keep rewriting each other's output on one node, which is
// a rule-authoring bug; the traversal keeps the last shape and reports an
// overflow instead of looping.
const maxNodeRewrites = 32

// ErrRootRemoved is returned when a rule removes the file root itself.
var ErrRootRemoved = errors.New("file root removed by rule")

// Stats accumulates counters for one traversal pass.
type Stats struct {
	// Applications counts successful rule rewrites.
	Applications int

	// Overflows counts nodes whose fixpoint loop hit maxNodeRewrites.
	Overflows int
}

// Traverser walks an AST depth-first and applies the indexed rules to every
// visited node. Parents are rewritten before their children so edits to a
// parent are visible when the children are processed.
type Traverser struct {
	index *Index
}

// NewTraverser creates a traverser over the given rule index.
func NewTraverser(index *Index) *Traverser {
	return &Traverser{index: index}
}

// ApplyAll performs one full traversal pass. It returns the (possibly
// replaced) root, whether any rule reported a change, and the pass stats.
func (t *Traverser) ApplyAll(rctx *rule.Context, root *node.Node) (*node.Node, bool, Stats, error) {
	walk := &walkState{rctx: rctx}

	result, removed, err := t.visit(walk, root)
	if err != nil {
		return nil, false, walk.stats, err
	}

	if removed {
		return nil, false, walk.stats, ErrRootRemoved
	}

	return result, walk.changed, walk.stats, nil
}

type walkState struct {
	rctx    *rule.Context
	changed bool
	stats   Stats
}

// seenKey guards the fixpoint loop: a rule is never invoked twice for the
// same node instance and variant tag within one single-node fixpoint.
type seenKey struct {
	ruleName string
	nodeID   uint64
	tag      node.Type
}

// visit applies the single-node fixpoint to current, then recurses into the
// children of the surviving node. The removed return reports that the node
// was deleted and owns no subtree to descend into.
func (t *Traverser) visit(walk *walkState, current *node.Node) (*node.Node, bool, error) {
	current, removed, err := t.fixpoint(walk, current)
	if err != nil || removed {
		return nil, removed, err
	}

	idx := 0
	for idx < len(current.Children) {
		child := current.Children[idx]

		newChild, childRemoved, childErr := t.visit(walk, child)
		if childErr != nil {
			return nil, false, childErr
		}

		if childRemoved {
			current.Children = slices.Delete(current.Children, idx, idx+1)
			current.MarkDirty()

			continue
		}

		if newChild.Type == node.TypeNodeList {
			// Splice inserted siblings into the parent; the new nodes are
			// picked up by the next convergence pass.
			current.Children = slices.Concat(
				current.Children[:idx],
				newChild.Children,
				current.Children[idx+1:],
			)
			current.MarkDirty()

			idx += len(newChild.Children)

			continue
		}

		if newChild != child {
			current.Children[idx] = newChild
		}

		idx++
	}

	return current, false, nil
}

// fixpoint dispatches the rules interested in the node's current variant
// tag, in priority order. After every replacement the tag is re-resolved
// and dispatch restarts against the new shape, so an earlier rule changing
// the node cannot hide it from later matches.
//
//nolint:cyclop // outcome dispatch: no-op, removal, consumed, replacement.
func (t *Traverser) fixpoint(walk *walkState, current *node.Node) (*node.Node, bool, error) {
	interested := t.index.RulesFor(current.Type)
	if len(interested) == 0 {
		return current, false, nil
	}

	seen := make(map[seenKey]struct{})
	rewrites := 0

	for {
		interested = t.index.RulesFor(current.Type)
		progressed := false

		for _, candidate := range interested {
			key := seenKey{ruleName: candidate.Name(), nodeID: current.ID, tag: current.Type}
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}

			result, err := candidate.Refactor(walk.rctx, current)
			if err != nil {
				return nil, false, fmt.Errorf("rule %s: %w", candidate.Name(), err)
			}

			if result == nil {
				continue
			}

			if result == rule.Remove {
				walk.changed = true
				walk.stats.Applications++

				return nil, true, nil
			}

			if result == rule.Consumed {
				return current, false, nil
			}

			current = t.acceptReplacement(current, result)
			walk.changed = true
			walk.stats.Applications++
			rewrites++

			if rewrites >= maxNodeRewrites {
				walk.stats.Overflows++

				return current, false, nil
			}

			progressed = true

			break
		}

		if !progressed {
			return current, false, nil
		}
	}
}

// acceptReplacement installs a rule's replacement node: it inherits the old
// node's source span (so the printer can splice around it) and is flagged
// for re-rendering. A rule returning the visited node itself signals an
// in-place structural edit; the rule then owns the dirty flags for the
// exact subtrees it touched.
func (t *Traverser) acceptReplacement(old, replacement *node.Node) *node.Node {
	if replacement == old {
		return replacement
	}

	if replacement.Pos == nil && old.Pos != nil {
		posCopy := *old.Pos
		replacement.Pos = &posCopy
	}

	replacement.MarkDirty()

	return replacement
}
