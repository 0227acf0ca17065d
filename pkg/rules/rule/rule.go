// Package rule defines the contract every transformation rule implements and
// the per-file context passed into rule invocations.
package rule

import (
	"github.com/petski/rector-src/pkg/ast/node"
)

// Remove is the sentinel a rule returns from Refactor to delete the visited
// node from the tree. Compared by pointer identity.
//
//nolint:gochecknoglobals // sentinel value, same discipline as sentinel errors.
var Remove = &node.Node{Type: "__remove__"}

// Consumed is the sentinel a rule returns to keep the node unchanged while
// stopping the remaining rules queued for the same node. Compared by pointer
// identity.
//
//nolint:gochecknoglobals // sentinel value, same discipline as sentinel errors.
var Consumed = &node.Node{Type: "__consumed__"}

// Rule is the contract every transformation rule implements.
//
// Refactor must behave as a pure function of the node plus the facts exposed
// through the Context: no cross-file mutable state. Per-file transient state
// is permitted through the Context's fact store, which the engine resets at
// the start of each file.
//
// Return values:
//
//	nil            - no change, the engine tries the next rule.
//	Remove         - delete the node (and its subtree) from the tree.
//	Consumed       - no change, stop further rules at this node.
//	any other node - replace the node; the engine re-dispatches against the
//	                 replacement's variant tag before descending.
//
// A returned replacement must not share children with other parts of the
// tree; use Clone when reusing subtree shapes. Returning the received node
// itself signals an in-place structural edit; the rule must then flag the
// exact subtrees it touched via MarkDirty. A non-nil error aborts the
// current file.
type Rule interface {
	Name() string
	Description() string

	// NodeTypes declares the non-empty set of variant tags the rule wants
	// to be invoked for.
	NodeTypes() []node.Type

	Refactor(rctx *Context, target *node.Node) (*node.Node, error)
}

// Configurable is implemented by rules accepting a configuration payload.
// Configure is called once at startup, after the payload was validated
// against the rule's JSON Schema; invalid shapes fail fast before any file
// is touched.
type Configurable interface {
	Rule

	// Schema returns the JSON Schema the payload must satisfy.
	Schema() string

	Configure(payload map[string]any) error
}

// Prioritized is implemented by rules that need to run before or after
// their peers on the same node. Higher priority runs earlier; the default
// is zero, ties keep configuration order.
type Prioritized interface {
	Priority() int
}

// PriorityOf returns the rule's ordering key.
func PriorityOf(candidate Rule) int {
	if prioritized, ok := candidate.(Prioritized); ok {
		return prioritized.Priority()
	}

	return 0
}
