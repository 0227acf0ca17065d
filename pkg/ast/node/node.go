// Package node provides the canonical AST node structure and operations for
// tree traversal, querying, and structural rewriting.
package node

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// Node type constants. One tag per syntax construct.
const (
	TypeFile          Type = "File"
	TypeNamespace     Type = "Namespace"
	TypeUse           Type = "Use"
	TypeClass         Type = "Class"
	TypeInterface     Type = "Interface"
	TypeProperty      Type = "Property"
	TypeMethod        Type = "Method"
	TypeParam         Type = "Param"
	TypeBlock         Type = "Block"
	TypeExprStmt      Type = "ExprStmt"
	TypeReturn        Type = "Return"
	TypeAssign        Type = "Assign"
	TypeCall          Type = "Call"
	TypeMethodCall    Type = "MethodCall"
	TypeNew           Type = "New"
	TypeArray         Type = "Array"
	TypeArrayItem     Type = "ArrayItem"
	TypeSpread        Type = "Spread"
	TypeName          Type = "Name"
	TypeIdentifier    Type = "Identifier"
	TypeVariable      Type = "Variable"
	TypeScalar        Type = "Scalar"
	TypePropertyFetch Type = "PropertyFetch"
	TypeDocComment    Type = "DocComment"

	// TypeNodeList is a synthetic container whose children are spliced into
	// the parent's child list in place of the node that produced it.
	TypeNodeList Type = "NodeList"
)

// Role constants for syntactic labeling of child nodes.
const (
	RoleName       = "Name"
	RoleType       = "Type"
	RoleReturnType = "ReturnType"
	RoleExtends    = "Extends"
	RoleImplements = "Implements"
	RoleKey        = "Key"
	RoleValue      = "Value"
	RoleDefault    = "Default"
	RoleArgument   = "Argument"
	RoleTarget     = "Target"
)

// Property bag keys used by the rewrite engine.
const (
	// PropDirty marks a node whose subtree must be re-rendered by the
	// printer instead of being copied from the original source span.
	PropDirty = "dirty"
)

// Type represents the variant tag identifying which syntax construct a node
// represents.
type Type string

// Role represents a syntactic label for a node relative to its parent.
type Role string

// Span holds the byte and line/col offsets of a node in the original source.
// Line and Col are 1-based; StartOffset and EndOffset are byte offsets.
type Span struct {
	StartLine   uint `json:"start_line,omitempty"`
	StartCol    uint `json:"start_col,omitempty"`
	StartOffset uint `json:"start_offset,omitempty"`
	EndLine     uint `json:"end_line,omitempty"`
	EndCol      uint `json:"end_col,omitempty"`
	EndOffset   uint `json:"end_offset,omitempty"`
}

// Node is the canonical AST node structure.
//
// Fields:
//
//	ID: stable identity within one traversal pass; fresh per allocation.
//	Type: variant tag (e.g., "Class", "Call", "Identifier").
//	Token: string value for leaf nodes (names, scalars, raw doc text).
//	Roles: syntactic labels relative to the parent (see Role).
//	Pos: original source span (nil for synthesized nodes).
//	Props: mutable attribute bag for out-of-band facts, keyed by string.
//	Children: ordered, exclusively owned child nodes.
//
// Children are never shared between two parents. A node replaced in the tree
// is severed entirely; rules that want to reuse a subtree shape must Clone it.
type Node struct {
	ID       uint64            `json:"id,omitempty"`
	Token    string            `json:"token,omitempty"`
	Type     Type              `json:"type,omitempty"`
	Roles    []Role            `json:"roles,omitempty"`
	Pos      *Span             `json:"pos,omitempty"`
	Props    map[string]string `json:"props,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// nodeSeq issues stable node identities. Identity only has to be unique
// within a process, not across runs.
var nodeSeq atomic.Uint64 //nolint:gochecknoglobals // process-wide identity counter.

// nodePool is a [sync.Pool] for Node structs to reduce allocation overhead
// during parsing and rewriting.
//
//nolint:gochecknoglobals // Shared pool for node allocation performance.
var nodePool = sync.Pool{
	New: func() any {
		return &Node{}
	},
}

// New creates a new Node of the given type with a fresh identity.
func New(nodeType Type) *Node {
	poolNode, ok := nodePool.Get().(*Node)
	if !ok {
		poolNode = &Node{}
	}

	poolNode.ID = nodeSeq.Add(1)
	poolNode.Type = nodeType
	poolNode.Token = ""
	poolNode.Roles = nil
	poolNode.Pos = nil
	poolNode.Props = nil
	poolNode.Children = nil

	return poolNode
}

// NewWithToken creates a new Node with type and token.
func NewWithToken(nodeType Type, token string) *Node {
	created := New(nodeType)
	created.Token = token

	return created
}

// NewList creates a synthetic NodeList container around the given children.
// The traversal engine splices its children into the enclosing parent.
func NewList(children ...*Node) *Node {
	list := New(TypeNodeList)
	list.Children = children

	return list
}

// Release returns a Node to the pool for reuse. The caller must not retain
// any reference to the node afterwards.
func (targetNode *Node) Release() {
	targetNode.ID = 0
	targetNode.Type = ""
	targetNode.Token = ""
	targetNode.Roles = nil
	targetNode.Pos = nil
	targetNode.Props = nil
	targetNode.Children = nil
	nodePool.Put(targetNode)
}

// SetProp stores an out-of-band fact on the node's attribute bag.
func (targetNode *Node) SetProp(key, value string) {
	if targetNode.Props == nil {
		targetNode.Props = make(map[string]string)
	}

	targetNode.Props[key] = value
}

// Prop reads a fact from the node's attribute bag.
func (targetNode *Node) Prop(key string) (string, bool) {
	value, ok := targetNode.Props[key]

	return value, ok
}

// MarkDirty flags the node for re-rendering by the printer.
func (targetNode *Node) MarkDirty() {
	targetNode.SetProp(PropDirty, "true")
}

// Dirty reports whether the node itself is flagged for re-rendering.
func (targetNode *Node) Dirty() bool {
	_, ok := targetNode.Props[PropDirty]

	return ok
}

// SubtreeDirty reports whether the node or any descendant is flagged for
// re-rendering.
func (targetNode *Node) SubtreeDirty() bool {
	if targetNode == nil {
		return false
	}

	if targetNode.Dirty() || targetNode.Pos == nil {
		return true
	}

	for _, child := range targetNode.Children {
		if child.SubtreeDirty() {
			return true
		}
	}

	return false
}

// AddChild appends a child node.
func (targetNode *Node) AddChild(child *Node) {
	targetNode.Children = append(targetNode.Children, child)
}

// RemoveChild removes the first occurrence of the given child node.
// Returns true if the child was found and removed.
func (targetNode *Node) RemoveChild(child *Node) bool {
	for idx, candidate := range targetNode.Children {
		if candidate == child {
			targetNode.Children = slices.Delete(targetNode.Children, idx, idx+1)

			return true
		}
	}

	return false
}

// ReplaceChild replaces the first occurrence of old in Children with
// replacement. Returns true if replaced.
func (targetNode *Node) ReplaceChild(old, replacement *Node) bool {
	for idx, candidate := range targetNode.Children {
		if candidate == old {
			targetNode.Children[idx] = replacement

			return true
		}
	}

	return false
}

// Clone returns a deep copy of the subtree with fresh node identities.
// The copy shares no children with the original.
func (targetNode *Node) Clone() *Node {
	if targetNode == nil {
		return nil
	}

	copied := New(targetNode.Type)
	copied.Token = targetNode.Token

	if targetNode.Roles != nil {
		copied.Roles = slices.Clone(targetNode.Roles)
	}

	if targetNode.Pos != nil {
		posCopy := *targetNode.Pos
		copied.Pos = &posCopy
	}

	if targetNode.Props != nil {
		copied.Props = make(map[string]string, len(targetNode.Props))
		for key, value := range targetNode.Props {
			copied.Props[key] = value
		}
	}

	if targetNode.Children != nil {
		copied.Children = make([]*Node, 0, len(targetNode.Children))
		for _, child := range targetNode.Children {
			copied.Children = append(copied.Children, child.Clone())
		}
	}

	return copied
}

// Find returns all nodes in the tree (including root) for which
// predicate(node) is true. Traversal is pre-order. Returns nil if the
// receiver is nil.
func (targetNode *Node) Find(predicate func(*Node) bool) []*Node {
	if targetNode == nil {
		return nil
	}

	var found []*Node

	targetNode.VisitPreOrder(func(visited *Node) {
		if predicate(visited) {
			found = append(found, visited)
		}
	})

	return found
}

// FirstChildOfType returns the first direct child with the given type, or nil.
func (targetNode *Node) FirstChildOfType(childType Type) *Node {
	for _, child := range targetNode.Children {
		if child.Type == childType {
			return child
		}
	}

	return nil
}

// ChildrenOfType returns all direct children with the given type.
func (targetNode *Node) ChildrenOfType(childType Type) []*Node {
	var matched []*Node

	for _, child := range targetNode.Children {
		if child.Type == childType {
			matched = append(matched, child)
		}
	}

	return matched
}

// ChildWithRole returns the first direct child carrying the given role, or nil.
func (targetNode *Node) ChildWithRole(role Role) *Node {
	for _, child := range targetNode.Children {
		if slices.Contains(child.Roles, role) {
			return child
		}
	}

	return nil
}

// ChildrenWithRole returns all direct children carrying the given role.
func (targetNode *Node) ChildrenWithRole(role Role) []*Node {
	var matched []*Node

	for _, child := range targetNode.Children {
		if slices.Contains(child.Roles, role) {
			matched = append(matched, child)
		}
	}

	return matched
}

// HasAnyRole checks if the node carries any of the given roles.
func (targetNode *Node) HasAnyRole(roles ...Role) bool {
	if targetNode == nil || len(targetNode.Roles) == 0 {
		return false
	}

	for _, role := range roles {
		if slices.Contains(targetNode.Roles, role) {
			return true
		}
	}

	return false
}

// HasAnyType checks if the node has any of the given variant tags.
func (targetNode *Node) HasAnyType(nodeTypes ...Type) bool {
	if targetNode == nil {
		return false
	}

	return slices.Contains(nodeTypes, targetNode.Type)
}

// VisitPreOrder visits all nodes in pre-order (root, then children
// left-to-right).
func (targetNode *Node) VisitPreOrder(fn func(*Node)) {
	if targetNode == nil {
		return
	}

	fn(targetNode)

	for _, child := range targetNode.Children {
		child.VisitPreOrder(fn)
	}
}

// VisitPostOrder visits all nodes in post-order (children left-to-right,
// then root).
func (targetNode *Node) VisitPostOrder(fn func(*Node)) {
	if targetNode == nil {
		return
	}

	for _, child := range targetNode.Children {
		child.VisitPostOrder(fn)
	}

	fn(targetNode)
}

// CountNodes returns the number of nodes in the subtree including the root.
func (targetNode *Node) CountNodes() int {
	count := 0

	targetNode.VisitPreOrder(func(*Node) {
		count++
	})

	return count
}

// LastSegment returns the final segment of a backslash-qualified name token,
// e.g. "Foo\Bar" -> "Bar". Tokens without a separator are returned unchanged.
func LastSegment(qualified string) string {
	idx := strings.LastIndexByte(qualified, '\\')
	if idx < 0 {
		return qualified
	}

	return qualified[idx+1:]
}
