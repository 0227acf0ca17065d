package node //nolint:testpackage // Tests need access to internal types.

import (
	"reflect"
	"testing"
)

func makeTestTree() *Node {
	// Tree structure:
	//      file
	//     /    \
	//   class  use
	//   /   \
	// prop  method
	//         |
	//       param.
	file := &Node{ID: 1, Type: TypeFile}
	class := &Node{ID: 2, Type: TypeClass, Token: "Foo"}
	use := &Node{ID: 3, Type: TypeUse, Token: "Bar\\Baz"}
	prop := &Node{ID: 4, Type: TypeProperty, Token: "count"}
	method := &Node{ID: 5, Type: TypeMethod, Token: "run"}
	param := &Node{ID: 6, Type: TypeParam, Token: "input"}
	method.Children = []*Node{param}
	class.Children = []*Node{prop, method}
	file.Children = []*Node{class, use}

	return file
}

func TestNodeDefaults(t *testing.T) {
	t.Parallel()

	n := &Node{}

	if n.Pos != nil {
		t.Errorf("Default Pos should be nil")
	}

	if len(n.Props) != 0 {
		t.Errorf("Default Props should be empty")
	}

	if len(n.Children) != 0 {
		t.Errorf("Default Children should be empty")
	}
}

func TestNodeFind(t *testing.T) {
	t.Parallel()

	tree := makeTestTree()

	tests := []struct {
		name      string
		predicate func(*Node) bool
		expectIDs []uint64
	}{
		{"Find all", func(_ *Node) bool { return true }, []uint64{1, 2, 4, 5, 6, 3}},
		{"Find class", func(n *Node) bool { return n.Type == TypeClass }, []uint64{2}},
		{"Find none", func(_ *Node) bool { return false }, nil},
		{"Find leaf", func(n *Node) bool { return n.Token == "input" }, []uint64{6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			found := tree.Find(tt.predicate)

			var got []uint64 //nolint:prealloc // nil slice needed for DeepEqual comparison.

			for _, n := range found {
				got = append(got, n.ID)
			}

			if !reflect.DeepEqual(got, tt.expectIDs) {
				t.Errorf("Find() = %v, want %v", got, tt.expectIDs)
			}
		})
	}
}

func TestNodeReplaceChild(t *testing.T) {
	t.Parallel()

	tree := makeTestTree()
	class := tree.Children[0]
	replacement := NewWithToken(TypeInterface, "FooContract")

	if !tree.ReplaceChild(class, replacement) {
		t.Fatalf("ReplaceChild should succeed for a direct child")
	}

	if tree.Children[0] != replacement {
		t.Errorf("Children[0] should be the replacement node")
	}

	if tree.ReplaceChild(class, replacement) {
		t.Errorf("ReplaceChild should fail once the old node is severed")
	}
}

func TestNodeRemoveChild(t *testing.T) {
	t.Parallel()

	tree := makeTestTree()
	use := tree.Children[1]

	if !tree.RemoveChild(use) {
		t.Fatalf("RemoveChild should succeed for a direct child")
	}

	if len(tree.Children) != 1 {
		t.Errorf("expected 1 remaining child, got %d", len(tree.Children))
	}

	if tree.RemoveChild(use) {
		t.Errorf("RemoveChild should fail for an already-removed node")
	}
}

func TestNodeCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := makeTestTree()
	original.SetProp("path", "a.php")

	copied := original.Clone()

	if copied == original {
		t.Fatalf("Clone must allocate a new node")
	}

	if copied.ID == original.ID {
		t.Errorf("Clone must issue a fresh identity")
	}

	if copied.CountNodes() != original.CountNodes() {
		t.Errorf("Clone node count = %d, want %d", copied.CountNodes(), original.CountNodes())
	}

	copied.Children[0].Token = "Mutated"

	if original.Children[0].Token == "Mutated" {
		t.Errorf("mutating the clone must not affect the original")
	}

	copied.SetProp("path", "b.php")

	if got, _ := original.Prop("path"); got != "a.php" {
		t.Errorf("clone props must not alias original props")
	}
}

func TestSubtreeDirty(t *testing.T) {
	t.Parallel()

	tree := makeTestTree()

	tree.VisitPreOrder(func(n *Node) {
		n.Pos = &Span{StartOffset: 0, EndOffset: 1}
	})

	if tree.SubtreeDirty() {
		t.Fatalf("tree with spans and no dirty flags should be clean")
	}

	tree.Children[0].Children[1].MarkDirty()

	if !tree.SubtreeDirty() {
		t.Errorf("dirty descendant must propagate to SubtreeDirty")
	}

	if tree.Dirty() {
		t.Errorf("root itself should not be dirty")
	}
}

func TestChildLookups(t *testing.T) {
	t.Parallel()

	parent := New(TypeMethod)
	name := NewWithToken(TypeIdentifier, "run")
	name.Roles = []Role{RoleName}
	typeName := NewWithToken(TypeName, "string")
	typeName.Roles = []Role{RoleType}
	parent.AddChild(name)
	parent.AddChild(typeName)

	if got := parent.ChildWithRole(RoleName); got != name {
		t.Errorf("ChildWithRole(RoleName) = %v, want name child", got)
	}

	if got := parent.FirstChildOfType(TypeName); got != typeName {
		t.Errorf("FirstChildOfType(TypeName) = %v, want type child", got)
	}

	if got := parent.ChildWithRole(RoleDefault); got != nil {
		t.Errorf("ChildWithRole(RoleDefault) = %v, want nil", got)
	}

	if len(parent.ChildrenOfType(TypeIdentifier)) != 1 {
		t.Errorf("ChildrenOfType(TypeIdentifier) should find one child")
	}
}

func TestNodeListSplicing(t *testing.T) {
	t.Parallel()

	list := NewList(NewWithToken(TypeUse, "A"), NewWithToken(TypeUse, "B"))

	if list.Type != TypeNodeList {
		t.Errorf("NewList type = %s, want %s", list.Type, TypeNodeList)
	}

	if len(list.Children) != 2 {
		t.Errorf("NewList children = %d, want 2", len(list.Children))
	}
}

func TestLastSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		qualified string
		want      string
	}{
		{"Foo\\Bar", "Bar"},
		{"Foo\\Bar\\Baz", "Baz"},
		{"Plain", "Plain"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := LastSegment(tt.qualified); got != tt.want {
			t.Errorf("LastSegment(%q) = %q, want %q", tt.qualified, got, tt.want)
		}
	}
}
