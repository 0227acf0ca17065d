package printer

import (
	"strings"

	"github.com/petski/rector-src/pkg/ast/node"
)

// indentUnit is the indentation emitted for one nesting level when a
// subtree has to be rendered from scratch.
const indentUnit = "    "

// Render produces source text for a node without consulting the original
// input. Used for synthesized and rule-replaced subtrees.
func Render(current *node.Node) string {
	var sb strings.Builder

	renderInto(&sb, current, 0)

	return sb.String()
}

//nolint:cyclop,funlen,gocyclo // one case per node variant, flat by design.
func renderInto(sb *strings.Builder, current *node.Node, depth int) {
	if current == nil {
		return
	}

	switch current.Type {
	case node.TypeFile:
		sb.WriteString("<?php\n\n")
		renderJoined(sb, current.Children, "\n", depth)
		sb.WriteString("\n")
	case node.TypeNamespace:
		sb.WriteString("namespace ")
		renderInto(sb, current.FirstChildOfType(node.TypeName), depth)
		sb.WriteString(";")
	case node.TypeUse:
		sb.WriteString("use ")
		renderInto(sb, current.FirstChildOfType(node.TypeName), depth)
		sb.WriteString(";")
	case node.TypeClass, node.TypeInterface:
		renderClassLike(sb, current, depth)
	case node.TypeProperty:
		renderProperty(sb, current, depth)
	case node.TypeMethod:
		renderMethod(sb, current, depth)
	case node.TypeParam:
		renderParam(sb, current, depth)
	case node.TypeBlock:
		sb.WriteString("{\n")

		for _, stmt := range current.Children {
			sb.WriteString(strings.Repeat(indentUnit, depth+1))
			renderInto(sb, stmt, depth+1)
			sb.WriteString("\n")
		}

		sb.WriteString(strings.Repeat(indentUnit, depth))
		sb.WriteString("}")
	case node.TypeExprStmt:
		renderJoined(sb, current.Children, "", depth)
		sb.WriteString(";")
	case node.TypeReturn:
		sb.WriteString("return")

		if len(current.Children) > 0 {
			sb.WriteString(" ")
			renderInto(sb, current.Children[0], depth)
		}

		sb.WriteString(";")
	case node.TypeAssign:
		if len(current.Children) == 2 { //nolint:mnd // lhs and rhs.
			renderInto(sb, current.Children[0], depth)
			sb.WriteString(" = ")
			renderInto(sb, current.Children[1], depth)
		}
	case node.TypeCall:
		if len(current.Children) > 0 {
			renderInto(sb, current.Children[0], depth)
			renderArgs(sb, current.Children[1:], depth)
		}
	case node.TypeMethodCall:
		if len(current.Children) >= 2 { //nolint:mnd // target and name.
			renderInto(sb, current.Children[0], depth)
			sb.WriteString("->")
			renderInto(sb, current.Children[1], depth)
			renderArgs(sb, current.Children[2:], depth)
		}
	case node.TypeNew:
		if len(current.Children) > 0 {
			sb.WriteString("new ")
			renderInto(sb, current.Children[0], depth)
			renderArgs(sb, current.Children[1:], depth)
		}
	case node.TypePropertyFetch:
		if len(current.Children) >= 2 { //nolint:mnd // target and name.
			renderInto(sb, current.Children[0], depth)
			sb.WriteString("->")
			renderInto(sb, current.Children[1], depth)
		}
	case node.TypeArray:
		sb.WriteString("[")
		renderJoined(sb, current.Children, ", ", depth)
		sb.WriteString("]")
	case node.TypeArrayItem:
		if len(current.Children) == 2 {
			renderInto(sb, current.Children[0], depth)
			sb.WriteString(" => ")
			renderInto(sb, current.Children[1], depth)
		} else if len(current.Children) == 1 {
			renderInto(sb, current.Children[0], depth)
		}
	case node.TypeSpread:
		sb.WriteString("...")
		renderJoined(sb, current.Children, "", depth)
	case node.TypeName:
		if _, nullable := current.Prop("nullable"); nullable {
			sb.WriteString("?")
		}

		sb.WriteString(current.Token)
	case node.TypeIdentifier, node.TypeScalar:
		sb.WriteString(current.Token)
	case node.TypeVariable:
		sb.WriteString("$")
		sb.WriteString(current.Token)
	case node.TypeDocComment:
		sb.WriteString(current.Token)
	case node.TypeNodeList:
		renderJoined(sb, current.Children, "\n", depth)
	default:
		sb.WriteString(current.Token)
	}

	// Synthesized nodes spliced into existing text carry their separation
	// from the following bytes in a suffix prop, e.g. an inserted namespace
	// declaration followed by a blank line.
	if suffix, ok := current.Prop("suffix"); ok {
		sb.WriteString(suffix)
	}
}

func renderClassLike(sb *strings.Builder, current *node.Node, depth int) {
	if doc := current.FirstChildOfType(node.TypeDocComment); doc != nil {
		sb.WriteString(doc.Token)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(indentUnit, depth))
	}

	keyword := "class"
	if current.Type == node.TypeInterface {
		keyword = "interface"
	}

	sb.WriteString(keyword)
	sb.WriteString(" ")

	if own := current.ChildWithRole(node.RoleName); own != nil {
		sb.WriteString(own.Token)
	}

	if base := current.ChildWithRole(node.RoleExtends); base != nil {
		sb.WriteString(" extends ")
		renderInto(sb, base, depth)
	}

	if ifaces := current.ChildrenWithRole(node.RoleImplements); len(ifaces) > 0 {
		sb.WriteString(" implements ")
		renderJoined(sb, ifaces, ", ", depth)
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(indentUnit, depth))
	sb.WriteString("{\n")

	members := make([]*node.Node, 0, len(current.Children))

	for _, child := range current.Children {
		if child.Type == node.TypeProperty || child.Type == node.TypeMethod {
			members = append(members, child)
		}
	}

	for idx, member := range members {
		sb.WriteString(strings.Repeat(indentUnit, depth+1))
		renderInto(sb, member, depth+1)
		sb.WriteString("\n")

		if idx < len(members)-1 {
			sb.WriteString("\n")
		}
	}

	sb.WriteString(strings.Repeat(indentUnit, depth))
	sb.WriteString("}")
}

func renderProperty(sb *strings.Builder, current *node.Node, depth int) {
	if doc := current.FirstChildOfType(node.TypeDocComment); doc != nil {
		sb.WriteString(doc.Token)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(indentUnit, depth))
	}

	renderModifiers(sb, current)

	if typeName := current.ChildWithRole(node.RoleType); typeName != nil {
		renderInto(sb, typeName, depth)
		sb.WriteString(" ")
	}

	if variable := current.FirstChildOfType(node.TypeVariable); variable != nil {
		renderInto(sb, variable, depth)
	}

	if deflt := current.ChildWithRole(node.RoleDefault); deflt != nil {
		sb.WriteString(" = ")
		renderInto(sb, deflt, depth)
	}

	sb.WriteString(";")
}

func renderMethod(sb *strings.Builder, current *node.Node, depth int) {
	if doc := current.FirstChildOfType(node.TypeDocComment); doc != nil {
		sb.WriteString(doc.Token)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(indentUnit, depth))
	}

	renderModifiers(sb, current)
	sb.WriteString("function ")

	if own := current.ChildWithRole(node.RoleName); own != nil {
		sb.WriteString(own.Token)
	}

	sb.WriteString("(")
	renderJoined(sb, current.ChildrenOfType(node.TypeParam), ", ", depth)
	sb.WriteString(")")

	if returnType := current.ChildWithRole(node.RoleReturnType); returnType != nil {
		sb.WriteString(": ")
		renderInto(sb, returnType, depth)
	}

	body := current.FirstChildOfType(node.TypeBlock)
	if body == nil {
		sb.WriteString(";")

		return
	}

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat(indentUnit, depth))
	renderInto(sb, body, depth)
}

func renderParam(sb *strings.Builder, current *node.Node, depth int) {
	if visibility, ok := current.Prop("visibility"); ok {
		sb.WriteString(visibility)
		sb.WriteString(" ")
	}

	if typeName := current.ChildWithRole(node.RoleType); typeName != nil {
		renderInto(sb, typeName, depth)
		sb.WriteString(" ")
	}

	if variable := current.FirstChildOfType(node.TypeVariable); variable != nil {
		renderInto(sb, variable, depth)
	}

	if deflt := current.ChildWithRole(node.RoleDefault); deflt != nil {
		sb.WriteString(" = ")
		renderInto(sb, deflt, depth)
	}
}

func renderModifiers(sb *strings.Builder, current *node.Node) {
	if visibility, ok := current.Prop("visibility"); ok {
		sb.WriteString(visibility)
		sb.WriteString(" ")
	}

	if _, ok := current.Prop("static"); ok {
		sb.WriteString("static ")
	}
}

func renderArgs(sb *strings.Builder, args []*node.Node, depth int) {
	sb.WriteString("(")
	renderJoined(sb, args, ", ", depth)
	sb.WriteString(")")
}

func renderJoined(sb *strings.Builder, children []*node.Node, sep string, depth int) {
	for idx, child := range children {
		if idx > 0 {
			sb.WriteString(sep)
		}

		renderInto(sb, child, depth)
	}
}
