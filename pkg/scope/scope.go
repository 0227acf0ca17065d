// Package scope supplies inferred type and symbol facts for AST nodes. The
// rewrite engine consults it instead of re-deriving symbol information inside
// individual rules.
//
// A Resolver is a read-only snapshot of one file's current AST state. Facts
// do not survive structural changes to the nodes they describe; the engine
// builds a fresh Resolver before every convergence pass.
package scope

import (
	"strings"

	"github.com/petski/rector-src/pkg/ast/node"
)

// ConstructorName is the language's constructor method name.
const ConstructorName = "__construct"

// ParamFacts describes one declared parameter.
type ParamFacts struct {
	Name       string
	TypeName   string
	Visibility string
}

// PropertyFacts describes one declared property and how the class writes it.
type PropertyFacts struct {
	Name     string
	TypeName string

	// AssignCount is the number of `$this->name = ...` writes anywhere in
	// the class body.
	AssignCount int

	// ConstructorParamType is the declared type of the constructor
	// parameter assigned to this property, when the only write is a plain
	// `$this->name = $param` inside the constructor.
	ConstructorParamType string
}

// MethodFacts describes one declared method.
type MethodFacts struct {
	Name       string
	ReturnType string
	Params     []ParamFacts
	Static     bool
}

// Param returns the facts for a parameter by name, or nil.
func (mf *MethodFacts) Param(name string) *ParamFacts {
	for idx := range mf.Params {
		if mf.Params[idx].Name == name {
			return &mf.Params[idx]
		}
	}

	return nil
}

// ClassFacts describes one class or interface declaration.
type ClassFacts struct {
	Name       string
	FQN        string
	Extends    string
	Interfaces []string
	Properties map[string]*PropertyFacts
	Methods    map[string]*MethodFacts
}

// Implements reports whether the class declares the given interface,
// matched on either the full name or its last segment.
func (cf *ClassFacts) Implements(name string) bool {
	for _, iface := range cf.Interfaces {
		if iface == name || node.LastSegment(iface) == node.LastSegment(name) {
			return true
		}
	}

	return false
}

// Constructor returns the constructor facts, or nil.
func (cf *ClassFacts) Constructor() *MethodFacts {
	return cf.Methods[ConstructorName]
}

// Resolver holds the symbol facts for one file.
type Resolver struct {
	namespace       string
	classes         map[string]*ClassFacts
	enclosingClass  map[uint64]*ClassFacts
	enclosingMethod map[uint64]*MethodFacts
}

// NewResolver builds a fact snapshot from the file's current AST state.
func NewResolver(root *node.Node) *Resolver {
	resolver := &Resolver{
		classes:         make(map[string]*ClassFacts),
		enclosingClass:  make(map[uint64]*ClassFacts),
		enclosingMethod: make(map[uint64]*MethodFacts),
	}

	if root == nil {
		return resolver
	}

	for _, child := range root.Children {
		switch child.Type {
		case node.TypeNamespace:
			if name := child.FirstChildOfType(node.TypeName); name != nil {
				resolver.namespace = name.Token
			}
		case node.TypeClass, node.TypeInterface:
			resolver.collectClass(child)
		}
	}

	return resolver
}

// Namespace returns the file's declared namespace, or "".
func (r *Resolver) Namespace() string {
	return r.namespace
}

// Class returns the facts for a class declared in this file, matched on its
// simple name.
func (r *Resolver) Class(name string) (*ClassFacts, bool) {
	facts, ok := r.classes[node.LastSegment(name)]

	return facts, ok
}

// ClassScope returns the facts of the class lexically enclosing the node.
func (r *Resolver) ClassScope(target *node.Node) (*ClassFacts, bool) {
	if target == nil {
		return nil, false
	}

	facts, ok := r.enclosingClass[target.ID]

	return facts, ok
}

// MethodScope returns the facts of the method lexically enclosing the node.
func (r *Resolver) MethodScope(target *node.Node) (*MethodFacts, bool) {
	if target == nil {
		return nil, false
	}

	facts, ok := r.enclosingMethod[target.ID]

	return facts, ok
}

// CalledMethod resolves a `$this->method(...)` call to the declaration in
// the enclosing class.
func (r *Resolver) CalledMethod(call *node.Node) (*MethodFacts, bool) {
	if call == nil || call.Type != node.TypeMethodCall || len(call.Children) < 2 {
		return nil, false
	}

	target, name := call.Children[0], call.Children[1]
	if target.Type != node.TypeVariable || target.Token != "this" {
		return nil, false
	}

	class, ok := r.enclosingClass[call.ID]
	if !ok {
		return nil, false
	}

	facts, ok := class.Methods[name.Token]

	return facts, ok
}

// ResolveType infers a type name for expression nodes where the file's
// declarations allow it. The second return is false when no fact is known.
//
//nolint:cyclop // one inference branch per expression shape.
func (r *Resolver) ResolveType(target *node.Node) (string, bool) {
	if target == nil {
		return "", false
	}

	switch target.Type {
	case node.TypeScalar:
		kind, _ := target.Prop("kind")
		if kind == "string" {
			return "string", true
		}

		if strings.Contains(target.Token, ".") {
			return "float", true
		}

		return "int", true
	case node.TypeNew:
		if len(target.Children) > 0 {
			return target.Children[0].Token, true
		}
	case node.TypeVariable:
		if method, ok := r.enclosingMethod[target.ID]; ok {
			if param := method.Param(target.Token); param != nil && param.TypeName != "" {
				return param.TypeName, true
			}
		}
	case node.TypePropertyFetch:
		return r.resolvePropertyFetch(target)
	}

	return "", false
}

func (r *Resolver) resolvePropertyFetch(fetch *node.Node) (string, bool) {
	if len(fetch.Children) < 2 {
		return "", false
	}

	target, name := fetch.Children[0], fetch.Children[1]
	if target.Type != node.TypeVariable || target.Token != "this" {
		return "", false
	}

	class, ok := r.enclosingClass[fetch.ID]
	if !ok {
		return "", false
	}

	prop, ok := class.Properties[name.Token]
	if !ok {
		return "", false
	}

	if prop.TypeName != "" {
		return prop.TypeName, true
	}

	if prop.ConstructorParamType != "" {
		return prop.ConstructorParamType, true
	}

	return "", false
}

func (r *Resolver) collectClass(decl *node.Node) {
	facts := &ClassFacts{
		Properties: make(map[string]*PropertyFacts),
		Methods:    make(map[string]*MethodFacts),
	}

	if own := decl.ChildWithRole(node.RoleName); own != nil {
		facts.Name = own.Token
	}

	facts.FQN = facts.Name
	if r.namespace != "" {
		facts.FQN = r.namespace + "\\" + facts.Name
	}

	if base := decl.ChildWithRole(node.RoleExtends); base != nil {
		facts.Extends = base.Token
	}

	for _, iface := range decl.ChildrenWithRole(node.RoleImplements) {
		facts.Interfaces = append(facts.Interfaces, iface.Token)
	}

	for _, member := range decl.Children {
		switch member.Type {
		case node.TypeProperty:
			r.collectProperty(facts, member)
		case node.TypeMethod:
			r.collectMethod(facts, member)
		}
	}

	r.collectAssignments(facts, decl)
	r.classes[facts.Name] = facts

	decl.VisitPreOrder(func(visited *node.Node) {
		r.enclosingClass[visited.ID] = facts
	})
}

func (r *Resolver) collectProperty(facts *ClassFacts, member *node.Node) {
	prop := &PropertyFacts{}

	if variable := member.FirstChildOfType(node.TypeVariable); variable != nil {
		prop.Name = variable.Token
	}

	if typeName := member.ChildWithRole(node.RoleType); typeName != nil {
		prop.TypeName = typeName.Token
	}

	facts.Properties[prop.Name] = prop
}

func (r *Resolver) collectMethod(facts *ClassFacts, member *node.Node) {
	method := &MethodFacts{Name: member.Token}

	if _, ok := member.Prop("static"); ok {
		method.Static = true
	}

	if returnType := member.ChildWithRole(node.RoleReturnType); returnType != nil {
		method.ReturnType = returnType.Token
	}

	for _, param := range member.ChildrenOfType(node.TypeParam) {
		pf := ParamFacts{Name: param.Token}

		if typeName := param.ChildWithRole(node.RoleType); typeName != nil {
			pf.TypeName = typeName.Token
		}

		if visibility, ok := param.Prop("visibility"); ok {
			pf.Visibility = visibility
		}

		method.Params = append(method.Params, pf)
	}

	facts.Methods[method.Name] = method

	member.VisitPreOrder(func(visited *node.Node) {
		r.enclosingMethod[visited.ID] = method
	})
}

// collectAssignments records every `$this->x = ...` write and, for writes in
// the constructor, the assigning parameter's declared type.
func (r *Resolver) collectAssignments(facts *ClassFacts, decl *node.Node) {
	for _, member := range decl.ChildrenOfType(node.TypeMethod) {
		inConstructor := member.Token == ConstructorName
		method := facts.Methods[member.Token]

		member.VisitPreOrder(func(visited *node.Node) {
			if visited.Type != node.TypeAssign || len(visited.Children) != 2 {
				return
			}

			propName, ok := thisPropertyName(visited.Children[0])
			if !ok {
				return
			}

			prop, ok := facts.Properties[propName]
			if !ok {
				return
			}

			prop.AssignCount++

			if !inConstructor || method == nil {
				prop.ConstructorParamType = ""

				return
			}

			rhs := visited.Children[1]
			if rhs.Type != node.TypeVariable {
				return
			}

			if param := method.Param(rhs.Token); param != nil && prop.AssignCount == 1 {
				prop.ConstructorParamType = param.TypeName
			}
		})
	}
}

// thisPropertyName extracts "x" from a `$this->x` target, when lhs has that
// exact shape.
func thisPropertyName(lhs *node.Node) (string, bool) {
	if lhs.Type != node.TypePropertyFetch || len(lhs.Children) != 2 {
		return "", false
	}

	target, name := lhs.Children[0], lhs.Children[1]
	if target.Type != node.TypeVariable || target.Token != "this" {
		return "", false
	}

	return name.Token, true
}
