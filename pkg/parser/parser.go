// Package parser turns source text into the canonical AST. It covers the
// language subset the bundled rules operate on: namespaces, imports, class
// and interface declarations, properties, methods, and the expression forms
// reachable from method bodies.
//
// Every produced node carries its byte span in the original input so the
// printer can reproduce untouched regions byte-for-byte.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/petski/rector-src/pkg/ast/node"
)

// ErrSyntax is the sentinel for all parse failures.
var ErrSyntax = errors.New("syntax error")

// Parser is the entry point for AST parsing. It is stateless and safe for
// concurrent use; each Parse call works on its own token stream.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses a file and returns its AST root (a File node).
func (parser *Parser) Parse(filename string, src []byte) (*node.Node, error) {
	fp := &fileParser{
		filename: filename,
		tokens:   newLexer(src).lexAll(),
	}

	root, err := fp.parseFile(uint(len(src)))
	if err != nil {
		return nil, err
	}

	root.SetProp("path", filename)

	return root, nil
}

type fileParser struct {
	filename string
	tokens   []token
	pos      int
}

func (fp *fileParser) parseFile(srcLen uint) (*node.Node, error) {
	root := node.New(node.TypeFile)
	root.Pos = &node.Span{StartLine: 1, StartCol: 1, EndOffset: srcLen}

	if fp.cur().kind == tokOpenTag {
		fp.advance()
	}

	for fp.cur().kind != tokEOF {
		stmt, err := fp.parseTopStatement()
		if err != nil {
			return nil, err
		}

		root.AddChild(stmt)
	}

	return root, nil
}

func (fp *fileParser) parseTopStatement() (*node.Node, error) {
	doc := fp.takeDocComment()

	switch {
	case fp.atIdent("namespace"):
		return fp.parseNamespace()
	case fp.atIdent("use"):
		return fp.parseUse()
	case fp.atIdent("class") || fp.atIdent("interface") || fp.atIdent("abstract") || fp.atIdent("final"):
		return fp.parseClassLike(doc)
	default:
		return fp.parseStatement()
	}
}

func (fp *fileParser) parseNamespace() (*node.Node, error) {
	start := fp.cur()
	fp.advance() // namespace keyword.

	name, err := fp.parseQualifiedName(node.RoleName)
	if err != nil {
		return nil, err
	}

	decl := node.New(node.TypeNamespace)
	decl.AddChild(name)

	end, err := fp.expectPunct(";")
	if err != nil {
		return nil, err
	}

	fp.setSpan(decl, start, end)

	return decl, nil
}

func (fp *fileParser) parseUse() (*node.Node, error) {
	start := fp.cur()
	fp.advance() // use keyword.

	name, err := fp.parseQualifiedName(node.RoleName)
	if err != nil {
		return nil, err
	}

	decl := node.New(node.TypeUse)
	decl.AddChild(name)

	end, err := fp.expectPunct(";")
	if err != nil {
		return nil, err
	}

	fp.setSpan(decl, start, end)

	return decl, nil
}

//nolint:cyclop // declaration headers have many optional clauses.
func (fp *fileParser) parseClassLike(doc *node.Node) (*node.Node, error) {
	start := fp.cur()
	if doc != nil {
		start = token{start: doc.Pos.StartOffset, line: doc.Pos.StartLine, col: doc.Pos.StartCol}
	}

	// Skip abstract/final modifiers.
	for fp.atIdent("abstract") || fp.atIdent("final") {
		fp.advance()
	}

	declType := node.Type(node.TypeClass)
	if fp.atIdent("interface") {
		declType = node.TypeInterface
	}

	fp.advance() // class or interface keyword.

	nameTok, err := fp.expectIdent()
	if err != nil {
		return nil, err
	}

	decl := node.New(declType)
	decl.Token = nameTok.text

	if doc != nil {
		decl.AddChild(doc)
	}

	ownName := node.NewWithToken(node.TypeIdentifier, nameTok.text)
	ownName.Roles = []node.Role{node.RoleName}
	fp.setSpan(ownName, nameTok, nameTok)
	decl.AddChild(ownName)

	if fp.atIdent("extends") {
		fp.advance()

		base, baseErr := fp.parseQualifiedName(node.RoleExtends)
		if baseErr != nil {
			return nil, baseErr
		}

		decl.AddChild(base)
	}

	if fp.atIdent("implements") {
		fp.advance()

		for {
			iface, ifaceErr := fp.parseQualifiedName(node.RoleImplements)
			if ifaceErr != nil {
				return nil, ifaceErr
			}

			decl.AddChild(iface)

			if !fp.atPunct(",") {
				break
			}

			fp.advance()
		}
	}

	if _, err = fp.expectPunct("{"); err != nil {
		return nil, err
	}

	for !fp.atPunct("}") && fp.cur().kind != tokEOF {
		member, memberErr := fp.parseMember()
		if memberErr != nil {
			return nil, memberErr
		}

		decl.AddChild(member)
	}

	end, err := fp.expectPunct("}")
	if err != nil {
		return nil, err
	}

	fp.setSpan(decl, start, end)

	return decl, nil
}

// parseMember parses one property or method declaration, including the
// leading doc comment and modifiers.
func (fp *fileParser) parseMember() (*node.Node, error) {
	doc := fp.takeDocComment()
	start := fp.cur()

	if doc != nil {
		start = token{start: doc.Pos.StartOffset, line: doc.Pos.StartLine, col: doc.Pos.StartCol}
	}

	visibility, static := fp.takeModifiers()

	if fp.atIdent("function") {
		return fp.parseMethod(doc, start, visibility, static)
	}

	return fp.parseProperty(doc, start, visibility, static)
}

func (fp *fileParser) takeModifiers() (string, bool) {
	visibility := ""
	static := false

	for {
		switch {
		case fp.atIdent("public") || fp.atIdent("protected") || fp.atIdent("private"):
			visibility = fp.cur().text
			fp.advance()
		case fp.atIdent("static") || fp.atIdent("readonly") || fp.atIdent("abstract") || fp.atIdent("final"):
			if fp.atIdent("static") {
				static = true
			}

			fp.advance()
		default:
			return visibility, static
		}
	}
}

func (fp *fileParser) parseProperty(doc *node.Node, start token, visibility string, static bool) (*node.Node, error) {
	prop := node.New(node.TypeProperty)

	if doc != nil {
		prop.AddChild(doc)
	}

	if visibility != "" {
		prop.SetProp("visibility", visibility)
	}

	if static {
		prop.SetProp("static", "true")
	}

	if fp.cur().kind == tokIdent || fp.atPunct("?") || fp.atPunct("\\") {
		typeName, err := fp.parseTypeName()
		if err != nil {
			return nil, err
		}

		prop.AddChild(typeName)
	}

	varTok, err := fp.expectVariable()
	if err != nil {
		return nil, err
	}

	variable := fp.variableNode(varTok)
	prop.AddChild(variable)
	prop.Token = variable.Token

	if fp.atPunct("=") {
		fp.advance()

		deflt, defErr := fp.parseExpr()
		if defErr != nil {
			return nil, defErr
		}

		deflt.Roles = append(deflt.Roles, node.RoleDefault)
		prop.AddChild(deflt)
	}

	end, err := fp.expectPunct(";")
	if err != nil {
		return nil, err
	}

	fp.setSpan(prop, start, end)

	return prop, nil
}

func (fp *fileParser) parseMethod(doc *node.Node, start token, visibility string, static bool) (*node.Node, error) {
	fp.advance() // function keyword.

	nameTok, err := fp.expectIdent()
	if err != nil {
		return nil, err
	}

	method := node.New(node.TypeMethod)
	method.Token = nameTok.text

	if doc != nil {
		method.AddChild(doc)
	}

	if visibility != "" {
		method.SetProp("visibility", visibility)
	}

	if static {
		method.SetProp("static", "true")
	}

	name := node.NewWithToken(node.TypeIdentifier, nameTok.text)
	name.Roles = []node.Role{node.RoleName}
	fp.setSpan(name, nameTok, nameTok)
	method.AddChild(name)

	if _, err = fp.expectPunct("("); err != nil {
		return nil, err
	}

	for !fp.atPunct(")") {
		param, paramErr := fp.parseParam()
		if paramErr != nil {
			return nil, paramErr
		}

		method.AddChild(param)

		if fp.atPunct(",") {
			fp.advance()
		}
	}

	if _, err = fp.expectPunct(")"); err != nil {
		return nil, err
	}

	if fp.atPunct(":") {
		fp.advance()

		returnType, retErr := fp.parseTypeName()
		if retErr != nil {
			return nil, retErr
		}

		returnType.Roles = []node.Role{node.RoleReturnType}
		method.AddChild(returnType)
	}

	// Interface methods end with a semicolon instead of a body.
	if fp.atPunct(";") {
		end, _ := fp.expectPunct(";")
		fp.setSpan(method, start, end)

		return method, nil
	}

	body, end, err := fp.parseBlock()
	if err != nil {
		return nil, err
	}

	method.AddChild(body)
	fp.setSpan(method, start, end)

	return method, nil
}

func (fp *fileParser) parseParam() (*node.Node, error) {
	start := fp.cur()
	param := node.New(node.TypeParam)

	// Constructor property promotion modifiers.
	visibility, _ := fp.takeModifiers()
	if visibility != "" {
		param.SetProp("visibility", visibility)
	}

	if fp.cur().kind == tokIdent || fp.atPunct("?") || fp.atPunct("\\") {
		typeName, err := fp.parseTypeName()
		if err != nil {
			return nil, err
		}

		param.AddChild(typeName)
	}

	varTok, err := fp.expectVariable()
	if err != nil {
		return nil, err
	}

	variable := fp.variableNode(varTok)
	param.AddChild(variable)
	param.Token = variable.Token
	end := varTok

	if fp.atPunct("=") {
		fp.advance()

		deflt, defErr := fp.parseExpr()
		if defErr != nil {
			return nil, defErr
		}

		deflt.Roles = append(deflt.Roles, node.RoleDefault)
		param.AddChild(deflt)
		end = fp.prev()
	}

	fp.setSpan(param, start, end)

	return param, nil
}

// parseTypeName parses a possibly-nullable, possibly-qualified type
// reference. Union types keep only their raw text in the token.
func (fp *fileParser) parseTypeName() (*node.Node, error) {
	start := fp.cur()
	nullable := false

	if fp.atPunct("?") {
		nullable = true

		fp.advance()
	}

	name, err := fp.parseQualifiedName(node.RoleType)
	if err != nil {
		return nil, err
	}

	if nullable {
		name.SetProp("nullable", "true")
		fp.setSpan(name, start, fp.prev())
	}

	return name, nil
}

// parseQualifiedName consumes identifiers joined by backslashes into a
// single Name node, e.g. `Foo\Bar\Baz`.
func (fp *fileParser) parseQualifiedName(role node.Role) (*node.Node, error) {
	start := fp.cur()

	var segments []string

	if fp.atPunct("\\") {
		segments = append(segments, "")

		fp.advance()
	}

	identTok, err := fp.expectIdent()
	if err != nil {
		return nil, err
	}

	segments = append(segments, identTok.text)
	end := identTok

	for fp.atPunct("\\") {
		fp.advance()

		identTok, err = fp.expectIdent()
		if err != nil {
			return nil, err
		}

		segments = append(segments, identTok.text)
		end = identTok
	}

	name := node.NewWithToken(node.TypeName, strings.Join(segments, "\\"))
	name.Roles = []node.Role{role}
	fp.setSpan(name, start, end)

	return name, nil
}

func (fp *fileParser) parseBlock() (*node.Node, token, error) {
	start, err := fp.expectPunct("{")
	if err != nil {
		return nil, token{}, err
	}

	block := node.New(node.TypeBlock)

	for !fp.atPunct("}") && fp.cur().kind != tokEOF {
		stmt, stmtErr := fp.parseStatement()
		if stmtErr != nil {
			return nil, token{}, stmtErr
		}

		block.AddChild(stmt)
	}

	end, err := fp.expectPunct("}")
	if err != nil {
		return nil, token{}, err
	}

	fp.setSpan(block, start, end)

	return block, end, nil
}

func (fp *fileParser) parseStatement() (*node.Node, error) {
	start := fp.cur()

	if fp.atIdent("return") {
		fp.advance()

		ret := node.New(node.TypeReturn)

		if !fp.atPunct(";") {
			expr, err := fp.parseExpr()
			if err != nil {
				return nil, err
			}

			ret.AddChild(expr)
		}

		end, err := fp.expectPunct(";")
		if err != nil {
			return nil, err
		}

		fp.setSpan(ret, start, end)

		return ret, nil
	}

	expr, err := fp.parseExpr()
	if err != nil {
		return nil, err
	}

	stmt := node.New(node.TypeExprStmt)
	stmt.AddChild(expr)

	end, err := fp.expectPunct(";")
	if err != nil {
		return nil, err
	}

	fp.setSpan(stmt, start, end)

	return stmt, nil
}

func (fp *fileParser) parseExpr() (*node.Node, error) {
	start := fp.cur()

	left, err := fp.parsePrimary()
	if err != nil {
		return nil, err
	}

	if fp.atPunct("=") {
		fp.advance()

		right, rightErr := fp.parseExpr()
		if rightErr != nil {
			return nil, rightErr
		}

		assign := node.New(node.TypeAssign)
		assign.AddChild(left)
		assign.AddChild(right)
		fp.setSpan(assign, start, fp.prev())

		return assign, nil
	}

	return left, nil
}

//nolint:cyclop // expression dispatch is a flat switch over token shapes.
func (fp *fileParser) parsePrimary() (*node.Node, error) {
	tok := fp.cur()

	switch {
	case tok.kind == tokVariable:
		fp.advance()

		return fp.parsePostfix(fp.variableNode(tok))
	case tok.kind == tokString || tok.kind == tokNumber:
		fp.advance()

		scalar := node.NewWithToken(node.TypeScalar, tok.text)
		if tok.kind == tokString {
			scalar.SetProp("kind", "string")
		} else {
			scalar.SetProp("kind", "number")
		}

		fp.setSpan(scalar, tok, tok)

		return scalar, nil
	case fp.atIdent("new"):
		return fp.parseNew()
	case fp.atIdent("array") && fp.peekPunct("("):
		return fp.parseArray()
	case fp.atPunct("["):
		return fp.parseArray()
	case tok.kind == tokIdent || fp.atPunct("\\"):
		return fp.parseNameOrCall()
	case fp.atPunct("("):
		fp.advance()

		inner, err := fp.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err = fp.expectPunct(")"); err != nil {
			return nil, err
		}

		return fp.parsePostfix(inner)
	default:
		return nil, fp.unexpected(tok)
	}
}

// parsePostfix handles `->prop` fetches and `->method(...)` calls chained
// onto a target expression.
func (fp *fileParser) parsePostfix(target *node.Node) (*node.Node, error) {
	for fp.atPunct("->") {
		fp.advance()

		nameTok, err := fp.expectIdent()
		if err != nil {
			return nil, err
		}

		name := node.NewWithToken(node.TypeIdentifier, nameTok.text)
		name.Roles = []node.Role{node.RoleName}
		fp.setSpan(name, nameTok, nameTok)

		target.Roles = append(target.Roles, node.RoleTarget)

		if fp.atPunct("(") {
			call := node.New(node.TypeMethodCall)
			call.AddChild(target)
			call.AddChild(name)

			if err = fp.parseArgs(call); err != nil {
				return nil, err
			}

			fp.setSpanFromChildren(call, fp.prev())
			target = call

			continue
		}

		fetch := node.New(node.TypePropertyFetch)
		fetch.AddChild(target)
		fetch.AddChild(name)
		fp.setSpanFromChildren(fetch, nameTok)
		target = fetch
	}

	return target, nil
}

func (fp *fileParser) parseNew() (*node.Node, error) {
	start := fp.cur()
	fp.advance() // new keyword.

	name, err := fp.parseQualifiedName(node.RoleName)
	if err != nil {
		return nil, err
	}

	created := node.New(node.TypeNew)
	created.AddChild(name)

	if fp.atPunct("(") {
		if err = fp.parseArgs(created); err != nil {
			return nil, err
		}
	}

	fp.setSpan(created, start, fp.prev())

	return created, nil
}

func (fp *fileParser) parseNameOrCall() (*node.Node, error) {
	start := fp.cur()

	name, err := fp.parseQualifiedName(node.RoleName)
	if err != nil {
		return nil, err
	}

	if !fp.atPunct("(") {
		return name, nil
	}

	call := node.New(node.TypeCall)
	call.AddChild(name)

	if err = fp.parseArgs(call); err != nil {
		return nil, err
	}

	fp.setSpan(call, start, fp.prev())

	return fp.parsePostfix(call)
}

func (fp *fileParser) parseArgs(parent *node.Node) error {
	if _, err := fp.expectPunct("("); err != nil {
		return err
	}

	for !fp.atPunct(")") {
		arg, err := fp.parseExpr()
		if err != nil {
			return err
		}

		arg.Roles = append(arg.Roles, node.RoleArgument)
		parent.AddChild(arg)

		if fp.atPunct(",") {
			fp.advance()
		}
	}

	_, err := fp.expectPunct(")")

	return err
}

//nolint:cyclop // array item shapes: spread, key-value, plain value.
func (fp *fileParser) parseArray() (*node.Node, error) {
	start := fp.cur()
	closer := "]"

	if fp.atIdent("array") {
		fp.advance()

		closer = ")"

		if _, err := fp.expectPunct("("); err != nil {
			return nil, err
		}
	} else if _, err := fp.expectPunct("["); err != nil {
		return nil, err
	}

	arr := node.New(node.TypeArray)

	for !fp.atPunct(closer) {
		if fp.atPunct("...") {
			spreadStart := fp.cur()
			fp.advance()

			inner, err := fp.parseExpr()
			if err != nil {
				return nil, err
			}

			spread := node.New(node.TypeSpread)
			spread.AddChild(inner)
			fp.setSpan(spread, spreadStart, fp.prev())
			arr.AddChild(spread)
		} else {
			item, err := fp.parseArrayItem()
			if err != nil {
				return nil, err
			}

			arr.AddChild(item)
		}

		if fp.atPunct(",") {
			fp.advance()
		}
	}

	end, err := fp.expectPunct(closer)
	if err != nil {
		return nil, err
	}

	fp.setSpan(arr, start, end)

	return arr, nil
}

func (fp *fileParser) parseArrayItem() (*node.Node, error) {
	start := fp.cur()

	value, err := fp.parseExpr()
	if err != nil {
		return nil, err
	}

	item := node.New(node.TypeArrayItem)

	if fp.atPunct("=>") {
		fp.advance()

		value.Roles = append(value.Roles, node.RoleKey)
		item.AddChild(value)

		actual, valErr := fp.parseExpr()
		if valErr != nil {
			return nil, valErr
		}

		actual.Roles = append(actual.Roles, node.RoleValue)
		item.AddChild(actual)
	} else {
		value.Roles = append(value.Roles, node.RoleValue)
		item.AddChild(value)
	}

	fp.setSpan(item, start, fp.prev())

	return item, nil
}

// takeDocComment consumes a doc comment token if one is next and returns it
// as a DocComment node, or nil.
func (fp *fileParser) takeDocComment() *node.Node {
	if fp.cur().kind != tokDocComment {
		return nil
	}

	tok := fp.cur()
	fp.advance()

	doc := node.NewWithToken(node.TypeDocComment, tok.text)
	fp.setSpan(doc, tok, tok)

	return doc
}

func (fp *fileParser) variableNode(tok token) *node.Node {
	variable := node.NewWithToken(node.TypeVariable, strings.TrimPrefix(tok.text, "$"))
	fp.setSpan(variable, tok, tok)

	return variable
}

func (fp *fileParser) cur() token {
	return fp.tokens[fp.pos]
}

func (fp *fileParser) prev() token {
	if fp.pos == 0 {
		return fp.tokens[0]
	}

	return fp.tokens[fp.pos-1]
}

func (fp *fileParser) advance() {
	if fp.pos < len(fp.tokens)-1 {
		fp.pos++
	}
}

func (fp *fileParser) atIdent(text string) bool {
	tok := fp.cur()

	return tok.kind == tokIdent && tok.text == text
}

func (fp *fileParser) atPunct(text string) bool {
	tok := fp.cur()

	return tok.kind == tokPunct && tok.text == text
}

func (fp *fileParser) peekPunct(text string) bool {
	if fp.pos+1 >= len(fp.tokens) {
		return false
	}

	next := fp.tokens[fp.pos+1]

	return next.kind == tokPunct && next.text == text
}

func (fp *fileParser) expectIdent() (token, error) {
	tok := fp.cur()
	if tok.kind != tokIdent {
		return token{}, fp.unexpected(tok)
	}

	fp.advance()

	return tok, nil
}

func (fp *fileParser) expectVariable() (token, error) {
	tok := fp.cur()
	if tok.kind != tokVariable {
		return token{}, fp.unexpected(tok)
	}

	fp.advance()

	return tok, nil
}

func (fp *fileParser) expectPunct(text string) (token, error) {
	tok := fp.cur()
	if tok.kind != tokPunct || tok.text != text {
		return token{}, fp.unexpected(tok)
	}

	fp.advance()

	return tok, nil
}

func (fp *fileParser) unexpected(tok token) error {
	shown := tok.text
	if tok.kind == tokEOF {
		shown = "end of file"
	}

	return fmt.Errorf("%w: %s:%d:%d: unexpected %q", ErrSyntax, fp.filename, tok.line, tok.col, shown)
}

func (fp *fileParser) setSpan(target *node.Node, start, end token) {
	target.Pos = &node.Span{
		StartLine:   start.line,
		StartCol:    start.col,
		StartOffset: start.start,
		EndLine:     end.line,
		EndCol:      end.col,
		EndOffset:   end.end,
	}
}

// setSpanFromChildren spans a node from its first child's start to the
// given end token.
func (fp *fileParser) setSpanFromChildren(target *node.Node, end token) {
	start := token{line: end.line, col: end.col, start: end.start, end: end.end}

	if len(target.Children) > 0 && target.Children[0].Pos != nil {
		first := target.Children[0].Pos
		start = token{line: first.StartLine, col: first.StartCol, start: first.StartOffset}
	}

	fp.setSpan(target, start, end)
}
