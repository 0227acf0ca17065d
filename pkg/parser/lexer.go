package parser

import (
	"strings"
)

// tokenKind identifies the lexical class of a token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokOpenTag
	tokIdent
	tokVariable
	tokString
	tokNumber
	tokDocComment
	tokPunct
)

// token is a single lexical unit with its byte span in the source.
type token struct {
	kind  tokenKind
	text  string
	start uint
	end   uint
	line  uint
	col   uint
}

// lexer produces tokens from raw source bytes. Line comments and non-doc
// block comments are skipped; doc comments (/** ... */) are emitted as
// tokens so they can be attached to declarations.
type lexer struct {
	src  []byte
	off  uint
	line uint
	col  uint
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

// lexAll tokenizes the entire input. Unterminated strings and comments
// surface as errors through the parser's unexpected-token path.
func (lx *lexer) lexAll() []token {
	var tokens []token

	for {
		tok := lx.next()
		tokens = append(tokens, tok)

		if tok.kind == tokEOF {
			return tokens
		}
	}
}

func (lx *lexer) next() token {
	lx.skipInsignificant()

	if lx.eof() {
		return token{kind: tokEOF, start: lx.off, end: lx.off, line: lx.line, col: lx.col}
	}

	start, line, col := lx.off, lx.line, lx.col
	ch := lx.src[lx.off]

	switch {
	case ch == '<' && lx.hasPrefix("<?php"):
		lx.advance(uint(len("<?php")))

		return token{kind: tokOpenTag, text: "<?php", start: start, end: lx.off, line: line, col: col}
	case ch == '/' && lx.hasPrefix("/**"):
		return lx.lexDocComment(start, line, col)
	case ch == '$':
		return lx.lexVariable(start, line, col)
	case isIdentStart(ch):
		return lx.lexIdent(start, line, col)
	case ch == '\'' || ch == '"':
		return lx.lexString(start, line, col)
	case ch >= '0' && ch <= '9':
		return lx.lexNumber(start, line, col)
	default:
		return lx.lexPunct(start, line, col)
	}
}

// skipInsignificant consumes whitespace, line comments, and non-doc block
// comments. Doc comments are significant and left in place.
func (lx *lexer) skipInsignificant() {
	for !lx.eof() {
		ch := lx.src[lx.off]

		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			lx.advance(1)
		case ch == '/' && lx.hasPrefix("//"):
			lx.skipUntil("\n")
		case ch == '#':
			lx.skipUntil("\n")
		case ch == '/' && lx.hasPrefix("/*") && !lx.hasPrefix("/**"):
			lx.skipUntil("*/")
			lx.advanceIfPrefix("*/")
		default:
			return
		}
	}
}

func (lx *lexer) lexDocComment(start, line, col uint) token {
	end := strings.Index(string(lx.src[lx.off:]), "*/")
	if end < 0 {
		lx.advance(uint(len(lx.src)) - lx.off)
	} else {
		lx.advance(uint(end) + 2)
	}

	return token{
		kind:  tokDocComment,
		text:  string(lx.src[start:lx.off]),
		start: start,
		end:   lx.off,
		line:  line,
		col:   col,
	}
}

func (lx *lexer) lexVariable(start, line, col uint) token {
	lx.advance(1) // consume '$'.

	for !lx.eof() && isIdentPart(lx.src[lx.off]) {
		lx.advance(1)
	}

	return token{
		kind:  tokVariable,
		text:  string(lx.src[start:lx.off]),
		start: start,
		end:   lx.off,
		line:  line,
		col:   col,
	}
}

func (lx *lexer) lexIdent(start, line, col uint) token {
	for !lx.eof() && isIdentPart(lx.src[lx.off]) {
		lx.advance(1)
	}

	return token{
		kind:  tokIdent,
		text:  string(lx.src[start:lx.off]),
		start: start,
		end:   lx.off,
		line:  line,
		col:   col,
	}
}

func (lx *lexer) lexString(start, line, col uint) token {
	quote := lx.src[lx.off]
	lx.advance(1)

	for !lx.eof() {
		ch := lx.src[lx.off]
		if ch == '\\' && lx.off+1 < uint(len(lx.src)) {
			lx.advance(2)

			continue
		}

		lx.advance(1)

		if ch == quote {
			break
		}
	}

	return token{
		kind:  tokString,
		text:  string(lx.src[start:lx.off]),
		start: start,
		end:   lx.off,
		line:  line,
		col:   col,
	}
}

func (lx *lexer) lexNumber(start, line, col uint) token {
	for !lx.eof() {
		ch := lx.src[lx.off]
		if (ch < '0' || ch > '9') && ch != '.' && ch != '_' {
			break
		}

		lx.advance(1)
	}

	return token{
		kind:  tokNumber,
		text:  string(lx.src[start:lx.off]),
		start: start,
		end:   lx.off,
		line:  line,
		col:   col,
	}
}

func (lx *lexer) lexPunct(start, line, col uint) token {
	// Multi-byte punctuation first: longest match wins.
	for _, punct := range []string{"...", "->", "=>", "::", "<?"} {
		if lx.hasPrefix(punct) {
			lx.advance(uint(len(punct)))

			return token{kind: tokPunct, text: punct, start: start, end: lx.off, line: line, col: col}
		}
	}

	lx.advance(1)

	return token{
		kind:  tokPunct,
		text:  string(lx.src[start:lx.off]),
		start: start,
		end:   lx.off,
		line:  line,
		col:   col,
	}
}

func (lx *lexer) eof() bool {
	return lx.off >= uint(len(lx.src))
}

func (lx *lexer) hasPrefix(prefix string) bool {
	return strings.HasPrefix(string(lx.src[lx.off:]), prefix)
}

func (lx *lexer) advanceIfPrefix(prefix string) {
	if lx.hasPrefix(prefix) {
		lx.advance(uint(len(prefix)))
	}
}

func (lx *lexer) skipUntil(marker string) {
	idx := strings.Index(string(lx.src[lx.off:]), marker)
	if idx < 0 {
		lx.advance(uint(len(lx.src)) - lx.off)

		return
	}

	lx.advance(uint(idx))
}

// advance moves the cursor forward n bytes, tracking line and column.
func (lx *lexer) advance(n uint) {
	for i := uint(0); i < n && lx.off < uint(len(lx.src)); i++ {
		if lx.src[lx.off] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}

		lx.off++
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
