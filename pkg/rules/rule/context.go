package rule

import (
	"github.com/petski/rector-src/pkg/scope"
)

// Context carries the per-file facts a rule may consult during Refactor.
// One Context exists per file in flight; the engine refreshes the Scope
// snapshot before every convergence pass and never shares a Context between
// files.
type Context struct {
	// File is the path of the file being rewritten.
	File string

	// Scope is the read-only symbol/type fact snapshot for the file's
	// current AST state. Facts do not survive structural changes; rules
	// must not cache them across invocations.
	Scope *scope.Resolver

	facts map[string]string
}

// NewContext creates a fresh per-file context.
func NewContext(file string) *Context {
	return &Context{
		File:  file,
		facts: make(map[string]string),
	}
}

// SetFact stores per-file transient state, e.g. the namespace chosen so far.
// Facts are discarded when the file's run completes.
func (rctx *Context) SetFact(key, value string) {
	rctx.facts[key] = value
}

// Fact reads per-file transient state.
func (rctx *Context) Fact(key string) (string, bool) {
	value, ok := rctx.facts[key]

	return value, ok
}

// ResetFacts clears all per-file transient state. The engine calls this at
// the start of each file; rules must not rely on facts crossing files.
func (rctx *Context) ResetFacts() {
	clear(rctx.facts)
}
