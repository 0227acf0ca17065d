package docblock

import (
	"regexp"
	"strings"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/rules/rule"
)

// annotationPattern captures the supported annotation tags and the type
// expression that follows them. Type expressions may be nullable (?),
// unions (|), arrays ([]), and backslash-qualified.
var annotationPattern = regexp.MustCompile(`(@(?:var|param|return|throws)\s+)([?\\A-Za-z0-9_|\[\]]+)`)

// Rewriter applies the configured mappings to documentation comments. It is
// a secondary, text-pattern-aware pass run after code-level convergence so
// annotations never drift from the rewritten code.
type Rewriter struct {
	mappings Mappings
}

// NewRewriter creates an annotation rewriter over the given mappings.
func NewRewriter(mappings Mappings) *Rewriter {
	return &Rewriter{mappings: mappings}
}

// Apply rewrites every doc comment in the tree. Rewritten comments are
// flagged dirty for the printer. Namespace proposals from pseudo-namespace
// expansions share the per-file fact store with the code-level rules, so a
// disagreement surfaces as the same fatal ConflictError.
func (rw *Rewriter) Apply(rctx *rule.Context, root *node.Node) (bool, error) {
	if rw.mappings.Empty() {
		return false, nil
	}

	changed := false

	var conflict error

	root.VisitPreOrder(func(visited *node.Node) {
		if conflict != nil || visited.Type != node.TypeDocComment {
			return
		}

		rewritten, docChanged, err := rw.RewriteDoc(rctx, visited.Token)
		if err != nil {
			conflict = err

			return
		}

		if docChanged {
			visited.Token = rewritten
			visited.MarkDirty()

			changed = true
		}
	})

	if conflict != nil {
		return false, conflict
	}

	return changed, nil
}

// RewriteDoc rewrites the type references inside one doc comment text.
func (rw *Rewriter) RewriteDoc(rctx *rule.Context, text string) (string, bool, error) {
	changed := false

	var conflict error

	rewritten := annotationPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := annotationPattern.FindStringSubmatch(match)
		tag, typeExpr := groups[1], groups[2]

		newExpr, exprChanged, err := rw.rewriteTypeExpr(rctx, typeExpr)
		if err != nil {
			if conflict == nil {
				conflict = err
			}

			return match
		}

		if exprChanged {
			changed = true
		}

		return tag + newExpr
	})

	if conflict != nil {
		return "", false, conflict
	}

	return rewritten, changed, nil
}

// rewriteTypeExpr rewrites each alternative of a union type, preserving
// nullability markers and array suffixes.
func (rw *Rewriter) rewriteTypeExpr(rctx *rule.Context, typeExpr string) (string, bool, error) {
	alternatives := strings.Split(typeExpr, "|")
	changed := false

	for idx, alternative := range alternatives {
		core := alternative
		prefix, suffix := "", ""

		if strings.HasPrefix(core, "?") {
			prefix = "?"
			core = core[1:]
		}

		for strings.HasSuffix(core, "[]") {
			suffix += "[]"
			core = core[:len(core)-2]
		}

		rewritten, coreChanged, namespace := rw.mappings.RewriteName(core)
		if !coreChanged {
			continue
		}

		if namespace != "" {
			if err := ProposeNamespace(rctx, namespace); err != nil {
				return "", false, err
			}
		}

		alternatives[idx] = prefix + rewritten + suffix
		changed = true
	}

	return strings.Join(alternatives, "|"), changed, nil
}
