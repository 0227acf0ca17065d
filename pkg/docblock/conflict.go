// Package docblock keeps structured documentation annotations consistent
// with code-level renames: type references in @var, @param, @return, and
// @throws tags follow the same mappings the rename rules apply to code.
package docblock

import (
	"fmt"

	"github.com/petski/rector-src/pkg/rules/rule"
)

// FactNamespace is the per-file fact key holding the target namespace
// chosen by pseudo-namespace rewrites so far.
const FactNamespace = "pseudons.namespace"

// ConflictError reports two incompatible target namespaces produced for the
// same file. This is a configuration conflict and fatal for the file; it is
// never silently resolved.
type ConflictError struct {
	File     string
	Existing string
	Proposed string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"%s: two different target namespaces in one file: %q vs %q",
		e.File, e.Existing, e.Proposed,
	)
}

// ProposeNamespace records the target namespace implied by a rewrite. The
// first proposal wins; any later, different proposal for the same file is a
// fatal ConflictError.
func ProposeNamespace(rctx *rule.Context, namespace string) error {
	existing, ok := rctx.Fact(FactNamespace)
	if ok && existing != namespace {
		return &ConflictError{File: rctx.File, Existing: existing, Proposed: namespace}
	}

	rctx.SetFact(FactNamespace, namespace)

	return nil
}
