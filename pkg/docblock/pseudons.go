package docblock

import (
	"slices"
	"strings"
)

// PrefixMapping configures one pseudo-namespace prefix, e.g. "Foo_", whose
// matches are rewritten to real namespace form. ExcludedNames lists full
// identifiers that bypass the rewrite even though they match the prefix.
type PrefixMapping struct {
	Prefix        string
	ExcludedNames []string
}

// Excluded reports whether the identifier is on the mapping's allow-list.
func (pm PrefixMapping) Excluded(ident string) bool {
	return slices.Contains(pm.ExcludedNames, ident)
}

// SplitPseudoNamespace splits an underscore-separated identifier into its
// namespace segments. An underscore only counts as a separator when flanked
// by letters on both sides, so identifiers like "_internal" or "SOME__X"
// are never falsely split. Returns ok=false when no split happens.
func SplitPseudoNamespace(ident string) ([]string, bool) {
	var segments []string

	start := 0

	for idx := 1; idx < len(ident)-1; idx++ {
		if ident[idx] != '_' {
			continue
		}

		if !isLetter(ident[idx-1]) || !isLetter(ident[idx+1]) {
			continue
		}

		segments = append(segments, ident[start:idx])
		start = idx + 1
	}

	if len(segments) == 0 {
		return nil, false
	}

	segments = append(segments, ident[start:])

	return segments, true
}

// Mappings bundles the configured rename and pseudo-namespace mappings the
// annotation rewriter follows.
type Mappings struct {
	// Renames maps old fully-qualified names to their replacements.
	Renames map[string]string

	// Prefixes lists the pseudo-namespace prefixes to expand.
	Prefixes []PrefixMapping
}

// Merge folds other into the receiver.
func (m *Mappings) Merge(other Mappings) {
	if m.Renames == nil && len(other.Renames) > 0 {
		m.Renames = make(map[string]string, len(other.Renames))
	}

	for old, replacement := range other.Renames {
		m.Renames[old] = replacement
	}

	m.Prefixes = append(m.Prefixes, other.Prefixes...)
}

// Empty reports whether no mapping is configured at all.
func (m Mappings) Empty() bool {
	return len(m.Renames) == 0 && len(m.Prefixes) == 0
}

// RewriteName applies the mappings to a single identifier or qualified
// name. It returns the rewritten name, whether anything changed, and the
// target namespace implied by a pseudo-namespace expansion ("" when none).
func (m Mappings) RewriteName(ident string) (string, bool, string) {
	trimmed := strings.TrimPrefix(ident, "\\")

	if replacement, ok := m.Renames[trimmed]; ok {
		return replacement, true, ""
	}

	for _, mapping := range m.Prefixes {
		if !strings.HasPrefix(trimmed, mapping.Prefix) || mapping.Excluded(trimmed) {
			continue
		}

		segments, ok := SplitPseudoNamespace(trimmed)
		if !ok || len(segments) < 2 { //nolint:mnd // need a namespace part and a symbol.
			continue
		}

		namespace := strings.Join(segments[:len(segments)-1], "\\")

		return strings.Join(segments, "\\"), true, namespace
	}

	return ident, false, ""
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
