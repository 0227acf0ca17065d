// Package printer re-emits an AST as source text. Subtrees untouched by the
// rewrite engine are copied byte-for-byte from the original source; only
// subtrees flagged dirty are re-rendered. The engine owns the dirty flags,
// the printer never re-derives formatting of untouched regions.
package printer

import (
	"bytes"

	"github.com/petski/rector-src/pkg/ast/node"
)

// Print renders the tree back to source text using the original bytes for
// every clean span.
func Print(root *node.Node, original []byte) []byte {
	if root == nil {
		return nil
	}

	if !root.SubtreeDirty() {
		return bytes.Clone(original)
	}

	var buf bytes.Buffer

	emit(&buf, root, original)

	return buf.Bytes()
}

// emit writes one node. Clean subtrees come straight from the source span,
// dirty or synthesized nodes are rendered fresh, and clean nodes with dirty
// descendants are spliced: original bytes between child spans are kept.
func emit(buf *bytes.Buffer, current *node.Node, original []byte) {
	if !current.SubtreeDirty() && spanValid(current, original) {
		buf.Write(original[current.Pos.StartOffset:current.Pos.EndOffset])

		return
	}

	if current.Dirty() || !spanValid(current, original) {
		buf.WriteString(Render(current))

		return
	}

	cursor := current.Pos.StartOffset

	for _, child := range current.Children {
		if spanValid(child, original) && child.Pos.StartOffset >= cursor && child.Pos.EndOffset <= current.Pos.EndOffset {
			buf.Write(original[cursor:child.Pos.StartOffset])
			emit(buf, child, original)

			cursor = child.Pos.EndOffset

			continue
		}

		emit(buf, child, original)
	}

	if cursor < current.Pos.EndOffset {
		buf.Write(original[cursor:current.Pos.EndOffset])
	}
}

func spanValid(current *node.Node, original []byte) bool {
	if current == nil || current.Pos == nil {
		return false
	}

	return current.Pos.EndOffset >= current.Pos.StartOffset && current.Pos.EndOffset <= uint(len(original))
}
