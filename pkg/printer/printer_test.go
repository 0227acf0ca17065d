package printer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/parser"
	"github.com/petski/rector-src/pkg/printer"
)

const quirkySource = `<?php

namespace   Weird\Spacing  ;

class   Mailer
{
    private    $transport;

    public function send(  $message )
    {
        return $this->transport->deliver( $message );
    }
}
`

func parseQuirky(t *testing.T) *node.Node {
	t.Helper()

	root, err := parser.NewParser().Parse("mailer.php", []byte(quirkySource))
	require.NoError(t, err)

	return root
}

func TestPrintCleanTreeIsByteIdentical(t *testing.T) {
	t.Parallel()

	root := parseQuirky(t)

	out := printer.Print(root, []byte(quirkySource))
	assert.Equal(t, quirkySource, string(out), "untouched trees keep every formatting quirk")
}

func TestPrintSplicesOnlyDirtySpans(t *testing.T) {
	t.Parallel()

	root := parseQuirky(t)

	// Rename the class in place, the way a rule replacement lands: span
	// inherited, node flagged dirty.
	class := root.FirstChildOfType(node.TypeClass)
	own := class.ChildWithRole(node.RoleName)
	own.Token = "Sender"
	own.MarkDirty()

	out := string(printer.Print(root, []byte(quirkySource)))

	assert.Contains(t, out, "class   Sender")
	assert.Contains(t, out, "namespace   Weird\\Spacing  ;", "untouched statements keep their spacing")
	assert.Contains(t, out, "private    $transport;")
	assert.Contains(t, out, "deliver( $message )")
	assert.NotContains(t, out, "Mailer")
}

func TestPrintRendersSpanlessNodes(t *testing.T) {
	t.Parallel()

	root := parseQuirky(t)

	// A synthesized type child has no source span and must be rendered.
	prop := root.FirstChildOfType(node.TypeClass).FirstChildOfType(node.TypeProperty)
	typeName := node.NewWithToken(node.TypeName, "TransportInterface")
	typeName.Roles = []node.Role{node.RoleType}
	prop.Children = append([]*node.Node{typeName}, prop.Children...)
	prop.MarkDirty()

	out := string(printer.Print(root, []byte(quirkySource)))

	assert.Contains(t, out, "private TransportInterface $transport;")
	assert.Contains(t, out, "public function send(  $message )", "the sibling method is untouched")
}

func TestPrintZeroWidthInsertion(t *testing.T) {
	t.Parallel()

	src := "<?php\n\nclass A\n{\n}\n"

	root, err := parser.NewParser().Parse("a.php", []byte(src))
	require.NoError(t, err)

	class := root.FirstChildOfType(node.TypeClass)
	anchor := class.Pos.StartOffset

	name := node.NewWithToken(node.TypeName, "App")
	name.Roles = []node.Role{node.RoleName}

	decl := node.New(node.TypeNamespace)
	decl.AddChild(name)
	decl.Pos = &node.Span{StartOffset: anchor, EndOffset: anchor}
	decl.SetProp("suffix", "\n\n")
	decl.MarkDirty()

	root.Children = append([]*node.Node{decl}, root.Children...)

	out := string(printer.Print(root, []byte(src)))
	assert.Equal(t, "<?php\n\nnamespace App;\n\nclass A\n{\n}\n", out)
}

func TestRenderWholeFile(t *testing.T) {
	t.Parallel()

	root := parseQuirky(t)
	root.MarkDirty()

	out := string(printer.Print(root, []byte(quirkySource)))

	// A dirty root falls back to full rendering with canonical formatting.
	assert.Contains(t, out, "namespace Weird\\Spacing;")
	assert.Contains(t, out, "class Mailer")
	assert.Contains(t, out, "private $transport;")
	assert.Contains(t, out, "return $this->transport->deliver($message);")
}
