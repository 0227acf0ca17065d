package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petski/rector-src/pkg/ast/node"
	"github.com/petski/rector-src/pkg/parser"
	"github.com/petski/rector-src/pkg/scope"
)

const scopeSource = `<?php

namespace App;

class Mailer implements MailerInterface
{
    private $transport;

    private $subject;

    public function __construct(SmtpTransport $transport)
    {
        $this->transport = $transport;
    }

    public function retitle(string $subject)
    {
        $this->subject = $subject;
    }

    public function build(): Envelope
    {
        return new Envelope();
    }
}
`

func resolveSample(t *testing.T) (*node.Node, *scope.Resolver) {
	t.Helper()

	root, err := parser.NewParser().Parse("mailer.php", []byte(scopeSource))
	require.NoError(t, err)

	return root, scope.NewResolver(root)
}

func TestResolverNamespaceAndClass(t *testing.T) {
	t.Parallel()

	_, resolver := resolveSample(t)

	assert.Equal(t, "App", resolver.Namespace())

	facts, ok := resolver.Class("Mailer")
	require.True(t, ok)
	assert.Equal(t, "App\\Mailer", facts.FQN)
	assert.True(t, facts.Implements("MailerInterface"))
	assert.True(t, facts.Implements("Other\\MailerInterface"), "last segment matches too")
	assert.False(t, facts.Implements("LoggerInterface"))

	_, ok = resolver.Class("Absent")
	assert.False(t, ok)
}

func TestResolverConstructorParamType(t *testing.T) {
	t.Parallel()

	_, resolver := resolveSample(t)

	facts, ok := resolver.Class("Mailer")
	require.True(t, ok)

	transport := facts.Properties["transport"]
	require.NotNil(t, transport)
	assert.Equal(t, 1, transport.AssignCount)
	assert.Equal(t, "SmtpTransport", transport.ConstructorParamType)

	// Written outside the constructor: no inferable constructor type.
	subject := facts.Properties["subject"]
	require.NotNil(t, subject)
	assert.Equal(t, 1, subject.AssignCount)
	assert.Empty(t, subject.ConstructorParamType)

	ctor := facts.Constructor()
	require.NotNil(t, ctor)
	require.NotNil(t, ctor.Param("transport"))
	assert.Equal(t, "SmtpTransport", ctor.Param("transport").TypeName)
}

func TestResolverResolveType(t *testing.T) {
	t.Parallel()

	root, resolver := resolveSample(t)

	news := root.Find(func(n *node.Node) bool { return n.Type == node.TypeNew })
	require.Len(t, news, 1)

	typeName, ok := resolver.ResolveType(news[0])
	require.True(t, ok)
	assert.Equal(t, "Envelope", typeName)

	fetches := root.Find(func(n *node.Node) bool { return n.Type == node.TypePropertyFetch })
	require.NotEmpty(t, fetches)

	typeName, ok = resolver.ResolveType(fetches[0])
	require.True(t, ok)
	assert.Equal(t, "SmtpTransport", typeName, "falls back to the constructor param type")

	variables := root.Find(func(n *node.Node) bool {
		return n.Type == node.TypeVariable && n.Token == "subject"
	})
	require.NotEmpty(t, variables)

	typeName, ok = resolver.ResolveType(variables[len(variables)-1])
	require.True(t, ok)
	assert.Equal(t, "string", typeName)
}

func TestResolverEnclosingScopes(t *testing.T) {
	t.Parallel()

	root, resolver := resolveSample(t)

	assigns := root.Find(func(n *node.Node) bool { return n.Type == node.TypeAssign })
	require.NotEmpty(t, assigns)

	class, ok := resolver.ClassScope(assigns[0])
	require.True(t, ok)
	assert.Equal(t, "Mailer", class.Name)

	method, ok := resolver.MethodScope(assigns[0])
	require.True(t, ok)
	assert.Equal(t, scope.ConstructorName, method.Name)

	_, ok = resolver.ClassScope(root)
	assert.False(t, ok, "the file node is outside any class")
}

func TestResolverScalarTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    string
		kind     string
		expected string
	}{
		{"string literal", "'hi'", "string", "string"},
		{"integer literal", "42", "number", "int"},
		{"float literal", "4.2", "number", "float"},
	}

	resolver := scope.NewResolver(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scalar := node.NewWithToken(node.TypeScalar, tt.token)
			scalar.SetProp("kind", tt.kind)

			resolved, ok := resolver.ResolveType(scalar)
			require.True(t, ok)
			assert.Equal(t, tt.expected, resolved)
		})
	}
}
