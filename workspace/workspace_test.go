package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/workspace"
)

func vocabDoc(ns, prefix, path string) *oml.Ontology {
	return &oml.Ontology{
		Kind:      oml.Vocabulary,
		Namespace: ns,
		Prefix:    prefix,
		Path:      path,
	}
}

func TestWorkspaceAddAndLookup(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)

	doc := vocabDoc("http://example.org/base#", "base", "/ws/base.oml")
	ws.Add(doc)

	assert.Same(t, doc, ws.ByNamespace("http://example.org/base#"))
	assert.Same(t, doc, ws.ByPath("/ws/base.oml"))

	byPrefix := ws.ByPrefix("base")
	require.Len(t, byPrefix, 1)
	assert.Same(t, doc, byPrefix[0])

	assert.Nil(t, ws.ByNamespace("http://example.org/other#"))
	assert.Empty(t, ws.ByPrefix("other"))
}

func TestWorkspaceAddReplacesSamePath(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)

	ws.Add(vocabDoc("http://example.org/base#", "base", "/ws/base.oml"))

	// Same file reparsed with a changed namespace.
	updated := vocabDoc("http://example.org/base/v2#", "base", "/ws/base.oml")
	ws.Add(updated)

	assert.Nil(t, ws.ByNamespace("http://example.org/base#"))
	assert.Same(t, updated, ws.ByNamespace("http://example.org/base/v2#"))
	assert.Len(t, ws.Documents(), 1)
}

func TestWorkspaceByPrefixShared(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)

	b := vocabDoc("http://b.org/comp#", "comp", "/ws/b.oml")
	a := vocabDoc("http://a.org/comp#", "comp", "/ws/a.oml")
	ws.Add(b)
	ws.Add(a)

	docs := ws.ByPrefix("comp")
	require.Len(t, docs, 2)

	// Sorted by namespace for deterministic iteration.
	assert.Equal(t, "http://a.org/comp#", docs[0].Namespace)
	assert.Equal(t, "http://b.org/comp#", docs[1].Namespace)
}

func TestWorkspaceRemove(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)

	ws.Add(vocabDoc("http://example.org/base#", "base", "/ws/base.oml"))
	ws.Remove("/ws/base.oml")

	assert.Nil(t, ws.ByPath("/ws/base.oml"))
	assert.Nil(t, ws.ByNamespace("http://example.org/base#"))
	assert.Empty(t, ws.Documents())
}

func TestWorkspaceResolveImport(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)

	base := vocabDoc("http://example.org/base#", "base", "/ws/base.oml")
	ws.Add(base)

	imp := &oml.Import{Kind: oml.Uses, Namespace: "http://example.org/base#"}
	assert.Same(t, base, ws.ResolveImport(imp))

	missing := &oml.Import{Kind: oml.Uses, Namespace: "http://example.org/missing#"}
	assert.Nil(t, ws.ResolveImport(missing))
}
