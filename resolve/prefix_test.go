package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/resolve"
	"github.com/omlkit/oml/workspace"
)

func strptr(s string) *string { return &s }

func newVocab(ns, prefix string, statements ...oml.Statement) *oml.Ontology {
	return &oml.Ontology{
		Kind:       oml.Vocabulary,
		Namespace:  ns,
		Prefix:     prefix,
		Path:       "/ws/" + prefix + ".oml",
		Statements: statements,
	}
}

func TestBuildPrefixMapCanonicalAlias(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)

	base := newVocab("http://example.org/vocab/base#", "base")
	ws.Add(base)

	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#"},
		},
	}

	pm, err := resolve.BuildPrefixMap(ws, doc)
	require.NoError(t, err)

	canonical, ok := pm.Lookup("base")
	require.True(t, ok)
	assert.Equal(t, "base", canonical)
}

func TestBuildPrefixMapExplicitAlias(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)
	ws.Add(newVocab("http://example.org/vocab/base#", "base"))

	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#", Alias: strptr("b")},
		},
	}

	pm, err := resolve.BuildPrefixMap(ws, doc)
	require.NoError(t, err)

	canonical, ok := pm.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, "base", canonical)

	// Aliased names canonicalize to the target's own prefix.
	qname, err := pm.Canonicalize("b:Component")
	require.NoError(t, err)
	assert.Equal(t, "base:Component", qname)
}

func TestBuildPrefixMapUnresolvedImport(t *testing.T) {
	t.Parallel()

	// Target not loaded; prefix candidate comes from the namespace IRI.
	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#"},
		},
	}

	pm, err := resolve.BuildPrefixMap(workspace.New(nil), doc)
	require.NoError(t, err)

	canonical, ok := pm.Lookup("base")
	require.True(t, ok)
	assert.Equal(t, "base", canonical)
}

func TestBuildPrefixMapDuplicateAlias(t *testing.T) {
	t.Parallel()

	ws := workspace.New(nil)
	ws.Add(newVocab("http://a.org/first#", "first"))
	ws.Add(newVocab("http://b.org/second#", "second"))

	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://a.org/first#", Alias: strptr("x")},
			{Kind: oml.Uses, Namespace: "http://b.org/second#", Alias: strptr("x")},
		},
	}

	_, err := resolve.BuildPrefixMap(ws, doc)

	var dup *resolve.DuplicateAliasError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "x", dup.Alias)
	assert.Equal(t, "first", dup.First)
	assert.Equal(t, "second", dup.Second)
}

func TestBuildPrefixMapSameTargetTwice(t *testing.T) {
	t.Parallel()

	// The same alias bound twice to the same canonical prefix is harmless.
	ws := workspace.New(nil)
	ws.Add(newVocab("http://example.org/vocab/base#", "base"))

	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#"},
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#", Alias: strptr("base")},
		},
	}

	_, err := resolve.BuildPrefixMap(ws, doc)
	require.NoError(t, err)
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
	}

	pm, err := resolve.BuildPrefixMap(workspace.New(nil), doc)
	require.NoError(t, err)

	// Unqualified names take the document's own prefix.
	qname, err := pm.Canonicalize("sat1")
	require.NoError(t, err)
	assert.Equal(t, "sats:sat1", qname)

	// The document's own prefix is always resolvable.
	qname, err = pm.Canonicalize("sats:sat1")
	require.NoError(t, err)
	assert.Equal(t, "sats:sat1", qname)

	_, err = pm.Canonicalize("nope:sat1")

	var unknown *resolve.UnknownPrefixError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Prefix)
	assert.Contains(t, unknown.Error(), "missing import?")
}
