package oml_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omlkit/oml"
)

const componentVocab = `
kind: vocabulary
namespace: "http://example.org/vocab/base#"
prefix: base
imports:
  - kind: extends
    namespace: "http://example.org/vocab/core#"
    alias: c
statements:
  - kind: concept
    name: Component
    specializes: [c:IdentifiedThing]
  - kind: relation-entity
    name: Presents
    source: Component
    target: Interface
    forward: presents
  - kind: scalar-property
    name: mass
    domain: Component
    range: c:Real
    functional: true
`

func TestDecodeOntology(t *testing.T) {
	t.Parallel()

	doc, err := oml.DecodeOntology([]byte(componentVocab), "base.oml")
	require.NoError(t, err)

	assert.Equal(t, oml.Vocabulary, doc.Kind)
	assert.Equal(t, "http://example.org/vocab/base#", doc.Namespace)
	assert.Equal(t, "base", doc.Prefix)
	assert.Equal(t, "base.oml", doc.Path)

	require.Len(t, doc.Imports, 1)
	assert.Equal(t, oml.Extends, doc.Imports[0].Kind)
	require.NotNil(t, doc.Imports[0].Alias)
	assert.Equal(t, "c", *doc.Imports[0].Alias)

	require.Len(t, doc.Statements, 3)

	concept, ok := doc.Statements[0].(*oml.Concept)
	require.True(t, ok)
	assert.Equal(t, "Component", concept.StatementName())
	assert.Equal(t, []string{"c:IdentifiedThing"}, concept.SuperTypes())

	rel, ok := doc.Statements[1].(*oml.RelationEntity)
	require.True(t, ok)
	assert.Equal(t, "Component", rel.Source)
	assert.Equal(t, "Interface", rel.Target)
	assert.Equal(t, "presents", rel.Forward)

	prop, ok := doc.Statements[2].(*oml.ScalarProperty)
	require.True(t, ok)
	assert.True(t, prop.Functional)
	assert.Equal(t, "c:Real", prop.Range)
}

func TestDecodeOntologyPositions(t *testing.T) {
	t.Parallel()

	doc, err := oml.DecodeOntology([]byte(componentVocab), "base.oml")
	require.NoError(t, err)

	span := doc.Statements[0].Span()
	assert.Equal(t, "base.oml", span.Start.Filename)
	assert.Positive(t, span.Start.Line)
}

func TestDecodeOntologyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"unknown kind", "kind: nope\nnamespace: \"http://e.org/a#\"\nprefix: a\n"},
		{"bad namespace", "kind: vocabulary\nnamespace: \"http://e.org/a\"\nprefix: a\n"},
		{"no prefix", "kind: vocabulary\nnamespace: \"http://e.org/a#\"\n"},
		{"unknown import kind", "kind: vocabulary\nnamespace: \"http://e.org/a#\"\nprefix: a\nimports:\n  - kind: needs\n    namespace: \"http://e.org/b#\"\n"},
		{"unknown statement kind", "kind: vocabulary\nnamespace: \"http://e.org/a#\"\nprefix: a\nstatements:\n  - kind: entity\n    name: X\n"},
		{"nameless statement", "kind: vocabulary\nnamespace: \"http://e.org/a#\"\nprefix: a\nstatements:\n  - kind: concept\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := oml.DecodeOntology([]byte(tt.data), "bad.oml")
			assert.Error(t, err)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	sat := oml.NewConceptInstance("sat1", "base:Component")
	sat.AddProperty("base:mass", oml.LiteralValue("120.5", "c:Real"))
	sat.AddProperty("base:presents", oml.RefValue("if:cmdIF"))

	doc := &oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#"},
		},
		Statements: []oml.Statement{
			sat,
			oml.NewRelationInstance("link1", []string{"base:Presents"},
				[]string{"sat1"}, []string{"if:cmdIF"}),
		},
	}

	data, err := oml.EncodeOntology(doc)
	require.NoError(t, err)

	decoded, err := oml.DecodeOntology(data, "sats.oml")
	require.NoError(t, err)

	assert.Equal(t, doc.Kind, decoded.Kind)
	assert.Equal(t, doc.Namespace, decoded.Namespace)

	require.Len(t, decoded.Statements, 2)

	inst, ok := decoded.Statements[0].(*oml.ConceptInstance)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff([]string{"base:Component"}, inst.AssertedTypes()))

	require.Len(t, inst.Assertions(), 2)
	require.Len(t, inst.Assertions()[0].Values, 1)
	require.NotNil(t, inst.Assertions()[0].Values[0].Literal)
	assert.Equal(t, "120.5", inst.Assertions()[0].Values[0].Literal.Value)
	assert.True(t, inst.Assertions()[1].Values[0].IsRef())

	link, ok := decoded.Statements[1].(*oml.RelationInstance)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff([]string{"sat1"}, link.Sources))
	assert.Empty(t, cmp.Diff([]string{"if:cmdIF"}, link.Targets))
}

func TestEncodeDecodeTermRoundTrip(t *testing.T) {
	t.Parallel()

	wheel := oml.NewConcept("Wheel", "base:Part")
	wheel.SetEquivalence("base:Part")
	wheel.SetKeyGroups([][]string{{"base:id"}})

	doc := &oml.Ontology{
		Kind:      oml.Vocabulary,
		Namespace: "http://example.org/vocab/rover#",
		Prefix:    "rover",
		Imports: []*oml.Import{
			{Kind: oml.Extends, Namespace: "http://example.org/vocab/base#"},
		},
		Statements: []oml.Statement{wheel},
	}

	data, err := oml.EncodeOntology(doc)
	require.NoError(t, err)

	decoded, err := oml.DecodeOntology(data, "rover.oml")
	require.NoError(t, err)

	require.Len(t, decoded.Statements, 1)

	term, ok := decoded.Statements[0].(*oml.Concept)
	require.True(t, ok)
	assert.Empty(t, cmp.Diff([]string{"base:Part"}, term.SuperTypes()))
	assert.Equal(t, "base:Part", term.Equivalence())
	assert.Empty(t, cmp.Diff([][]string{{"base:id"}}, term.KeyGroups()))
}
