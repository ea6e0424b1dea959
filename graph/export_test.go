package graph_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/graph"
	"github.com/omlkit/oml/workspace"
)

// setupIntegrationTest connects to a real Neo4j instance. Set OML_NEO4J_URI
// to run these tests.
func setupIntegrationTest(t *testing.T) *graph.Exporter {
	t.Helper()

	uri := os.Getenv("OML_NEO4J_URI")
	if uri == "" {
		t.Skip("OML_NEO4J_URI not set, skipping integration test")
	}

	exporter, err := graph.NewExporter(context.Background(), &graph.Config{
		URI:      uri,
		Username: os.Getenv("OML_NEO4J_USER"),
		Password: os.Getenv("OML_NEO4J_PASS"),
	}, nil)
	require.NoError(t, err)

	return exporter
}

func TestExportInstances(t *testing.T) {
	exporter := setupIntegrationTest(t)
	defer func() { _ = exporter.Close(context.Background()) }()

	ws := workspace.New(nil)

	ws.Add(&oml.Ontology{
		Kind:      oml.Vocabulary,
		Namespace: "http://example.org/vocab/base#",
		Prefix:    "base",
		Path:      "/ws/base.oml",
		Statements: []oml.Statement{
			oml.NewConcept("Component"),
			oml.NewConcept("Interface"),
			oml.NewRelationEntity("Presents", "Component", "Interface"),
		},
	})

	ws.Add(&oml.Ontology{
		Kind:      oml.Description,
		Namespace: "http://example.org/desc/sats#",
		Prefix:    "sats",
		Path:      "/ws/sats.oml",
		Imports: []*oml.Import{
			{Kind: oml.Uses, Namespace: "http://example.org/vocab/base#"},
		},
		Statements: []oml.Statement{
			oml.NewConceptInstance("sat1", "base:Component"),
			oml.NewConceptInstance("cmdIF", "base:Interface"),
			oml.NewRelationInstance("link1", []string{"base:Presents"},
				[]string{"sat1"}, []string{"cmdIF"}),
		},
	})

	require.NoError(t, exporter.Export(context.Background(), ws))
}
