// Package graph exports the canonicalized instance graph to Neo4j so it can
// be queried alongside other engineering data. Export is read-only with
// respect to the documents.
package graph

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/resolve"
	"github.com/omlkit/oml/workspace"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Exporter writes instances and relation instances into Neo4j.
type Exporter struct {
	driver neo4j.DriverWithContext
	db     string
	logger *zap.Logger
}

// NewExporter connects to Neo4j and verifies connectivity. A nil logger
// defaults to a no-op logger.
func NewExporter(ctx context.Context, cfg *Config, logger *zap.Logger) (*Exporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	auth := neo4j.NoAuth()
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("graph: failed to create driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("graph: failed to connect: %w", err)
	}

	return &Exporter{driver: driver, db: cfg.Database, logger: logger}, nil
}

// Close releases the underlying driver.
func (e *Exporter) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Export writes every description's instances into Neo4j. Concept instances
// become nodes merged on their qualified name; relation instances become
// edges between their source and target nodes.
func (e *Exporter) Export(ctx context.Context, ws *workspace.Workspace) error {
	sessionCfg := neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite}
	if e.db != "" {
		sessionCfg.DatabaseName = e.db
	}

	session := e.driver.NewSession(ctx, sessionCfg)
	defer func() { _ = session.Close(ctx) }()

	for _, doc := range ws.Documents() {
		if doc.Kind != oml.Description && doc.Kind != oml.DescriptionBundle {
			continue
		}

		pm, err := resolve.BuildPrefixMap(ws, doc)
		if err != nil {
			return fmt.Errorf("graph: %s: %w", doc.Namespace, err)
		}

		if err := e.exportDescription(ctx, session, pm, doc); err != nil {
			return err
		}
	}

	return nil
}

func (e *Exporter) exportDescription(ctx context.Context, session neo4j.SessionWithContext, pm *resolve.PrefixMap, doc *oml.Ontology) error {
	file := filepath.Base(doc.Path)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, inst := range doc.Instances() {
			qname := oml.JoinName(doc.Prefix, inst.StatementName())

			types, err := canonicalTypes(pm, inst)
			if err != nil {
				return nil, err
			}

			switch v := inst.(type) {
			case *oml.ConceptInstance:
				if err := mergeNode(ctx, tx, qname, file, types); err != nil {
					return nil, err
				}

			case *oml.RelationInstance:
				if err := mergeRelation(ctx, tx, pm, qname, file, types, v); err != nil {
					return nil, err
				}
			}
		}

		return nil, nil
	})

	if err != nil {
		return fmt.Errorf("graph: exporting %s: %w", file, err)
	}

	e.logger.Info("description exported",
		zap.String("file", file),
		zap.Int("instances", len(doc.Instances())))

	return nil
}

func mergeNode(ctx context.Context, tx neo4j.ManagedTransaction, qname, file string, types []string) error {
	_, err := tx.Run(ctx,
		`MERGE (n:Instance {qname: $qname})
		 SET n.description = $file, n.types = $types`,
		map[string]any{"qname": qname, "file": file, "types": types})

	return err
}

func mergeRelation(ctx context.Context, tx neo4j.ManagedTransaction, pm *resolve.PrefixMap, qname, file string, types []string, rel *oml.RelationInstance) error {
	for _, source := range rel.Sources {
		src, err := pm.Canonicalize(source)
		if err != nil {
			return err
		}

		for _, target := range rel.Targets {
			tgt, err := pm.Canonicalize(target)
			if err != nil {
				return err
			}

			_, err = tx.Run(ctx,
				`MERGE (a:Instance {qname: $src})
				 MERGE (b:Instance {qname: $tgt})
				 MERGE (a)-[r:RELATES {qname: $qname}]->(b)
				 SET r.description = $file, r.types = $types`,
				map[string]any{"src": src, "tgt": tgt, "qname": qname, "file": file, "types": types})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func canonicalTypes(pm *resolve.PrefixMap, inst oml.Instance) ([]string, error) {
	types := make([]string, 0, len(inst.AssertedTypes()))

	for _, t := range inst.AssertedTypes() {
		canonical, err := pm.Canonicalize(t)
		if err != nil {
			return nil, err
		}

		types = append(types, canonical)
	}

	return types, nil
}
