package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/omlkit/oml/graph"
	"github.com/omlkit/oml/workspace"
)

// ErrNoExportURI is returned when no Neo4j connection URI is given.
var ErrNoExportURI = errors.New("no connection URI specified (use --uri or OML_URI)")

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the instance graph to Neo4j",
		ArgsUsage: "[directory]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "uri",
				Usage:   "database connection URI",
				Sources: cli.EnvVars("OML_URI"),
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "database username",
				Sources: cli.EnvVars("OML_USER"),
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "database password",
				Sources: cli.EnvVars("OML_PASS"),
			},
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "database name",
				Sources: cli.EnvVars("OML_DATABASE"),
			},
		},
		Action: runExport,
	}
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	uri := cmd.String("uri")
	if uri == "" {
		return ErrNoExportURI
	}

	root := cmd.Args().First()
	if root == "" {
		root = "."
	}

	ws := workspace.New(logger)
	loader := workspace.NewLoader(ws, logger)

	if err := loader.LoadAll(root); err != nil {
		return err
	}

	if len(ws.Documents()) == 0 {
		return ErrNoDocuments
	}

	exporter, err := graph.NewExporter(ctx, &graph.Config{
		URI:      uri,
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Database: cmd.String("database"),
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = exporter.Close(ctx) }()

	return exporter.Export(ctx, ws)
}
