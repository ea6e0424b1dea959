package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omlkit/oml/resolve"
	"github.com/omlkit/oml/workspace"
)

// ErrNoContextDocument is returned when --in names a document outside the
// workspace.
var ErrNoContextDocument = errors.New("context document not found in workspace")

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve a name in the context of a document",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "in",
				Usage:    "document the name appears in",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "workspace root",
				Value:   ".",
			},
		},
		Action: runResolve,
	}
}

func runResolve(_ context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	name := cmd.Args().First()
	if name == "" {
		return cli.Exit("usage: oml resolve --in <file> <name>", 2)
	}

	ws := workspace.New(logger)
	loader := workspace.NewLoader(ws, logger)

	if err := loader.LoadAll(cmd.String("root")); err != nil {
		return err
	}

	doc, err := loader.Load(cmd.String("in"))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoContextDocument, cmd.String("in"))
	}

	result, err := resolve.New(ws, logger).Resolve(doc, name)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case resolve.Resolved:
		fmt.Printf("%s\n", result.QName)

		if result.Pending != nil {
			fmt.Printf("needs import: %s\n", result.Pending.InsertText)
		}

	case resolve.Ambiguous:
		fmt.Fprintf(os.Stderr, "ambiguous: %s\n", name)

		for _, c := range result.Candidates {
			fmt.Fprintf(os.Stderr, "  %s (%s)\n", c.QName, c.Namespace)
		}

		return cli.Exit("", 1)

	case resolve.NotFound:
		fmt.Fprintf(os.Stderr, "not found: %s\n", result.Hint)

		return cli.Exit("", 1)
	}

	return nil
}
