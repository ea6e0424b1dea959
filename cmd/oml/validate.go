package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"go.lsp.dev/jsonrpc2"

	"github.com/omlkit/oml"
	"github.com/omlkit/oml/check"
	"github.com/omlkit/oml/hierarchy"
	"github.com/omlkit/oml/notify"
	"github.com/omlkit/oml/playbook"
	"github.com/omlkit/oml/report"
	"github.com/omlkit/oml/workspace"
)

// Validate command errors.
var (
	ErrNoDocuments = errors.New("no .oml documents found")
	ErrViolations  = errors.New("playbook violations found")
)

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check description documents against the playbook",
		ArgsUsage: "[directory]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playbook",
				Aliases: []string{"p"},
				Usage:   "playbook file (default: searched upward from the workspace root)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output results as JSON",
			},
			&cli.StringFlag{
				Name:    "notify",
				Usage:   "publish diagnostics to a JSON-RPC endpoint (host:port)",
				Sources: cli.EnvVars("OML_NOTIFY"),
			},
		},
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

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

	pb, err := loadPlaybook(cmd, root)
	if err != nil {
		return err
	}

	var publisher *notify.Publisher

	if addr := cmd.String("notify"); addr != "" {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", addr, err)
		}
		defer func() { _ = conn.Close() }()

		publisher = notify.NewPublisher(jsonrpc2.NewConn(jsonrpc2.NewStream(conn)), logger)
	}

	checker := check.New(ws, hierarchy.New(ws), pb)
	total := &check.Report{}

	for _, doc := range ws.Documents() {
		if doc.Kind != oml.Description && doc.Kind != oml.DescriptionBundle {
			continue
		}

		rep, err := checker.CheckDescription(doc)
		if err != nil {
			return fmt.Errorf("checking %s: %w", doc.Path, err)
		}

		if publisher != nil {
			if err := publisher.PublishViolations(ctx, doc.Path, rep.Violations); err != nil {
				return err
			}
		}

		total.Violations = append(total.Violations, rep.Violations...)
	}

	formatter := report.NewFormatter(formatName(cmd), os.Stdout)
	if err := formatter.Format(total); err != nil {
		return err
	}

	if !total.Valid() {
		return cli.Exit("", 1)
	}

	return nil
}

// loadPlaybook loads an explicit playbook path or searches upward from root.
// A missing playbook is not an error; validation then runs without container
// checks.
func loadPlaybook(cmd *cli.Command, root string) (*playbook.Playbook, error) {
	if path := cmd.String("playbook"); path != "" {
		return playbook.LoadFile(path)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	path, err := playbook.Find(abs)
	if errors.Is(err, playbook.ErrPlaybookNotFound) {
		return &playbook.Playbook{}, nil
	}

	if err != nil {
		return nil, err
	}

	return playbook.LoadFile(path)
}

func formatName(cmd *cli.Command) string {
	if cmd.Bool("json") {
		return "json"
	}

	return "text"
}
