package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omlkit/oml/check"
	"github.com/omlkit/oml/report"
)

func routeCommand() *cli.Command {
	return &cli.Command{
		Name:      "route",
		Usage:     "Recommend which description file a new instance belongs in",
		ArgsUsage: "<canonical type>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playbook",
				Aliases: []string{"p"},
				Usage:   "playbook file (default: searched upward from the workspace root)",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "workspace root",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "output results as JSON",
			},
		},
		Action: runRoute,
	}
}

func runRoute(_ context.Context, cmd *cli.Command) error {
	typeName := cmd.Args().First()
	if typeName == "" {
		return cli.Exit("usage: oml route <canonical type>", 2)
	}

	pb, err := loadPlaybook(cmd, cmd.String("root"))
	if err != nil {
		return err
	}

	recs := check.RouteInstance(typeName, pb)

	formatter := report.NewFormatter(formatName(cmd), os.Stdout)

	return formatter.Recommendations(typeName, recs)
}
