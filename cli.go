package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// Applicator defines the interface for the core application logic.
// This allows the CLI to be tested independently of the main app implementation.
type Applicator interface {
	Serve(ctx context.Context, cfgPath string) error
	Inspect(ctx context.Context, cfgPath string) error
	Snapshots(ctx context.Context, cfgPath string) error
	Prune(ctx context.Context, cfgPath string, keep int) error
	Wipe(ctx context.Context, cfgPath string) error
}

// BuildCLI creates the full CLI command structure for the application.
// It injects the core application logic (the Applicator) into the command actions.
func BuildCLI(app Applicator) *cli.Command {
	// Define flags that are common across multiple commands.
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   "config.yaml",
		Usage:   "path to the configuration file",
	}

	serveCmd := &cli.Command{
		Name:  "serve",
		Usage: "Load the feeds and serve the dashboard API, reloading on feed changes",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	inspectCmd := &cli.Command{
		Name:  "inspect",
		Usage: "Locate and parse the feed files and report their status without serving",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Inspect(ctx, c.String("config"))
		},
	}

	snapshotsCmd := &cli.Command{
		Name:  "snapshots",
		Usage: "List the stored dataset snapshots",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Snapshots(ctx, c.String("config"))
		},
	}

	pruneCmd := &cli.Command{
		Name:  "prune",
		Usage: "Delete all but the newest stored snapshots",
		Flags: []cli.Flag{
			configFlag,
			&cli.IntFlag{
				Name:  "keep",
				Usage: "number of snapshots to keep",
				Value: 5,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Prune(ctx, c.String("config"), int(c.Int("keep")))
		},
	}

	wipeCmd := &cli.Command{
		Name:  "wipe",
		Usage: "Delete every stored snapshot",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Wipe(ctx, c.String("config"))
		},
	}

	// Assemble the root command. Serving is the default action.
	rootCmd := &cli.Command{
		Name:     "salesboard",
		Usage:    "A sales analytics dashboard over daily CSV feed exports",
		Flags:    []cli.Flag{configFlag},
		Commands: []*cli.Command{serveCmd, inspectCmd, snapshotsCmd, pruneCmd, wipeCmd},
		Action: func(ctx context.Context, c *cli.Command) error {
			return app.Serve(ctx, c.String("config"))
		},
	}

	return rootCmd
}
