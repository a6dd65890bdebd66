package main

import (
	"context"
	"os"

	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"

	"github.com/martinsuchenak/rackseed/cmd/inventory"
	"github.com/martinsuchenak/rackseed/cmd/server"
	"github.com/martinsuchenak/rackseed/internal/log"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	log.Configure("info", "console")

	rootCmd := &cli.Command{
		Name:        "rackseed",
		Version:     version,
		Usage:       "Synthetic datacenter inventory generator",
		Description: "Populate an inventory store with a realistic, idempotent datacenter: tenants, catalog, racks, VLANs, prefixes, devices, interfaces and management addresses",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"RACKSEED_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"RACKSEED_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			log.Debug("rackseed", "version", version, "commit", commit, "date", date)
			return ctx, nil
		},
		Commands: append(inventory.Commands(), server.Command()),
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}
