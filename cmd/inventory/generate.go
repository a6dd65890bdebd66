package inventory

import (
	"context"
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/rackseed/internal/config"
	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/log"
)

// GenerateCommand populates the store with the synthetic inventory
func GenerateCommand() *cli.Command {
	flags := append(config.GetFlags(),
		&cli.BoolFlag{
			Name:  "clear",
			Usage: "Remove previously generated records before generating",
		},
	)

	return &cli.Command{
		Name:        "generate",
		Usage:       "Generate the synthetic datacenter inventory",
		Description: "Create tenants, catalog, site, racks, VLANs, prefixes, devices, interfaces and management addresses. Existing records are reused.",
		Flags:       flags,
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)
			log.Debug("Configuration loaded", "config", cfg.String())

			opts, err := GeneratorOptions(cfg)
			if err != nil {
				return err
			}
			opts.Clear = cmd.GetBool("clear")
			opts.Progress = func(msg string) { fmt.Println(msg) }

			store, err := OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := generator.Run(ctx, store, opts)
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			fmt.Printf("seed %d: %s\n", result.Seed, result)
			return nil
		},
	}
}

// ClearCommand removes every generated record
func ClearCommand() *cli.Command {
	return &cli.Command{
		Name:        "clear",
		Usage:       "Remove generated records",
		Description: "Delete every record stamped by the generator, in reverse dependency order. Hand-authored records are kept.",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)

			store, err := OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			report, err := lifecycle.Clear(ctx, store, lifecycle.DefaultMarker)
			if err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}

			fmt.Printf("cleared %d generated records\n", report.Total())
			log.Info("Cleared", "deleted", report.String())
			return nil
		},
	}
}
