package inventory

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/rackseed/internal/config"
	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/report"
)

// StatsCommand prints row counts per entity kind
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:        "stats",
		Usage:       "Show record counts",
		Description: "Count records per entity kind, in total and stamped by the generator",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)

			store, err := OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := report.Stats(ctx, store, lifecycle.DefaultMarker)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tTOTAL\tGENERATED")
			fmt.Fprintln(w, "----\t-----\t---------")
			for _, s := range stats {
				fmt.Fprintf(w, "%s\t%d\t%d\n", s.Kind, s.Total, s.Generated)
			}
			return w.Flush()
		},
	}
}

// ExportCommand writes the device report to a file
func ExportCommand() *cli.Command {
	flags := append(config.GetFlags(),
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    "Output file",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: csv or xlsx (default from the output extension)",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Include hand-authored devices",
		},
	)

	return &cli.Command{
		Name:        "export",
		Usage:       "Export the device report",
		Description: "Write one row per device with its type, role, tenant, placement, serial, asset tag and management address",
		Flags:       flags,
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)
			output := cmd.GetString("output")

			format, err := report.Format(cmd.GetString("format"), output)
			if err != nil {
				return err
			}

			marker := lifecycle.DefaultMarker
			if cmd.GetBool("all") {
				marker = ""
			}

			store, err := OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}

			n, err := report.Export(ctx, store, marker, format, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				os.Remove(output)
				return fmt.Errorf("exporting: %w", err)
			}

			log.Info("Export written", "path", output, "format", format, "devices", n)
			fmt.Printf("exported %d devices to %s\n", n, output)
			return nil
		},
	}
}
