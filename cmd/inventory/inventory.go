package inventory

import (
	"fmt"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/rackseed/internal/config"
	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/plan"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

// Commands returns the inventory commands
func Commands() []*cli.Command {
	return []*cli.Command{
		GenerateCommand(),
		ClearCommand(),
		StatsCommand(),
		ExportCommand(),
	}
}

// OpenStore opens the SQLite store in the configured data directory
func OpenStore(cfg *config.Config) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	log.Debug("Storage initialized", "path", store.GetDatabasePath())
	return store, nil
}

// GeneratorOptions builds generation options from the configuration,
// loading the plan file when one is set
func GeneratorOptions(cfg *config.Config) (generator.Options, error) {
	opts := generator.Options{
		Marker:         lifecycle.DefaultMarker,
		Seed:           cfg.Seed,
		StrictCapacity: cfg.StrictCapacity,
		AddressRetries: cfg.AddressRetries,
	}
	if cfg.PlanFile != "" {
		p, err := plan.Load(cfg.PlanFile)
		if err != nil {
			return opts, err
		}
		log.Info("Plan loaded", "path", cfg.PlanFile, "devices", p.TotalDevices())
		opts.Plan = p
	}
	return opts, nil
}
