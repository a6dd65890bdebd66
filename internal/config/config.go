package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paularlott/cli"
)

const (
	defaultDataDir        = "./data"
	defaultListenAddr     = ":8080"
	defaultAddressRetries = 8
)

// Config holds the application configuration
type Config struct {
	DataDir        string
	PlanFile       string // Optional YAML plan overriding the built-in tables
	Seed           int64  // 0 seeds the random source from the clock
	StrictCapacity bool
	AddressRetries int
	ListenAddr     string
	MCPAuthToken   string
	APIAuthToken   string
	Schedule       string // Cron spec for regeneration in server mode, empty disables
	ScheduleClear  bool
}

// Load resolves the configuration from environment variables and defaults.
// Call env.Load() first if a .env file should be honoured.
func Load() *Config {
	cfg := &Config{
		DataDir:        coalesce(os.Getenv("RACKSEED_DATA_DIR"), defaultDataDir),
		PlanFile:       os.Getenv("RACKSEED_PLAN_FILE"),
		ListenAddr:     coalesce(os.Getenv("RACKSEED_LISTEN_ADDR"), defaultListenAddr),
		MCPAuthToken:   os.Getenv("RACKSEED_MCP_TOKEN"),
		APIAuthToken:   os.Getenv("RACKSEED_API_TOKEN"),
		Schedule:       os.Getenv("RACKSEED_SCHEDULE"),
		AddressRetries: defaultAddressRetries,
	}

	if v := os.Getenv("RACKSEED_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if v := os.Getenv("RACKSEED_ADDRESS_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AddressRetries = n
		}
	}
	cfg.StrictCapacity = parseBool(os.Getenv("RACKSEED_STRICT_CAPACITY"))
	cfg.ScheduleClear = parseBool(os.Getenv("RACKSEED_SCHEDULE_CLEAR"))

	return cfg
}

// GetFlags returns the flags shared by every command that opens the store.
func GetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Data directory holding rackseed.db",
			DefaultValue: defaultDataDir,
			EnvVars:      []string{"RACKSEED_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "plan",
			Usage:   "YAML plan file overriding the built-in inventory tables",
			EnvVars: []string{"RACKSEED_PLAN_FILE"},
		},
		&cli.IntFlag{
			Name:    "seed",
			Usage:   "Random seed (0 picks one from the clock)",
			EnvVars: []string{"RACKSEED_SEED"},
		},
		&cli.BoolFlag{
			Name:    "strict-capacity",
			Usage:   "Fail when a location's racks cannot hold its devices",
			EnvVars: []string{"RACKSEED_STRICT_CAPACITY"},
		},
		&cli.IntFlag{
			Name:         "address-retries",
			Usage:        "Attempts to draw an unused management address per device",
			DefaultValue: defaultAddressRetries,
			EnvVars:      []string{"RACKSEED_ADDRESS_RETRIES"},
		},
	}
}

// GetServerFlags returns the extra flags of the serve command.
func GetServerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "addr",
			Usage:        "Server listen address (e.g., :8080)",
			DefaultValue: defaultListenAddr,
			EnvVars:      []string{"RACKSEED_LISTEN_ADDR"},
		},
		&cli.StringFlag{
			Name:    "mcp-token",
			Usage:   "MCP bearer token for authentication",
			EnvVars: []string{"RACKSEED_MCP_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API bearer token for authentication",
			EnvVars: []string{"RACKSEED_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "schedule",
			Usage:   "Cron expression for periodic regeneration (e.g., \"0 3 * * *\")",
			EnvVars: []string{"RACKSEED_SCHEDULE"},
		},
		&cli.BoolFlag{
			Name:    "schedule-clear",
			Usage:   "Clear generated records before each scheduled run",
			EnvVars: []string{"RACKSEED_SCHEDULE_CLEAR"},
		},
	}
}

// FromCommand resolves the configuration from a parsed command. Flags that
// the command does not declare keep their environment or default value.
func FromCommand(cmd *cli.Command) *Config {
	cfg := Load()

	cfg.DataDir = coalesce(cmd.GetString("data-dir"), cfg.DataDir)
	cfg.PlanFile = coalesce(cmd.GetString("plan"), cfg.PlanFile)
	if seed := cmd.GetInt("seed"); seed != 0 {
		cfg.Seed = int64(seed)
	}
	if cmd.GetBool("strict-capacity") {
		cfg.StrictCapacity = true
	}
	if n := cmd.GetInt("address-retries"); n > 0 {
		cfg.AddressRetries = n
	}
	cfg.ListenAddr = coalesce(cmd.GetString("addr"), cfg.ListenAddr)
	cfg.MCPAuthToken = coalesce(cmd.GetString("mcp-token"), cfg.MCPAuthToken)
	cfg.APIAuthToken = coalesce(cmd.GetString("api-token"), cfg.APIAuthToken)
	cfg.Schedule = coalesce(cmd.GetString("schedule"), cfg.Schedule)
	if cmd.GetBool("schedule-clear") {
		cfg.ScheduleClear = true
	}

	return cfg
}

// IsMCPAuthEnabled checks if MCP authentication is configured
func (c *Config) IsMCPAuthEnabled() bool {
	return c.MCPAuthToken != ""
}

// IsAPIAuthEnabled checks if API authentication is configured
func (c *Config) IsAPIAuthEnabled() bool {
	return c.APIAuthToken != ""
}

// IsScheduleEnabled reports whether server mode regenerates on a schedule.
func (c *Config) IsScheduleEnabled() bool {
	return strings.TrimSpace(c.Schedule) != ""
}

func (c *Config) String() string {
	return fmt.Sprintf("data_dir=%s plan=%q seed=%d strict_capacity=%t address_retries=%d",
		c.DataDir, c.PlanFile, c.Seed, c.StrictCapacity, c.AddressRetries)
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
