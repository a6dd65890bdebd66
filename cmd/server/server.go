package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paularlott/cli"

	"github.com/martinsuchenak/rackseed/cmd/inventory"
	"github.com/martinsuchenak/rackseed/internal/api"
	"github.com/martinsuchenak/rackseed/internal/config"
	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/mcp"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/worker"
)

// ServerConfig holds configuration for running the server
type ServerConfig struct {
	Config     *config.Config
	Store      *storage.SQLiteStorage
	MCPServer  *mcp.Server
	APIHandler *api.Handler
	Scheduler  *worker.Scheduler
}

// NewHandler builds the HTTP handler of the server
func NewHandler(cfg *ServerConfig) http.Handler {
	mux := http.NewServeMux()

	cfg.APIHandler.RegisterRoutes(mux)
	mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	var handler http.Handler = mux
	if cfg.Config.IsAPIAuthEnabled() {
		handler = api.AuthMiddleware(cfg.Config.APIAuthToken, handler)
	}
	handler = api.SecurityHeadersMiddleware(handler)
	return api.LoggingMiddleware(handler)
}

// RunServer serves until ctx ends or the process is signalled
func RunServer(ctx context.Context, cfg *ServerConfig) error {
	server := &http.Server{
		Addr:              cfg.Config.ListenAddr,
		Handler:           NewHandler(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Info("Starting rackseed server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
	if cfg.Config.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	cfg.MCPServer.LogStartup()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

// scheduledGenerate is the task handler of the cron schedule
func scheduledGenerate(store storage.Store, opts generator.Options) worker.TaskHandler {
	return func(ctx context.Context) (string, error) {
		result, err := generator.Run(ctx, store, opts)
		if err != nil {
			return "", err
		}
		return result.String(), nil
	}
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Start the rackseed server",
		Description: "Start the HTTP server with the read-only API and MCP endpoints, optionally regenerating on a cron schedule",
		Flags:       append(config.GetFlags(), config.GetServerFlags()...),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.FromCommand(cmd)
			log.Info("Configuration loaded", "config", cfg.String(), "listen_addr", cfg.ListenAddr)

			opts, err := inventory.GeneratorOptions(cfg)
			if err != nil {
				return err
			}

			store, err := inventory.OpenStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			log.Info("Storage initialized", "backend", "SQLite", "path", store.GetDatabasePath())

			// One worker: generation and clear runs never overlap
			pool := worker.NewWorkerPool(1)
			pool.Start()
			defer pool.Stop()

			var scheduler *worker.Scheduler
			if cfg.IsScheduleEnabled() {
				scheduler = worker.NewScheduler(pool)
				scheduled := opts
				scheduled.Clear = cfg.ScheduleClear
				if err := scheduler.AddTask("generate", cfg.Schedule, scheduledGenerate(store, scheduled)); err != nil {
					return err
				}
				scheduler.Start()
				defer scheduler.Stop()
			} else {
				log.Info("Scheduled regeneration disabled")
			}

			var tasks api.TaskLister
			if scheduler != nil {
				tasks = scheduler
			}

			return RunServer(ctx, &ServerConfig{
				Config:     cfg,
				Store:      store,
				MCPServer:  mcp.NewServer(store, pool, opts, cfg.MCPAuthToken),
				APIHandler: api.NewHandler(store, tasks),
				Scheduler:  scheduler,
			})
		},
	}
}
