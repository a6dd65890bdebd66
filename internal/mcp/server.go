package mcp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/paularlott/mcp"

	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/report"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/worker"
)

const version = "1.0.0"

// Store is the inventory store the tools read and write
type Store interface {
	storage.Store
	storage.Reader
}

// Server wraps the MCP server with the inventory store
type Server struct {
	mcpServer   *mcp.Server
	store       Store
	pool        *worker.WorkerPool
	defaults    generator.Options
	bearerToken string
}

// NewServer creates a new MCP server for the inventory. Writes go through
// pool; defaults supplies the plan and tuning of generation runs.
func NewServer(store Store, pool *worker.WorkerPool, defaults generator.Options, bearerToken string) *Server {
	if defaults.Marker == "" {
		defaults.Marker = lifecycle.DefaultMarker
	}
	s := &Server{
		mcpServer:   mcp.NewServer("rackseed", version),
		store:       store,
		pool:        pool,
		defaults:    defaults,
		bearerToken: bearerToken,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.RegisterTool(
		mcp.NewTool("inventory_generate", "Generate the synthetic datacenter inventory. Existing records are reused, so running it twice creates nothing new.",
			mcp.String("clear", "Remove previously generated records first (true or false)"),
			mcp.String("seed", "Random seed; omit or 0 to pick one"),
		),
		s.handleGenerate,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("inventory_clear", "Remove every generated record, leaving hand-authored records untouched"),
		s.handleClear,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("inventory_stats", "Count records per entity kind, in total and generated"),
		s.handleStats,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("inventory_device_get", "Get a device with its interfaces and management address",
			mcp.String("name", "Device name (e.g., SRV-0001)", mcp.Required()),
		),
		s.handleDeviceGet,
	)

	s.mcpServer.RegisterTool(
		mcp.NewTool("inventory_device_list", "List device names, optionally by name prefix",
			mcp.String("prefix", "Name prefix (e.g., UNC-)"),
			mcp.String("generated", "Only generated devices (true or false, default true)"),
		),
		s.handleDeviceList,
	)
}

// HandleRequest handles MCP HTTP requests with optional bearer token authentication
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	log.Debug("MCP request received", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)

	if s.bearerToken != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			log.Warn("MCP request missing Authorization header", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Missing Authorization header", http.StatusUnauthorized)
			return
		}
		if !strings.HasPrefix(auth, "Bearer ") {
			log.Warn("MCP request invalid Authorization format", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid Authorization format", http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.bearerToken)) != 1 {
			log.Warn("MCP request invalid token", "remote_addr", r.RemoteAddr)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}
		log.Debug("MCP request authenticated successfully")
	}

	s.mcpServer.HandleRequest(w, r)
}

func (s *Server) handleGenerate(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	clearFirst, err := parseBool(req.StringOr("clear", ""), false)
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("clear must be true or false: " + err.Error())
	}
	seed := s.defaults.Seed
	if v := req.StringOr("seed", ""); v != "" {
		seed, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, mcp.NewToolErrorInvalidParams("seed must be an integer: " + err.Error())
		}
	}

	log.Debug("MCP generate request", "clear", clearFirst, "seed", seed)

	opts := s.defaults
	opts.Clear = clearFirst
	opts.Seed = seed

	var progress strings.Builder
	opts.Progress = func(msg string) {
		progress.WriteString(msg)
		progress.WriteString("\n")
	}

	var result *generator.Result
	err = s.pool.Do(ctx, "inventory_generate", func(jobCtx context.Context) error {
		var err error
		result, err = generator.Run(jobCtx, s.store, opts)
		return err
	})
	if err != nil {
		log.Error("MCP generate failed", "error", err)
		return nil, mcp.NewToolErrorInternal("generation failed: " + err.Error())
	}

	log.Info("MCP generate completed", "seed", result.Seed, "devices", result.Devices)
	progress.WriteString(fmt.Sprintf("\nSeed: %d\nResult: %s\n", result.Seed, result))
	if clearFirst {
		progress.WriteString(fmt.Sprintf("Cleared: %d\n", result.Cleared))
	}
	return mcp.NewToolResponseText(progress.String()), nil
}

func (s *Server) handleClear(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	var rep *lifecycle.Report
	err := s.pool.Do(ctx, "inventory_clear", func(jobCtx context.Context) error {
		var err error
		rep, err = lifecycle.Clear(jobCtx, s.store, s.defaults.Marker)
		return err
	})
	if err != nil {
		log.Error("MCP clear failed", "error", err)
		return nil, mcp.NewToolErrorInternal("clear failed: " + err.Error())
	}

	log.Info("MCP clear completed", "deleted", rep.Total())
	return mcp.NewToolResponseText(fmt.Sprintf("cleared %d generated records (%s)", rep.Total(), rep)), nil
}

func (s *Server) handleStats(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	stats, err := report.Stats(ctx, s.store, s.defaults.Marker)
	if err != nil {
		log.Error("MCP stats failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to count records: " + err.Error())
	}
	return mcp.NewToolResponseText(formatStats(stats)), nil
}

func (s *Server) handleDeviceGet(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	name, err := req.String("name")
	if err != nil {
		log.Warn("MCP device get - missing name", "error", err)
		return nil, mcp.NewToolErrorInvalidParams("name is required: " + err.Error())
	}

	device, err := s.store.GetDeviceByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResponseText(fmt.Sprintf("No device named %s", name)), nil
	}
	if err != nil {
		log.Error("MCP device get failed", "error", err, "name", name)
		return nil, mcp.NewToolErrorInternal("failed to get device: " + err.Error())
	}

	summary, err := s.formatDeviceSummary(ctx, device)
	if err != nil {
		log.Error("MCP device get failed", "error", err, "name", name)
		return nil, mcp.NewToolErrorInternal("failed to describe device: " + err.Error())
	}
	return mcp.NewToolResponseText(summary), nil
}

func (s *Server) handleDeviceList(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	generated, err := parseBool(req.StringOr("generated", ""), true)
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams("generated must be true or false: " + err.Error())
	}

	filter := &model.DeviceFilter{NamePrefix: req.StringOr("prefix", "")}
	if generated {
		filter.Marker = s.defaults.Marker
	}

	devices, err := s.store.ListDevices(ctx, filter)
	if err != nil {
		log.Error("MCP device list failed", "error", err)
		return nil, mcp.NewToolErrorInternal("failed to list devices: " + err.Error())
	}
	if len(devices) == 0 {
		return mcp.NewToolResponseText("No devices found"), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d devices:\n", len(devices)))
	for _, d := range devices {
		result.WriteString(fmt.Sprintf("  - %s (%s)\n", d.Name, d.Status))
	}
	return mcp.NewToolResponseText(result.String()), nil
}

func (s *Server) formatDeviceSummary(ctx context.Context, device *model.Device) (string, error) {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Name: %s\n", device.Name))
	result.WriteString(fmt.Sprintf("ID: %s\n", device.ID))
	result.WriteString(fmt.Sprintf("Status: %s\n", device.Status))
	if device.LocationID != "" {
		if loc, err := s.store.GetLocation(ctx, device.LocationID); err == nil {
			result.WriteString(fmt.Sprintf("Location: %s\n", loc.Name))
		}
	}
	if device.RackID != "" {
		if rack, err := s.store.GetRack(ctx, device.RackID); err == nil {
			result.WriteString(fmt.Sprintf("Rack: %s\n", rack.Name))
		}
	}
	if device.Serial != "" {
		result.WriteString(fmt.Sprintf("Serial: %s\n", device.Serial))
	}
	if device.AssetTag != "" {
		result.WriteString(fmt.Sprintf("Asset tag: %s\n", device.AssetTag))
	}
	if device.PrimaryIPv4ID != "" {
		if ip, err := s.store.GetIPAddress(ctx, device.PrimaryIPv4ID); err == nil {
			result.WriteString(fmt.Sprintf("Primary IPv4: %s\n", ip.Address))
		}
	}

	ifaces, err := s.store.ListInterfaces(ctx, device.ID)
	if err != nil {
		return "", err
	}
	if len(ifaces) > 0 {
		result.WriteString("Interfaces:\n")
		for _, i := range ifaces {
			mgmt := ""
			if i.MgmtOnly {
				mgmt = " [mgmt]"
			}
			result.WriteString(fmt.Sprintf("  - %s %s%s\n", i.Name, i.Type, mgmt))
		}
	}
	return result.String(), nil
}

func formatStats(stats []report.Stat) string {
	var result strings.Builder
	result.WriteString("Kind: total (generated)\n")
	for _, st := range stats {
		result.WriteString(fmt.Sprintf("%s: %d (%d)\n", st.Kind, st.Total, st.Generated))
	}
	return result.String()
}

func parseBool(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// GetHTTPHandler returns the HTTP handler for the MCP server
func (s *Server) GetHTTPHandler() http.HandlerFunc {
	return s.HandleRequest
}

// LogStartup logs MCP server startup information
func (s *Server) LogStartup() {
	log.Info("MCP Server initialized", "version", version)
	if s.bearerToken != "" {
		log.Info("MCP authentication enabled", "type", "Bearer token")
	} else {
		log.Info("MCP authentication disabled")
	}
	tools := s.mcpServer.ListTools()
	log.Info("MCP tools registered", "count", len(tools))
	for _, tool := range tools {
		log.Debug("MCP tool registered", "name", tool.Name, "description", tool.Description)
	}
}
