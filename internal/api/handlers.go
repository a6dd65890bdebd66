package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/report"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/worker"
)

// TaskLister reports scheduled tasks
type TaskLister interface {
	Tasks() []worker.Task
}

// Handler serves the read-only inventory API
type Handler struct {
	storage   storage.Reader
	scheduler TaskLister
	marker    string
}

// NewHandler creates a new API handler. scheduler may be nil.
func NewHandler(s storage.Reader, scheduler TaskLister) *Handler {
	return &Handler{storage: s, scheduler: scheduler, marker: lifecycle.DefaultMarker}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats", h.stats)
	mux.HandleFunc("GET /api/devices", h.listDevices)
	mux.HandleFunc("GET /api/devices/{name}", h.getDevice)
	mux.HandleFunc("GET /api/export", h.export)
	mux.HandleFunc("GET /api/tasks", h.listTasks)
}

// DeviceResponse is a device with its interfaces and primary address
type DeviceResponse struct {
	model.Device
	Interfaces  []model.Interface `json:"interfaces"`
	PrimaryIPv4 string            `json:"primary_ip4,omitempty"`
}

// stats handles GET /api/stats
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := report.Stats(r.Context(), h.storage, h.marker)
	if err != nil {
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// listDevices handles GET /api/devices?prefix=UNC-&all=true
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	filter := &model.DeviceFilter{NamePrefix: r.URL.Query().Get("prefix")}
	if r.URL.Query().Get("all") != "true" {
		filter.Marker = h.marker
	}

	devices, err := h.storage.ListDevices(r.Context(), filter)
	if err != nil {
		h.internalError(w, err)
		return
	}
	if devices == nil {
		devices = []model.Device{}
	}
	h.writeJSON(w, http.StatusOK, devices)
}

// getDevice handles GET /api/devices/{name}
func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "device name required")
		return
	}

	resp, err := h.describeDevice(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "device not found")
			return
		}
		h.internalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) describeDevice(ctx context.Context, name string) (*DeviceResponse, error) {
	device, err := h.storage.GetDeviceByName(ctx, name)
	if err != nil {
		return nil, err
	}
	ifaces, err := h.storage.ListInterfaces(ctx, device.ID)
	if err != nil {
		return nil, err
	}
	if ifaces == nil {
		ifaces = []model.Interface{}
	}

	resp := &DeviceResponse{Device: *device, Interfaces: ifaces}
	if device.PrimaryIPv4ID != "" {
		ip, err := h.storage.GetIPAddress(ctx, device.PrimaryIPv4ID)
		if err != nil {
			return nil, err
		}
		resp.PrimaryIPv4 = ip.Address
	}
	return resp, nil
}

// export handles GET /api/export?format=csv|xlsx&all=true
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	format, err := report.Format(r.URL.Query().Get("format"), "")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	marker := h.marker
	if r.URL.Query().Get("all") == "true" {
		marker = ""
	}

	contentType := "text/csv"
	if format == report.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=devices."+format)

	n, err := report.Export(r.Context(), h.storage, marker, format, w)
	if err != nil {
		// Headers may be gone already; log only
		log.Error("Export failed", "format", format, "error", err)
		return
	}
	log.Debug("Export served", "format", format, "devices", n)
}

// listTasks handles GET /api/tasks
func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks := []worker.Task{}
	if h.scheduler != nil {
		tasks = append(tasks, h.scheduler.Tasks()...)
	}
	h.writeJSON(w, http.StatusOK, tasks)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal Server Error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
