package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/report"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/worker"
)

type fakeTasks []worker.Task

func (f fakeTasks) Tasks() []worker.Task { return f }

// setupTestServer serves the API over a store holding the default inventory
func setupTestServer(t *testing.T, tasks TaskLister) *httptest.Server {
	t.Helper()
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := generator.Run(context.Background(), store, generator.Options{Seed: 3}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mux := http.NewServeMux()
	NewHandler(store, tasks).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHandler_Stats(t *testing.T) {
	server := setupTestServer(t, nil)

	var stats []report.Stat
	if code := getJSON(t, server.URL+"/api/stats", &stats); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	for _, s := range stats {
		if s.Kind == model.KindDevice && s.Generated != 497 {
			t.Errorf("Expected 497 generated devices, got %d", s.Generated)
		}
	}
}

func TestHandler_ListDevices(t *testing.T) {
	server := setupTestServer(t, nil)

	var devices []model.Device
	if code := getJSON(t, server.URL+"/api/devices?prefix=UNC-", &devices); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	// 18 + 8 + 12 + 65 + 18 unclassified across the five locations
	if len(devices) != 121 {
		t.Errorf("Expected 121 unclassified devices, got %d", len(devices))
	}
	for _, d := range devices {
		if d.TenantID != "" {
			t.Errorf("%s: expected no tenant", d.Name)
		}
	}

	var none []model.Device
	getJSON(t, server.URL+"/api/devices?prefix=NOPE-", &none)
	if none == nil || len(none) != 0 {
		t.Errorf("Expected an empty list, got %v", none)
	}
}

func TestHandler_GetDevice(t *testing.T) {
	server := setupTestServer(t, nil)

	var device DeviceResponse
	if code := getJSON(t, server.URL+"/api/devices/SRV-0001", &device); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if device.Name != "SRV-0001" || device.PrimaryIPv4 == "" {
		t.Errorf("Unexpected device %+v", device)
	}
	if len(device.Interfaces) < 3 {
		t.Errorf("Expected MGMT and data interfaces, got %d", len(device.Interfaces))
	}

	if code := getJSON(t, server.URL+"/api/devices/SRV-9999", nil); code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", code)
	}
}

func TestHandler_Export(t *testing.T) {
	server := setupTestServer(t, nil)

	resp, err := http.Get(server.URL + "/api/export")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/csv" {
		t.Errorf("Expected text/csv, got %s", resp.Header.Get("Content-Type"))
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse csv: %v", err)
	}
	if len(records) != 498 {
		t.Errorf("Expected header and 497 rows, got %d", len(records))
	}

	if code := getJSON(t, server.URL+"/api/export?format=pdf", nil); code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", code)
	}
}

func TestHandler_Tasks(t *testing.T) {
	server := setupTestServer(t, fakeTasks{{Name: "generate", Spec: "0 3 * * *", Status: "pending"}})

	var tasks []worker.Task
	if code := getJSON(t, server.URL+"/api/tasks", &tasks); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if len(tasks) != 1 || tasks[0].Name != "generate" {
		t.Errorf("Unexpected tasks %+v", tasks)
	}
}

func TestMiddleware_SecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := httptest.NewRecorder()
	SecurityHeadersMiddleware(next).ServeHTTP(w, req)

	for _, h := range []string{
		"Content-Security-Policy",
		"Strict-Transport-Security",
		"X-Frame-Options",
		"X-Content-Type-Options",
		"Referrer-Policy",
	} {
		if w.Result().Header.Get(h) == "" {
			t.Errorf("Expected header %s to be set", h)
		}
	}
}

func TestMiddleware_Auth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := LoggingMiddleware(AuthMiddleware("secret-token", next))

	tests := []struct {
		name           string
		path           string
		authHeader     string
		expectedStatus int
	}{
		{"No Auth - Non-API Path", "/mcp", "", http.StatusOK},
		{"No Auth - API Path", "/api/stats", "", http.StatusUnauthorized},
		{"Valid Auth - API Path", "/api/stats", "Bearer secret-token", http.StatusOK},
		{"Invalid Auth - API Path", "/api/stats", "Bearer wrong-token", http.StatusUnauthorized},
		{"Query Auth - Disabled", "/api/stats?token=secret-token", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			if w.Result().StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Result().StatusCode)
			}
		})
	}

	open := AuthMiddleware("", next)
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected auth disabled without token, got %d", w.Code)
	}
}
