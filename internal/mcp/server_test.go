package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/report"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/worker"
)

func setupServer(t *testing.T, token string) (*Server, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	pool := worker.NewWorkerPool(1)
	pool.Start()
	t.Cleanup(pool.Stop)

	return NewServer(store, pool, generator.Options{Seed: 7}, token), store
}

func TestHandleRequest_Auth(t *testing.T) {
	s, _ := setupServer(t, "secret")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic secret"},
		{"wrong token", "Bearer nope"},
		{"token prefix", "Bearer secre"},
		{"token with suffix", "Bearer secretx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.HandleRequest(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", w.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	s.HandleRequest(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("Expected the matching token to be accepted")
	}
}

func TestFormatDeviceSummary(t *testing.T) {
	s, store := setupServer(t, "")
	ctx := context.Background()

	if _, err := generator.Run(ctx, store, generator.Options{Seed: 7}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	device, err := store.GetDeviceByName(ctx, "NET-0049")
	if err != nil {
		t.Fatalf("GetDeviceByName() error = %v", err)
	}
	summary, err := s.formatDeviceSummary(ctx, device)
	if err != nil {
		t.Fatalf("formatDeviceSummary() error = %v", err)
	}

	for _, want := range []string{"Name: NET-0049", "Location: B1 General", "Rack: B1 General-RACK-", "Primary IPv4: 10.1.", "MGMT 1000base-t [mgmt]"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, summary)
		}
	}
}

func TestFormatStats(t *testing.T) {
	got := formatStats([]report.Stat{{Kind: "device", Total: 500, Generated: 497}})
	if !strings.Contains(got, "device: 500 (497)") {
		t.Errorf("Unexpected stats text %q", got)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in      string
		def     bool
		want    bool
		wantErr bool
	}{
		{"", true, true, false},
		{"", false, false, false},
		{"true", false, true, false},
		{"0", true, false, false},
		{"maybe", false, false, true},
	}

	for _, tt := range tests {
		got, err := parseBool(tt.in, tt.def)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBool(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseBool(%q): expected %t, got %t", tt.in, tt.want, got)
		}
	}
}
