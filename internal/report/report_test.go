package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/martinsuchenak/rackseed/internal/generator"
	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

func setupGenerated(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if _, err := generator.Run(context.Background(), store, generator.Options{Seed: 42}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return store
}

func TestStats(t *testing.T) {
	store := setupGenerated(t)
	ctx := context.Background()

	// Hand-authored manufacturer counts in the total only
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.EnsureManufacturer(ctx, &model.Manufacturer{Name: "Acme", Slug: "acme"})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	stats, err := Stats(ctx, store, lifecycle.DefaultMarker)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if len(stats) != len(model.Kinds) {
		t.Fatalf("Expected %d stats, got %d", len(model.Kinds), len(stats))
	}

	byKind := map[model.Kind]Stat{}
	for i, s := range stats {
		if s.Kind != model.Kinds[i] {
			t.Errorf("Position %d: expected %s, got %s", i, model.Kinds[i], s.Kind)
		}
		byKind[s.Kind] = s
	}

	if s := byKind[model.KindDevice]; s.Total != 497 || s.Generated != 497 {
		t.Errorf("Unexpected device stat %+v", s)
	}
	if s := byKind[model.KindRack]; s.Generated != 25 {
		t.Errorf("Expected 25 generated racks, got %d", s.Generated)
	}
	if s := byKind[model.KindManufacturer]; s.Total != s.Generated+1 {
		t.Errorf("Expected hand-authored manufacturer in total only, got %+v", s)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		format  string
		path    string
		want    string
		wantErr bool
	}{
		{"", "devices.csv", FormatCSV, false},
		{"", "devices.XLSX", FormatXLSX, false},
		{"", "", FormatCSV, false},
		{"xlsx", "devices.csv", FormatXLSX, false},
		{"json", "", "", true},
	}

	for _, tt := range tests {
		got, err := Format(tt.format, tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("Format(%q, %q): expected ErrUnknownFormat, got %v", tt.format, tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Format(%q, %q) error = %v", tt.format, tt.path, err)
		}
		if got != tt.want {
			t.Errorf("Format(%q, %q): expected %s, got %s", tt.format, tt.path, tt.want, got)
		}
	}
}

func TestExport_CSV(t *testing.T) {
	store := setupGenerated(t)

	var buf bytes.Buffer
	n, err := Export(context.Background(), store, lifecycle.DefaultMarker, FormatCSV, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if n != 497 {
		t.Errorf("Expected 497 devices, got %d", n)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse csv: %v", err)
	}
	if len(records) != n+1 {
		t.Fatalf("Expected %d rows, got %d", n+1, len(records))
	}
	for i, col := range Columns {
		if records[0][i] != col {
			t.Errorf("Header %d: expected %s, got %s", i, col, records[0][i])
		}
	}

	first := records[1]
	if !strings.HasPrefix(first[0], "DLV-") {
		t.Errorf("Expected rows ordered by name, got %s first", first[0])
	}
	if first[6] != "HQ IDC" {
		t.Errorf("Expected site HQ IDC, got %s", first[6])
	}
	if first[11] == "" {
		t.Errorf("Expected %s to carry a primary address", first[0])
	}
}

func TestExport_XLSX(t *testing.T) {
	store := setupGenerated(t)

	var buf bytes.Buffer
	n, err := Export(context.Background(), store, lifecycle.DefaultMarker, FormatXLSX, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != n+1 {
		t.Fatalf("Expected %d rows, got %d", n+1, len(rows))
	}
	if rows[0][0] != "Name" || rows[0][len(Columns)-1] != "Primary IPv4" {
		t.Errorf("Unexpected header %v", rows[0])
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	var buf bytes.Buffer
	if _, err := Export(context.Background(), store, "", "pdf", &buf); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("Expected nothing written")
	}
}
