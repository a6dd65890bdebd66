package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/martinsuchenak/rackseed/internal/model"
)

var ErrUnknownFormat = errors.New("unknown export format")

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	sheetName = "Devices"
)

// Columns is the header row of a device export
var Columns = []string{
	"Name", "Status", "Device Type", "Manufacturer", "Role", "Tenant",
	"Site", "Location", "Rack", "Serial", "Asset Tag", "Primary IPv4",
}

// Counter counts stored rows per kind
type Counter interface {
	Count(ctx context.Context, kind model.Kind, marker string) (int, error)
}

// DetailLister lists flattened devices
type DetailLister interface {
	ListDeviceDetails(ctx context.Context, marker string) ([]model.DeviceDetail, error)
}

// Stat is the row count of one kind
type Stat struct {
	Kind      model.Kind `json:"kind"`
	Total     int        `json:"total"`
	Generated int        `json:"generated"`
}

// Stats counts every kind, in creation order, in total and carrying marker
func Stats(ctx context.Context, c Counter, marker string) ([]Stat, error) {
	stats := make([]Stat, 0, len(model.Kinds))
	for _, kind := range model.Kinds {
		total, err := c.Count(ctx, kind, "")
		if err != nil {
			return nil, err
		}
		generated, err := c.Count(ctx, kind, marker)
		if err != nil {
			return nil, err
		}
		stats = append(stats, Stat{Kind: kind, Total: total, Generated: generated})
	}
	return stats, nil
}

// Format picks the export format from an explicit value or the file
// extension
func Format(format, path string) (string, error) {
	if format == "" {
		switch {
		case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
			format = FormatXLSX
		default:
			format = FormatCSV
		}
	}
	switch format {
	case FormatCSV, FormatXLSX:
		return format, nil
	}
	return "", fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// Export writes the devices carrying marker (all devices when marker is
// empty) in format
func Export(ctx context.Context, src DetailLister, marker, format string, w io.Writer) (int, error) {
	details, err := src.ListDeviceDetails(ctx, marker)
	if err != nil {
		return 0, err
	}

	switch format {
	case FormatCSV:
		err = WriteCSV(w, details)
	case FormatXLSX:
		err = WriteXLSX(w, details)
	default:
		err = fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	if err != nil {
		return 0, err
	}
	return len(details), nil
}

func row(d model.DeviceDetail) []string {
	return []string{
		d.Name, d.Status, d.DeviceType, d.Manufacturer, d.Role, d.Tenant,
		d.Site, d.Location, d.Rack, d.Serial, d.AssetTag, d.PrimaryIPv4,
	}
}

func WriteCSV(w io.Writer, details []model.DeviceDetail) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, d := range details {
		if err := writer.Write(row(d)); err != nil {
			return fmt.Errorf("writing csv row %s: %w", d.Name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteXLSX(w io.Writer, details []model.DeviceDetail) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing xlsx header: %w", err)
	}

	for i, d := range details {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row(d)
		line := make([]interface{}, len(values))
		for j, v := range values {
			line[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &line); err != nil {
			return fmt.Errorf("writing xlsx row %s: %w", d.Name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing xlsx: %w", err)
	}
	return nil
}
