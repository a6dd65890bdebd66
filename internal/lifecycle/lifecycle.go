package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

// DefaultMarker tags every row the generator creates
const DefaultMarker = "idc-dummy"

// ClearOrder is the deletion order of the clear pass. Every kind comes before
// the kinds it references.
var ClearOrder = []model.Kind{
	model.KindIPAddress,
	model.KindInterface,
	model.KindDevice,
	model.KindRack,
	model.KindPrefix,
	model.KindVLAN,
	model.KindVLANGroup,
	model.KindLocation,
	model.KindSite,
	model.KindDeviceRole,
	model.KindDeviceType,
	model.KindManufacturer,
	model.KindTenant,
	model.KindTenantGroup,
}

// Report holds the rows removed per kind by one clear pass
type Report struct {
	Deleted map[model.Kind]int64
}

// Total returns the number of rows removed across all kinds
func (r *Report) Total() int64 {
	var total int64
	for _, n := range r.Deleted {
		total += n
	}
	return total
}

func (r *Report) String() string {
	parts := make([]string, 0, len(ClearOrder))
	for _, kind := range ClearOrder {
		if n := r.Deleted[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
		}
	}
	if len(parts) == 0 {
		return "nothing"
	}
	return strings.Join(parts, " ")
}

// Clear removes every row stamped with marker in its own unit of work
func Clear(ctx context.Context, store storage.Store, marker string) (*Report, error) {
	var report *Report
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		report, err = ClearTx(ctx, tx, marker)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("Cleared generated records", "marker", marker, "total", report.Total())
	return report, nil
}

// ClearTx is Clear inside a caller-owned transaction
func ClearTx(ctx context.Context, tx storage.Tx, marker string) (*Report, error) {
	report := &Report{Deleted: make(map[model.Kind]int64, len(ClearOrder))}
	for _, kind := range ClearOrder {
		n, err := tx.DeleteMarked(ctx, kind, marker)
		if err != nil {
			return nil, fmt.Errorf("clearing %s: %w", kind, err)
		}
		report.Deleted[kind] = n
		if n > 0 {
			log.Debug("Deleted generated rows", "kind", kind, "count", n)
		}
	}
	return report, nil
}
