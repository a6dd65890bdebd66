package iface

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

const (
	// MgmtName is the management interface name on every device
	MgmtName = "MGMT"
	MgmtType = "1000base-t"

	MinData = 2
	MaxData = 4
)

// DataMedia are the media a data interface is drawn from
var DataMedia = []string{"1000base-t", "10gbase-t", "25gbase-x-sfp28"}

// DataName names the n-th data interface
func DataName(n int) string {
	return fmt.Sprintf("eth%d", n)
}

// Synthesize gives a device its MGMT interface and MinData to MaxData data
// interfaces. Returns the number of interfaces created.
func Synthesize(ctx context.Context, tx storage.Tx, rng *rand.Rand, device *model.Device, marker string) (int, error) {
	created := 0

	mgmt := &model.Interface{
		DeviceID: device.ID,
		Name:     MgmtName,
		Type:     MgmtType,
		MgmtOnly: true,
		Marker:   marker,
	}
	ok, err := tx.EnsureInterface(ctx, mgmt)
	if err != nil {
		return created, fmt.Errorf("interface %s/%s: %w", device.Name, MgmtName, err)
	}
	if ok {
		created++
	}

	n := MinData + rng.IntN(MaxData-MinData+1)
	for i := 0; i < n; i++ {
		data := &model.Interface{
			DeviceID: device.ID,
			Name:     DataName(i),
			Type:     DataMedia[rng.IntN(len(DataMedia))],
			Marker:   marker,
		}
		ok, err := tx.EnsureInterface(ctx, data)
		if err != nil {
			return created, fmt.Errorf("interface %s/%s: %w", device.Name, data.Name, err)
		}
		if ok {
			created++
		}
	}

	return created, nil
}
