package ipam

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/netip"

	"github.com/martinsuchenak/rackseed/internal/iface"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

var (
	ErrInvalidAddress = errors.New("invalid address")
	// ErrAddressSpaceExhausted is returned when every draw for a device hit an
	// address owned by something else
	ErrAddressSpaceExhausted = errors.New("address space exhausted")
)

const (
	// DefaultRetries bounds the draws per device
	DefaultRetries = 8
	DefaultBlock   = "10.0"
)

// Target is a device waiting for a management address. An empty Location
// means the device is not placed in a room and gets no address.
type Target struct {
	Device   *model.Device
	Location string
}

// Options for Assign
type Options struct {
	// Block maps a location slug to the first two octets of its block
	Block   func(location string) string
	Retries int
	Marker  string
}

// Draw returns a random host address {block}.{1-254}.{1-254}/24
func Draw(rng *rand.Rand, block string) (string, error) {
	addr := fmt.Sprintf("%s.%d.%d/24", block, 1+rng.IntN(254), 1+rng.IntN(254))
	pfx, err := netip.ParsePrefix(addr)
	if err != nil || !pfx.Addr().Is4() {
		return "", fmt.Errorf("%s: %w", addr, ErrInvalidAddress)
	}
	return addr, nil
}

// Assign gives each target without a primary address one on its MGMT
// interface and makes it the device's primary address. A drawn address that
// already exists is adopted only when it is bound to the same MGMT interface;
// otherwise another is drawn. Returns the number of devices that got a
// primary address.
func Assign(ctx context.Context, tx storage.Tx, rng *rand.Rand, targets []Target, opts Options) (int, error) {
	retries := opts.Retries
	if retries < 1 {
		retries = DefaultRetries
	}
	blockFor := opts.Block
	if blockFor == nil {
		blockFor = func(string) string { return DefaultBlock }
	}

	assigned := 0
	for _, t := range targets {
		if t.Location == "" || t.Device.PrimaryIPv4ID != "" {
			continue
		}

		mgmt, err := tx.FindInterface(ctx, t.Device.ID, iface.MgmtName)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return assigned, fmt.Errorf("device %s: %w", t.Device.Name, err)
		}

		ip, err := allocate(ctx, tx, rng, t, mgmt, blockFor(t.Location), retries, opts.Marker)
		if err != nil {
			return assigned, fmt.Errorf("device %s: %w", t.Device.Name, err)
		}

		if err := tx.SetPrimaryIPv4(ctx, t.Device.ID, ip.ID); err != nil {
			return assigned, fmt.Errorf("device %s: %w", t.Device.Name, err)
		}
		t.Device.PrimaryIPv4ID = ip.ID
		assigned++
	}
	return assigned, nil
}

func allocate(ctx context.Context, tx storage.Tx, rng *rand.Rand, t Target, mgmt *model.Interface, block string, retries int, marker string) (*model.IPAddress, error) {
	for attempt := 1; attempt <= retries; attempt++ {
		addr, err := Draw(rng, block)
		if err != nil {
			return nil, err
		}

		ip := &model.IPAddress{
			Address:     addr,
			InterfaceID: mgmt.ID,
			Description: fmt.Sprintf("%s management IP", t.Device.Name),
			Marker:      marker,
		}
		created, err := tx.EnsureIPAddress(ctx, ip)
		if err != nil {
			return nil, err
		}
		if created || ip.InterfaceID == mgmt.ID {
			return ip, nil
		}
		log.Debug("Address taken, drawing again", "device", t.Device.Name, "address", addr, "attempt", attempt)
	}
	return nil, fmt.Errorf("%d draws in %s.0.0/16: %w", retries, block, ErrAddressSpaceExhausted)
}
