package ipam

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/netip"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/martinsuchenak/rackseed/internal/iface"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

func setupStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// createDevices adds n devices, each with a MGMT interface unless noMgmt
func createDevices(t *testing.T, tx storage.Tx, n int, noMgmt bool) []*model.Device {
	t.Helper()
	ctx := context.Background()

	m := &model.Manufacturer{Name: "Cisco", Slug: "cisco"}
	if _, err := tx.EnsureManufacturer(ctx, m); err != nil {
		t.Fatal(err)
	}
	dt := &model.DeviceType{ManufacturerID: m.ID, Model: "EX", Slug: "ex", UHeight: 1}
	if _, err := tx.EnsureDeviceType(ctx, dt); err != nil {
		t.Fatal(err)
	}
	role := &model.DeviceRole{Name: "Firewall", Slug: "firewall"}
	if _, err := tx.EnsureDeviceRole(ctx, role); err != nil {
		t.Fatal(err)
	}
	site := &model.Site{Name: "HQ", Slug: "hq"}
	if _, err := tx.EnsureSite(ctx, site); err != nil {
		t.Fatal(err)
	}

	devices := make([]*model.Device, 0, n)
	for i := 0; i < n; i++ {
		d := &model.Device{
			Name: "NET-" + string(rune('A'+i)), DeviceTypeID: dt.ID, RoleID: role.ID,
			SiteID: site.ID, Status: model.DeviceStatusActive,
		}
		if _, err := tx.EnsureDevice(ctx, d); err != nil {
			t.Fatal(err)
		}
		if !noMgmt {
			mgmt := &model.Interface{DeviceID: d.ID, Name: iface.MgmtName, Type: iface.MgmtType, MgmtOnly: true}
			if _, err := tx.EnsureInterface(ctx, mgmt); err != nil {
				t.Fatal(err)
			}
		}
		devices = append(devices, d)
	}
	return devices
}

func targets(devices []*model.Device, location string) []Target {
	out := make([]Target, len(devices))
	for i, d := range devices {
		out[i] = Target{Device: d, Location: location}
	}
	return out
}

func TestDraw(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	addr, err := Draw(rng, "10.4")
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if !strings.HasPrefix(addr, "10.4.") || !strings.HasSuffix(addr, "/24") {
		t.Errorf("Unexpected address %s", addr)
	}

	tests := []string{"10.300", "10", "10.1.2", "fe80::1"}
	for _, block := range tests {
		if _, err := Draw(rng, block); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Block %q: expected ErrInvalidAddress, got %v", block, err)
		}
	}
}

func TestDraw_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 255).Draw(t, "a")
		b := rapid.IntRange(0, 255).Draw(t, "b")
		block := netip.AddrFrom4([4]byte{byte(a), byte(b), 0, 0}).String()
		block = strings.TrimSuffix(block, ".0.0")
		rng := rand.New(rand.NewPCG(rapid.Uint64().Draw(t, "seed"), 0))

		addr, err := Draw(rng, block)
		if err != nil {
			t.Fatalf("Draw(%s) error = %v", block, err)
		}
		pfx := netip.MustParsePrefix(addr)
		octets := pfx.Addr().As4()
		if int(octets[0]) != a || int(octets[1]) != b {
			t.Fatalf("%s outside block %s", addr, block)
		}
		if octets[2] < 1 || octets[2] > 254 || octets[3] < 1 || octets[3] > 254 {
			t.Fatalf("%s: host octets out of range", addr)
		}
		if pfx.Bits() != 24 {
			t.Fatalf("%s: expected /24", addr)
		}
	})
}

func TestAssign(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	var devices []*model.Device
	var assigned int
	err := store.WithTx(ctx, func(tx storage.Tx) error {
		devices = createDevices(t, tx, 5, false)
		var err error
		assigned, err = Assign(ctx, tx, rand.New(rand.NewPCG(3, 3)), targets(devices, "b1-general"), Options{
			Block:  func(string) string { return "10.1" },
			Marker: "m",
		})
		return err
	})
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}
	if assigned != 5 {
		t.Errorf("Expected 5 assignments, got %d", assigned)
	}

	for _, d := range devices {
		stored, err := store.GetDeviceByName(ctx, d.Name)
		if err != nil {
			t.Fatal(err)
		}
		ip, err := store.GetIPAddress(ctx, stored.PrimaryIPv4ID)
		if err != nil {
			t.Fatalf("%s: primary address: %v", d.Name, err)
		}
		ifaces, _ := store.ListInterfaces(ctx, d.ID)
		if len(ifaces) != 1 || ip.InterfaceID != ifaces[0].ID {
			t.Errorf("%s: address not bound to MGMT", d.Name)
		}
		if !strings.HasPrefix(ip.Address, "10.1.") {
			t.Errorf("%s: address %s outside block", d.Name, ip.Address)
		}
		if ip.Description != d.Name+" management IP" {
			t.Errorf("Unexpected description %q", ip.Description)
		}
	}
}

func TestAssign_Skips(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		noMgmt := createDevices(t, tx, 2, true)
		n, err := Assign(ctx, tx, rand.New(rand.NewPCG(1, 1)), targets(noMgmt, "b1-general"), Options{})
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("Expected devices without MGMT to be skipped, got %d", n)
		}

		n, err = Assign(ctx, tx, rand.New(rand.NewPCG(1, 1)), targets(noMgmt, ""), Options{})
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("Expected devices without location to be skipped, got %d", n)
		}

		noMgmt[0].PrimaryIPv4ID = "already"
		n, err = Assign(ctx, tx, rand.New(rand.NewPCG(1, 1)), targets(noMgmt[:1], "b1-general"), Options{})
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("Expected device with primary address to be skipped, got %d", n)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}

func TestAssign_RetriesOnCollision(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		devices := createDevices(t, tx, 2, false)

		// Pre-draw what the first attempt will produce and hand it to another
		// device, so the allocator must draw again
		taken, _ := Draw(rand.New(rand.NewPCG(9, 9)), "10.2")
		foreign := &model.IPAddress{Address: taken}
		if _, err := tx.EnsureIPAddress(ctx, foreign); err != nil {
			return err
		}

		n, err := Assign(ctx, tx, rand.New(rand.NewPCG(9, 9)), targets(devices[:1], "x"), Options{
			Block: func(string) string { return "10.2" },
		})
		if err != nil {
			return err
		}
		if n != 1 {
			t.Errorf("Expected 1 assignment, got %d", n)
		}
		if devices[0].PrimaryIPv4ID == foreign.ID {
			t.Error("Expected a fresh address, got the foreign one")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}

func TestAssign_AdoptsOwnAddress(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		devices := createDevices(t, tx, 1, false)
		mgmt, err := tx.FindInterface(ctx, devices[0].ID, iface.MgmtName)
		if err != nil {
			return err
		}

		own, _ := Draw(rand.New(rand.NewPCG(5, 5)), "10.3")
		existing := &model.IPAddress{Address: own, InterfaceID: mgmt.ID}
		if _, err := tx.EnsureIPAddress(ctx, existing); err != nil {
			return err
		}

		n, err := Assign(ctx, tx, rand.New(rand.NewPCG(5, 5)), targets(devices, "x"), Options{
			Block: func(string) string { return "10.3" },
		})
		if err != nil {
			return err
		}
		if n != 1 || devices[0].PrimaryIPv4ID != existing.ID {
			t.Errorf("Expected the bound address to be adopted, got n=%d primary=%s", n, devices[0].PrimaryIPv4ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}

func TestAssign_Exhausted(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		devices := createDevices(t, tx, 1, false)

		// Occupy the only address a single retry can draw
		taken, _ := Draw(rand.New(rand.NewPCG(11, 11)), "10.5")
		if _, err := tx.EnsureIPAddress(ctx, &model.IPAddress{Address: taken}); err != nil {
			return err
		}

		_, err := Assign(ctx, tx, rand.New(rand.NewPCG(11, 11)), targets(devices, "x"), Options{
			Block:   func(string) string { return "10.5" },
			Retries: 1,
		})
		if !errors.Is(err, ErrAddressSpaceExhausted) {
			t.Errorf("Expected ErrAddressSpaceExhausted, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}

func TestAssign_InvalidBlock(t *testing.T) {
	store := setupStorage(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		devices := createDevices(t, tx, 1, false)
		_, err := Assign(ctx, tx, rand.New(rand.NewPCG(1, 1)), targets(devices, "x"), Options{
			Block: func(string) string { return "999.1" },
		})
		if !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Expected ErrInvalidAddress, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
}
