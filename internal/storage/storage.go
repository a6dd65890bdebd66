package storage

import (
	"context"
	"errors"

	"github.com/martinsuchenak/rackseed/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrNaturalKeyConflict is returned by an Ensure method when the insert
	// collided with a unique column other than the natural key, so neither a
	// new row nor a natural-key match exists.
	ErrNaturalKeyConflict = errors.New("natural key conflict")
	ErrUnknownKind        = errors.New("unknown entity kind")
	ErrEmptyMarker        = errors.New("marker must not be empty")
)

// Tx is one unit of work against the inventory store.
//
// Every Ensure method is create-if-absent by the entity's natural key: when a
// row with the same natural key exists the argument is overwritten with the
// stored row and false is returned; otherwise the argument is inserted (with a
// generated ID) and true is returned. Existing rows are never modified.
type Tx interface {
	EnsureTenantGroup(ctx context.Context, g *model.TenantGroup) (bool, error)
	EnsureTenant(ctx context.Context, t *model.Tenant) (bool, error)
	EnsureManufacturer(ctx context.Context, m *model.Manufacturer) (bool, error)
	EnsureDeviceType(ctx context.Context, dt *model.DeviceType) (bool, error)
	EnsureDeviceRole(ctx context.Context, r *model.DeviceRole) (bool, error)
	EnsureSite(ctx context.Context, s *model.Site) (bool, error)
	EnsureLocation(ctx context.Context, l *model.Location) (bool, error)
	EnsureRack(ctx context.Context, r *model.Rack) (bool, error)
	EnsureVLANGroup(ctx context.Context, g *model.VLANGroup) (bool, error)
	EnsureVLAN(ctx context.Context, v *model.VLAN) (bool, error)
	EnsurePrefix(ctx context.Context, p *model.Prefix) (bool, error)
	EnsureDevice(ctx context.Context, d *model.Device) (bool, error)
	EnsureInterface(ctx context.Context, i *model.Interface) (bool, error)
	EnsureIPAddress(ctx context.Context, ip *model.IPAddress) (bool, error)

	// FindInterface returns ErrNotFound when the device has no such interface.
	FindInterface(ctx context.Context, deviceID, name string) (*model.Interface, error)
	SetPrimaryIPv4(ctx context.Context, deviceID, ipID string) error

	// DeleteMarked removes every row of kind whose marker equals marker.
	DeleteMarked(ctx context.Context, kind model.Kind, marker string) (int64, error)
}

// Store runs units of work. fn's Tx is committed when fn returns nil and
// rolled back otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(Tx) error) error
}

// Reader is the query side of the inventory store
type Reader interface {
	// Count returns the number of rows of kind; a non-empty marker restricts
	// the count to rows carrying it.
	Count(ctx context.Context, kind model.Kind, marker string) (int, error)
	ListDevices(ctx context.Context, filter *model.DeviceFilter) ([]model.Device, error)
	GetDeviceByName(ctx context.Context, name string) (*model.Device, error)
	GetRack(ctx context.Context, id string) (*model.Rack, error)
	GetLocation(ctx context.Context, id string) (*model.Location, error)
	ListInterfaces(ctx context.Context, deviceID string) ([]model.Interface, error)
	ListIPAddresses(ctx context.Context) ([]model.IPAddress, error)
	GetIPAddress(ctx context.Context, id string) (*model.IPAddress, error)
	ListDeviceDetails(ctx context.Context, marker string) ([]model.DeviceDetail, error)
}

// tables maps each entity kind to its table name
var tables = map[model.Kind]string{
	model.KindTenantGroup:  "tenant_groups",
	model.KindTenant:       "tenants",
	model.KindManufacturer: "manufacturers",
	model.KindDeviceType:   "device_types",
	model.KindDeviceRole:   "device_roles",
	model.KindSite:         "sites",
	model.KindLocation:     "locations",
	model.KindRack:         "racks",
	model.KindVLANGroup:    "vlan_groups",
	model.KindVLAN:         "vlans",
	model.KindPrefix:       "prefixes",
	model.KindDevice:       "devices",
	model.KindInterface:    "interfaces",
	model.KindIPAddress:    "ip_addresses",
}

func tableFor(kind model.Kind) (string, error) {
	table, ok := tables[kind]
	if !ok {
		return "", ErrUnknownKind
	}
	return table, nil
}
