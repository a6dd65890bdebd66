package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/martinsuchenak/rackseed/internal/model"
)

// ensure inserts a row unless one with the same natural key exists, then
// loads the stored row through scan. Reports whether the insert happened.
func (t *sqliteTx) ensure(ctx context.Context, what, insertSQL string, insertArgs []interface{}, lookupSQL string, lookupArgs []interface{}, scan func(*sql.Row) error) (bool, error) {
	res, err := t.tx.ExecContext(ctx, insertSQL, insertArgs...)
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting %s: %w", what, err)
	}
	if n == 1 {
		return true, nil
	}

	if err := scan(t.tx.QueryRowContext(ctx, lookupSQL, lookupArgs...)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", what, ErrNaturalKeyConflict)
		}
		return false, fmt.Errorf("loading %s: %w", what, err)
	}
	return false, nil
}

func (t *sqliteTx) EnsureTenantGroup(ctx context.Context, g *model.TenantGroup) (bool, error) {
	prepare(&g.ID, &g.CreatedAt)
	return t.ensure(ctx, "tenant group",
		`INSERT INTO tenant_groups (id, name, slug, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{g.ID, g.Name, g.Slug, g.Description, g.Marker, g.CreatedAt},
		`SELECT id, description, marker, created_at FROM tenant_groups WHERE name = ? AND slug = ?`,
		[]interface{}{g.Name, g.Slug},
		func(row *sql.Row) error {
			return row.Scan(&g.ID, &g.Description, &g.Marker, &g.CreatedAt)
		})
}

func (t *sqliteTx) EnsureTenant(ctx context.Context, tn *model.Tenant) (bool, error) {
	prepare(&tn.ID, &tn.CreatedAt)
	return t.ensure(ctx, "tenant",
		`INSERT INTO tenants (id, name, slug, group_id, description, comments, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{tn.ID, tn.Name, tn.Slug, nullString(tn.GroupID), tn.Description, tn.Comments, tn.Marker, tn.CreatedAt},
		`SELECT id, group_id, description, comments, marker, created_at FROM tenants WHERE name = ? AND slug = ?`,
		[]interface{}{tn.Name, tn.Slug},
		func(row *sql.Row) error {
			var groupID sql.NullString
			if err := row.Scan(&tn.ID, &groupID, &tn.Description, &tn.Comments, &tn.Marker, &tn.CreatedAt); err != nil {
				return err
			}
			tn.GroupID = fromNull(groupID)
			return nil
		})
}

func (t *sqliteTx) EnsureManufacturer(ctx context.Context, m *model.Manufacturer) (bool, error) {
	prepare(&m.ID, &m.CreatedAt)
	return t.ensure(ctx, "manufacturer",
		`INSERT INTO manufacturers (id, name, slug, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{m.ID, m.Name, m.Slug, m.Description, m.Marker, m.CreatedAt},
		`SELECT id, description, marker, created_at FROM manufacturers WHERE name = ? AND slug = ?`,
		[]interface{}{m.Name, m.Slug},
		func(row *sql.Row) error {
			return row.Scan(&m.ID, &m.Description, &m.Marker, &m.CreatedAt)
		})
}

func (t *sqliteTx) EnsureDeviceType(ctx context.Context, dt *model.DeviceType) (bool, error) {
	prepare(&dt.ID, &dt.CreatedAt)
	return t.ensure(ctx, "device type",
		`INSERT INTO device_types (id, manufacturer_id, model, slug, u_height, is_full_depth, comments, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{dt.ID, dt.ManufacturerID, dt.Model, dt.Slug, dt.UHeight, dt.IsFullDepth, dt.Comments, dt.Marker, dt.CreatedAt},
		`SELECT id, model, u_height, is_full_depth, comments, marker, created_at
		 FROM device_types WHERE manufacturer_id = ? AND slug = ?`,
		[]interface{}{dt.ManufacturerID, dt.Slug},
		func(row *sql.Row) error {
			return row.Scan(&dt.ID, &dt.Model, &dt.UHeight, &dt.IsFullDepth, &dt.Comments, &dt.Marker, &dt.CreatedAt)
		})
}

func (t *sqliteTx) EnsureDeviceRole(ctx context.Context, r *model.DeviceRole) (bool, error) {
	prepare(&r.ID, &r.CreatedAt)
	return t.ensure(ctx, "device role",
		`INSERT INTO device_roles (id, name, slug, color, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{r.ID, r.Name, r.Slug, r.Color, r.Description, r.Marker, r.CreatedAt},
		`SELECT id, color, description, marker, created_at FROM device_roles WHERE name = ? AND slug = ?`,
		[]interface{}{r.Name, r.Slug},
		func(row *sql.Row) error {
			return row.Scan(&r.ID, &r.Color, &r.Description, &r.Marker, &r.CreatedAt)
		})
}

func (t *sqliteTx) EnsureSite(ctx context.Context, s *model.Site) (bool, error) {
	prepare(&s.ID, &s.CreatedAt)
	return t.ensure(ctx, "site",
		`INSERT INTO sites (id, name, slug, status, facility, physical_address, shipping_address,
		                    latitude, longitude, comments, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{s.ID, s.Name, s.Slug, s.Status, s.Facility, s.PhysicalAddress, s.ShippingAddress,
			s.Latitude, s.Longitude, s.Comments, s.Marker, s.CreatedAt},
		`SELECT id, name, status, facility, physical_address, shipping_address,
		        COALESCE(latitude, 0), COALESCE(longitude, 0), comments, marker, created_at
		 FROM sites WHERE slug = ?`,
		[]interface{}{s.Slug},
		func(row *sql.Row) error {
			return row.Scan(&s.ID, &s.Name, &s.Status, &s.Facility, &s.PhysicalAddress, &s.ShippingAddress,
				&s.Latitude, &s.Longitude, &s.Comments, &s.Marker, &s.CreatedAt)
		})
}

func (t *sqliteTx) EnsureLocation(ctx context.Context, l *model.Location) (bool, error) {
	prepare(&l.ID, &l.CreatedAt)
	return t.ensure(ctx, "location",
		`INSERT INTO locations (id, site_id, name, slug, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{l.ID, l.SiteID, l.Name, l.Slug, l.Description, l.Marker, l.CreatedAt},
		`SELECT id, name, description, marker, created_at FROM locations WHERE site_id = ? AND slug = ?`,
		[]interface{}{l.SiteID, l.Slug},
		func(row *sql.Row) error {
			return row.Scan(&l.ID, &l.Name, &l.Description, &l.Marker, &l.CreatedAt)
		})
}

func (t *sqliteTx) EnsureRack(ctx context.Context, r *model.Rack) (bool, error) {
	prepare(&r.ID, &r.CreatedAt)
	return t.ensure(ctx, "rack",
		`INSERT INTO racks (id, site_id, location_id, name, status, u_height, comments, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{r.ID, r.SiteID, nullString(r.LocationID), r.Name, r.Status, r.UHeight, r.Comments, r.Marker, r.CreatedAt},
		`SELECT id, location_id, status, u_height, comments, marker, created_at FROM racks WHERE site_id = ? AND name = ?`,
		[]interface{}{r.SiteID, r.Name},
		func(row *sql.Row) error {
			var locationID sql.NullString
			if err := row.Scan(&r.ID, &locationID, &r.Status, &r.UHeight, &r.Comments, &r.Marker, &r.CreatedAt); err != nil {
				return err
			}
			r.LocationID = fromNull(locationID)
			return nil
		})
}

func (t *sqliteTx) EnsureVLANGroup(ctx context.Context, g *model.VLANGroup) (bool, error) {
	prepare(&g.ID, &g.CreatedAt)
	return t.ensure(ctx, "vlan group",
		`INSERT INTO vlan_groups (id, name, slug, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{g.ID, g.Name, g.Slug, g.Description, g.Marker, g.CreatedAt},
		`SELECT id, description, marker, created_at FROM vlan_groups WHERE name = ? AND slug = ?`,
		[]interface{}{g.Name, g.Slug},
		func(row *sql.Row) error {
			return row.Scan(&g.ID, &g.Description, &g.Marker, &g.CreatedAt)
		})
}

func (t *sqliteTx) EnsureVLAN(ctx context.Context, v *model.VLAN) (bool, error) {
	prepare(&v.ID, &v.CreatedAt)
	return t.ensure(ctx, "vlan",
		`INSERT INTO vlans (id, group_id, site_id, vid, name, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{v.ID, v.GroupID, nullString(v.SiteID), v.VID, v.Name, v.Description, v.Marker, v.CreatedAt},
		`SELECT id, site_id, description, marker, created_at FROM vlans WHERE vid = ? AND name = ? AND group_id = ?`,
		[]interface{}{v.VID, v.Name, v.GroupID},
		func(row *sql.Row) error {
			var siteID sql.NullString
			if err := row.Scan(&v.ID, &siteID, &v.Description, &v.Marker, &v.CreatedAt); err != nil {
				return err
			}
			v.SiteID = fromNull(siteID)
			return nil
		})
}

func (t *sqliteTx) EnsurePrefix(ctx context.Context, p *model.Prefix) (bool, error) {
	prepare(&p.ID, &p.CreatedAt)
	return t.ensure(ctx, "prefix",
		`INSERT INTO prefixes (id, prefix, site_id, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{p.ID, p.Prefix, nullString(p.SiteID), p.Description, p.Marker, p.CreatedAt},
		`SELECT id, site_id, description, marker, created_at FROM prefixes WHERE prefix = ?`,
		[]interface{}{p.Prefix},
		func(row *sql.Row) error {
			var siteID sql.NullString
			if err := row.Scan(&p.ID, &siteID, &p.Description, &p.Marker, &p.CreatedAt); err != nil {
				return err
			}
			p.SiteID = fromNull(siteID)
			return nil
		})
}

func (t *sqliteTx) EnsureDevice(ctx context.Context, d *model.Device) (bool, error) {
	prepare(&d.ID, &d.CreatedAt)
	return t.ensure(ctx, "device",
		`INSERT INTO devices (id, name, device_type_id, role_id, site_id, location_id, rack_id, tenant_id,
		                      status, serial, asset_tag, primary_ip4_id, comments, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{d.ID, d.Name, d.DeviceTypeID, d.RoleID, d.SiteID, nullString(d.LocationID), nullString(d.RackID),
			nullString(d.TenantID), d.Status, d.Serial, d.AssetTag, nullString(d.PrimaryIPv4ID), d.Comments, d.Marker, d.CreatedAt},
		`SELECT `+deviceColumns+` FROM devices WHERE name = ?`,
		[]interface{}{d.Name},
		func(row *sql.Row) error {
			return scanDevice(row, d)
		})
}

func (t *sqliteTx) EnsureInterface(ctx context.Context, i *model.Interface) (bool, error) {
	prepare(&i.ID, &i.CreatedAt)
	return t.ensure(ctx, "interface",
		`INSERT INTO interfaces (id, device_id, name, type, mgmt_only, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{i.ID, i.DeviceID, i.Name, i.Type, i.MgmtOnly, i.Marker, i.CreatedAt},
		`SELECT id, type, mgmt_only, marker, created_at FROM interfaces WHERE device_id = ? AND name = ?`,
		[]interface{}{i.DeviceID, i.Name},
		func(row *sql.Row) error {
			return row.Scan(&i.ID, &i.Type, &i.MgmtOnly, &i.Marker, &i.CreatedAt)
		})
}

func (t *sqliteTx) EnsureIPAddress(ctx context.Context, ip *model.IPAddress) (bool, error) {
	prepare(&ip.ID, &ip.CreatedAt)
	return t.ensure(ctx, "ip address",
		`INSERT INTO ip_addresses (id, address, interface_id, description, marker, created_at)
		 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		[]interface{}{ip.ID, ip.Address, nullString(ip.InterfaceID), ip.Description, ip.Marker, ip.CreatedAt},
		`SELECT id, interface_id, description, marker, created_at FROM ip_addresses WHERE address = ?`,
		[]interface{}{ip.Address},
		func(row *sql.Row) error {
			var ifaceID sql.NullString
			if err := row.Scan(&ip.ID, &ifaceID, &ip.Description, &ip.Marker, &ip.CreatedAt); err != nil {
				return err
			}
			ip.InterfaceID = fromNull(ifaceID)
			return nil
		})
}

func (t *sqliteTx) FindInterface(ctx context.Context, deviceID, name string) (*model.Interface, error) {
	i := &model.Interface{DeviceID: deviceID, Name: name}
	err := t.tx.QueryRowContext(ctx,
		`SELECT id, type, mgmt_only, marker, created_at FROM interfaces WHERE device_id = ? AND name = ?`,
		deviceID, name,
	).Scan(&i.ID, &i.Type, &i.MgmtOnly, &i.Marker, &i.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying interface: %w", err)
	}
	return i, nil
}

func (t *sqliteTx) SetPrimaryIPv4(ctx context.Context, deviceID, ipID string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE devices SET primary_ip4_id = ? WHERE id = ?`, nullString(ipID), deviceID)
	if err != nil {
		return fmt.Errorf("updating primary address: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating primary address: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *sqliteTx) DeleteMarked(ctx context.Context, kind model.Kind, marker string) (int64, error) {
	if marker == "" {
		return 0, ErrEmptyMarker
	}
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	res, err := t.tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE marker = ?`, marker)
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting %s: %w", table, err)
	}
	return n, nil
}
