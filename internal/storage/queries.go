package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/martinsuchenak/rackseed/internal/model"
)

const deviceColumns = `id, name, device_type_id, role_id, site_id, location_id, rack_id, tenant_id,
	status, serial, asset_tag, primary_ip4_id, comments, marker, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row rowScanner, d *model.Device) error {
	var locationID, rackID, tenantID, primaryID sql.NullString
	if err := row.Scan(&d.ID, &d.Name, &d.DeviceTypeID, &d.RoleID, &d.SiteID, &locationID, &rackID, &tenantID,
		&d.Status, &d.Serial, &d.AssetTag, &primaryID, &d.Comments, &d.Marker, &d.CreatedAt); err != nil {
		return err
	}
	d.LocationID = fromNull(locationID)
	d.RackID = fromNull(rackID)
	d.TenantID = fromNull(tenantID)
	d.PrimaryIPv4ID = fromNull(primaryID)
	return nil
}

// Count returns the number of rows of kind, optionally restricted to a marker
func (ss *SQLiteStorage) Count(ctx context.Context, kind model.Kind, marker string) (int, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM ` + table
	var args []interface{}
	if marker != "" {
		query += ` WHERE marker = ?`
		args = append(args, marker)
	}

	var n int
	if err := ss.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

// ListDevices returns devices matching the filter, ordered by name
func (ss *SQLiteStorage) ListDevices(ctx context.Context, filter *model.DeviceFilter) ([]model.Device, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `SELECT ` + deviceColumns + ` FROM devices`
	var where []string
	var args []interface{}

	if filter != nil {
		if filter.Marker != "" {
			where = append(where, "marker = ?")
			args = append(args, filter.Marker)
		}
		if filter.LocationID != "" {
			where = append(where, "location_id = ?")
			args = append(args, filter.LocationID)
		}
		if filter.NamePrefix != "" {
			where = append(where, "name LIKE ? ESCAPE '\\'")
			args = append(args, escapeLike(filter.NamePrefix)+"%")
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY name"

	rows, err := ss.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []model.Device
	for rows.Next() {
		var d model.Device
		if err := scanDevice(rows, &d); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// GetDeviceByName returns a device by its unique name
func (ss *SQLiteStorage) GetDeviceByName(ctx context.Context, name string) (*model.Device, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	var d model.Device
	err := scanDevice(ss.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE name = ?`, name), &d)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return &d, nil
}

func (ss *SQLiteStorage) GetRack(ctx context.Context, id string) (*model.Rack, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	r := &model.Rack{ID: id}
	var locationID sql.NullString
	err := ss.db.QueryRowContext(ctx,
		`SELECT site_id, location_id, name, status, u_height, comments, marker, created_at FROM racks WHERE id = ?`, id,
	).Scan(&r.SiteID, &locationID, &r.Name, &r.Status, &r.UHeight, &r.Comments, &r.Marker, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying rack: %w", err)
	}
	r.LocationID = fromNull(locationID)
	return r, nil
}

func (ss *SQLiteStorage) GetLocation(ctx context.Context, id string) (*model.Location, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	l := &model.Location{ID: id}
	err := ss.db.QueryRowContext(ctx,
		`SELECT site_id, name, slug, description, marker, created_at FROM locations WHERE id = ?`, id,
	).Scan(&l.SiteID, &l.Name, &l.Slug, &l.Description, &l.Marker, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying location: %w", err)
	}
	return l, nil
}

// ListInterfaces returns a device's interfaces ordered by name
func (ss *SQLiteStorage) ListInterfaces(ctx context.Context, deviceID string) ([]model.Interface, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, device_id, name, type, mgmt_only, marker, created_at FROM interfaces WHERE device_id = ? ORDER BY name`,
		deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying interfaces: %w", err)
	}
	defer rows.Close()

	var ifaces []model.Interface
	for rows.Next() {
		var i model.Interface
		if err := rows.Scan(&i.ID, &i.DeviceID, &i.Name, &i.Type, &i.MgmtOnly, &i.Marker, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning interface: %w", err)
		}
		ifaces = append(ifaces, i)
	}
	return ifaces, rows.Err()
}

func (ss *SQLiteStorage) ListIPAddresses(ctx context.Context) ([]model.IPAddress, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	rows, err := ss.db.QueryContext(ctx,
		`SELECT id, address, interface_id, description, marker, created_at FROM ip_addresses ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("querying ip addresses: %w", err)
	}
	defer rows.Close()

	var addrs []model.IPAddress
	for rows.Next() {
		var ip model.IPAddress
		var ifaceID sql.NullString
		if err := rows.Scan(&ip.ID, &ip.Address, &ifaceID, &ip.Description, &ip.Marker, &ip.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ip address: %w", err)
		}
		ip.InterfaceID = fromNull(ifaceID)
		addrs = append(addrs, ip)
	}
	return addrs, rows.Err()
}

func (ss *SQLiteStorage) GetIPAddress(ctx context.Context, id string) (*model.IPAddress, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	ip := &model.IPAddress{ID: id}
	var ifaceID sql.NullString
	err := ss.db.QueryRowContext(ctx,
		`SELECT address, interface_id, description, marker, created_at FROM ip_addresses WHERE id = ?`, id,
	).Scan(&ip.Address, &ifaceID, &ip.Description, &ip.Marker, &ip.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying ip address: %w", err)
	}
	ip.InterfaceID = fromNull(ifaceID)
	return ip, nil
}

// ListDeviceDetails flattens devices with the names of what they reference.
// An empty marker lists every device.
func (ss *SQLiteStorage) ListDeviceDetails(ctx context.Context, marker string) ([]model.DeviceDetail, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	query := `
		SELECT d.name, d.status, dt.model, m.name, r.name, COALESCE(t.name, ''), s.name,
		       COALESCE(l.name, ''), COALESCE(rk.name, ''), d.serial, d.asset_tag, COALESCE(ip.address, '')
		FROM devices d
		JOIN device_types dt ON dt.id = d.device_type_id
		JOIN manufacturers m ON m.id = dt.manufacturer_id
		JOIN device_roles r ON r.id = d.role_id
		JOIN sites s ON s.id = d.site_id
		LEFT JOIN tenants t ON t.id = d.tenant_id
		LEFT JOIN locations l ON l.id = d.location_id
		LEFT JOIN racks rk ON rk.id = d.rack_id
		LEFT JOIN ip_addresses ip ON ip.id = d.primary_ip4_id`
	var args []interface{}
	if marker != "" {
		query += ` WHERE d.marker = ?`
		args = append(args, marker)
	}
	query += ` ORDER BY d.name`

	rows, err := ss.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying device details: %w", err)
	}
	defer rows.Close()

	var details []model.DeviceDetail
	for rows.Next() {
		var d model.DeviceDetail
		if err := rows.Scan(&d.Name, &d.Status, &d.DeviceType, &d.Manufacturer, &d.Role, &d.Tenant, &d.Site,
			&d.Location, &d.Rack, &d.Serial, &d.AssetTag, &d.PrimaryIPv4); err != nil {
			return nil, fmt.Errorf("scanning device detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
