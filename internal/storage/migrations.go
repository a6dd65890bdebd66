package storage

import (
	"database/sql"
	"fmt"

	"github.com/martinsuchenak/rackseed/internal/log"
)

// migration is one forward-only schema step
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "inventory tables",
		stmts: []string{
			`CREATE TABLE tenant_groups (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (name, slug)
			)`,
			`CREATE TABLE tenants (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				group_id TEXT REFERENCES tenant_groups(id),
				description TEXT NOT NULL DEFAULT '',
				comments TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (name, slug)
			)`,
			`CREATE TABLE manufacturers (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (name, slug)
			)`,
			`CREATE TABLE device_types (
				id TEXT PRIMARY KEY,
				manufacturer_id TEXT NOT NULL REFERENCES manufacturers(id),
				model TEXT NOT NULL,
				slug TEXT NOT NULL,
				u_height INTEGER NOT NULL DEFAULT 1,
				is_full_depth INTEGER NOT NULL DEFAULT 1,
				comments TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (manufacturer_id, slug)
			)`,
			`CREATE TABLE device_roles (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				color TEXT NOT NULL DEFAULT '9e9e9e',
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (name, slug)
			)`,
			`CREATE TABLE sites (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				status TEXT NOT NULL DEFAULT 'active',
				facility TEXT NOT NULL DEFAULT '',
				physical_address TEXT NOT NULL DEFAULT '',
				shipping_address TEXT NOT NULL DEFAULT '',
				latitude REAL,
				longitude REAL,
				comments TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE locations (
				id TEXT PRIMARY KEY,
				site_id TEXT NOT NULL REFERENCES sites(id),
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (site_id, slug)
			)`,
			`CREATE TABLE racks (
				id TEXT PRIMARY KEY,
				site_id TEXT NOT NULL REFERENCES sites(id),
				location_id TEXT REFERENCES locations(id),
				name TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'active',
				u_height INTEGER NOT NULL DEFAULT 42,
				comments TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (site_id, name)
			)`,
			`CREATE TABLE vlan_groups (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (name, slug)
			)`,
			`CREATE TABLE vlans (
				id TEXT PRIMARY KEY,
				group_id TEXT NOT NULL REFERENCES vlan_groups(id),
				site_id TEXT REFERENCES sites(id),
				vid INTEGER NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (vid, name, group_id)
			)`,
			`CREATE TABLE prefixes (
				id TEXT PRIMARY KEY,
				prefix TEXT NOT NULL UNIQUE,
				site_id TEXT REFERENCES sites(id),
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE devices (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				device_type_id TEXT NOT NULL REFERENCES device_types(id),
				role_id TEXT NOT NULL REFERENCES device_roles(id),
				site_id TEXT NOT NULL REFERENCES sites(id),
				location_id TEXT REFERENCES locations(id),
				rack_id TEXT REFERENCES racks(id),
				tenant_id TEXT REFERENCES tenants(id),
				status TEXT NOT NULL DEFAULT 'active',
				serial TEXT NOT NULL DEFAULT '',
				asset_tag TEXT NOT NULL DEFAULT '',
				primary_ip4_id TEXT REFERENCES ip_addresses(id) ON DELETE SET NULL,
				comments TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE interfaces (
				id TEXT PRIMARY KEY,
				device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				type TEXT NOT NULL,
				mgmt_only INTEGER NOT NULL DEFAULT 0,
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				UNIQUE (device_id, name)
			)`,
			`CREATE TABLE ip_addresses (
				id TEXT PRIMARY KEY,
				address TEXT NOT NULL UNIQUE,
				interface_id TEXT REFERENCES interfaces(id) ON DELETE SET NULL,
				description TEXT NOT NULL DEFAULT '',
				marker TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX idx_tenant_groups_marker ON tenant_groups(marker)`,
			`CREATE INDEX idx_tenants_marker ON tenants(marker)`,
			`CREATE INDEX idx_manufacturers_marker ON manufacturers(marker)`,
			`CREATE INDEX idx_device_types_marker ON device_types(marker)`,
			`CREATE INDEX idx_device_roles_marker ON device_roles(marker)`,
			`CREATE INDEX idx_sites_marker ON sites(marker)`,
			`CREATE INDEX idx_locations_marker ON locations(marker)`,
			`CREATE INDEX idx_racks_marker ON racks(marker)`,
			`CREATE INDEX idx_vlan_groups_marker ON vlan_groups(marker)`,
			`CREATE INDEX idx_vlans_marker ON vlans(marker)`,
			`CREATE INDEX idx_prefixes_marker ON prefixes(marker)`,
			`CREATE INDEX idx_devices_marker ON devices(marker)`,
			`CREATE INDEX idx_devices_location ON devices(location_id)`,
			`CREATE INDEX idx_interfaces_marker ON interfaces(marker)`,
			`CREATE INDEX idx_ip_addresses_marker ON ip_addresses(marker)`,
			`CREATE INDEX idx_ip_addresses_interface ON ip_addresses(interface_id)`,
		},
	},
}

// migrate applies every migration newer than the recorded schema version
func (ss *SQLiteStorage) migrate() error {
	_, err := ss.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var current sql.NullInt64
	if err := ss.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("checking migration version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && int64(m.version) <= current.Int64 {
			continue
		}
		if err := ss.applyMigration(m); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", m.version, m.name, err)
		}
		log.Info("Schema migrated", "version", m.version, "name", m.name)
	}

	return nil
}

func (ss *SQLiteStorage) applyMigration(m migration) error {
	tx, err := ss.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("setting migration version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version
func (ss *SQLiteStorage) SchemaVersion() (int, error) {
	var version sql.NullInt64
	if err := ss.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("checking migration version: %w", err)
	}
	return int(version.Int64), nil
}
