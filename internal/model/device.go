package model

import (
	"time"
)

const (
	DeviceStatusActive    = "active"
	DeviceStatusStaged    = "staged"
	DeviceStatusPlanned   = "planned"
	DeviceStatusInventory = "inventory"
	DeviceStatusOffline   = "offline"
)

// Device represents a racked piece of equipment
type Device struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	DeviceTypeID  string    `json:"device_type_id"`
	RoleID        string    `json:"role_id"`
	SiteID        string    `json:"site_id"`
	LocationID    string    `json:"location_id,omitempty"`
	RackID        string    `json:"rack_id,omitempty"`
	TenantID      string    `json:"tenant_id,omitempty"` // empty for unowned equipment
	Status        string    `json:"status"`
	Serial        string    `json:"serial,omitempty"`
	AssetTag      string    `json:"asset_tag,omitempty"`
	PrimaryIPv4ID string    `json:"primary_ip4_id,omitempty"`
	Comments      string    `json:"comments,omitempty"`
	Marker        string    `json:"marker,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Interface is a network port on a device
type Interface struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // media, e.g. "1000base-t"
	MgmtOnly  bool      `json:"mgmt_only"`
	Marker    string    `json:"marker,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceFilter holds filter criteria for listing devices
type DeviceFilter struct {
	Marker     string // Exact marker match
	LocationID string
	NamePrefix string // e.g. "UNC-"
}

// DeviceDetail is a device flattened with the names of everything it
// references, as used by reports
type DeviceDetail struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	DeviceType   string `json:"device_type"`
	Manufacturer string `json:"manufacturer"`
	Role         string `json:"role"`
	Tenant       string `json:"tenant,omitempty"`
	Site         string `json:"site"`
	Location     string `json:"location,omitempty"`
	Rack         string `json:"rack,omitempty"`
	Serial       string `json:"serial,omitempty"`
	AssetTag     string `json:"asset_tag,omitempty"`
	PrimaryIPv4  string `json:"primary_ip4,omitempty"`
}
