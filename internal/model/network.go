package model

import "time"

// VLANGroup scopes VLAN IDs
type VLANGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VLAN is a layer 2 segment inside a group
type VLAN struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	SiteID      string    `json:"site_id,omitempty"`
	VID         int       `json:"vid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Prefix is an address block in CIDR notation, e.g. "10.1.0.0/16"
type Prefix struct {
	ID          string    `json:"id"`
	Prefix      string    `json:"prefix"`
	SiteID      string    `json:"site_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IPAddress is a host address in CIDR form, e.g. "10.1.23.45/24"
type IPAddress struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	InterfaceID string    `json:"interface_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
