package model

import "time"

// TenantGroup groups tenants, e.g. a division
type TenantGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Tenant is a department that owns devices
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	GroupID     string    `json:"group_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Comments    string    `json:"comments,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Manufacturer represents a hardware vendor
type Manufacturer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeviceType is a catalog entry instantiated by devices
type DeviceType struct {
	ID             string    `json:"id"`
	ManufacturerID string    `json:"manufacturer_id"`
	Model          string    `json:"model"`
	Slug           string    `json:"slug"`
	UHeight        int       `json:"u_height"`
	IsFullDepth    bool      `json:"is_full_depth"`
	Comments       string    `json:"comments,omitempty"`
	Marker         string    `json:"marker,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// DeviceRole classifies devices
type DeviceRole struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Color       string    `json:"color"` // hex RGB without '#'
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
