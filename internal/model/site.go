package model

import "time"

// Site is the root of the location and rack hierarchy
type Site struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Status          string    `json:"status"`
	Facility        string    `json:"facility,omitempty"`
	PhysicalAddress string    `json:"physical_address,omitempty"`
	ShippingAddress string    `json:"shipping_address,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Comments        string    `json:"comments,omitempty"`
	Marker          string    `json:"marker,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Location is a room or zone inside a site
type Location struct {
	ID          string    `json:"id"`
	SiteID      string    `json:"site_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Marker      string    `json:"marker,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Rack holds devices inside a location
type Rack struct {
	ID         string    `json:"id"`
	SiteID     string    `json:"site_id"`
	LocationID string    `json:"location_id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	UHeight    int       `json:"u_height"`
	Comments   string    `json:"comments,omitempty"`
	Marker     string    `json:"marker,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	SiteStatusActive = "active"
	RackStatusActive = "active"
)
