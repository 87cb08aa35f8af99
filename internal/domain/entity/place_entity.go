package entity

import (
	"time"
)

// Coordinates is a geocoded lat/lng pair. It is derived from the address at
// creation time and never updated afterwards.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is a shared location record owned by exactly one user (Creator).
type Place struct {
	ID          string
	Title       string
	Description string
	Address     string
	Location    Coordinates
	ImageURL    string
	Creator     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
