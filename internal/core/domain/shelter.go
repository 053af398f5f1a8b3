package domain

import "time"

type ShelterLocation struct {
	ID        string
	OwnerID   string
	Name      string
	Address   string
	Latitude  *float64 // nil until the address is resolved
	Longitude *float64
	CreatedAt time.Time
}

// Coordinates is a resolved geocoding result.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}
