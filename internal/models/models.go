package models

import (
	"encoding/json"
	"fmt"
)

// GeoCoordinate is a WGS84 position produced by a geocoding provider.
// Values are copied, never mutated after creation.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewGeoCoordinate builds a coordinate, rejecting values outside the
// geographic range (latitude [-90,90], longitude [-180,180]).
func NewGeoCoordinate(lat, lon float64) (GeoCoordinate, error) {
	c := GeoCoordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return GeoCoordinate{}, fmt.Errorf("coordinate out of range: lat=%f lon=%f", lat, lon)
	}
	return c, nil
}

// Valid reports whether the coordinate is inside the geographic range
func (c GeoCoordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// String renders the coordinate as "lat,lon"
func (c GeoCoordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Attempt describes one provider call made while resolving an address
type Attempt struct {
	Provider string `json:"provider"`
	Outcome  string `json:"outcome"`         // success, not_found, error, skipped
	Error    string `json:"error,omitempty"` // human readable cause
}

// CheckResponse is the JSON body returned by GET /v1/check
type CheckResponse struct {
	Address    string          `json:"address"`
	Inside     bool            `json:"inside"`
	Coordinate *GeoCoordinate  `json:"coordinate,omitempty"`
	Status     string          `json:"status"`
	Provider   string          `json:"provider,omitempty"`
	Message    string          `json:"message"`
	Stage      string          `json:"stage,omitempty"`
	Attempts   []Attempt       `json:"attempts,omitempty"`
	Boundary   json.RawMessage `json:"boundary,omitempty"` // GeoJSON geometry
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status           string `json:"status"`
	PrimaryAvailable bool   `json:"primary_available"`
	BoundaryParts    int    `json:"boundary_parts"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string    `json:"error"`
	Stage   string    `json:"stage,omitempty"` // geocoding or boundary
	Status  string    `json:"status,omitempty"`
	Details []Attempt `json:"details,omitempty"`
}
