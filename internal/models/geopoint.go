package models

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographical point defined by its latitude and longitude in degrees.
// The Earth is treated as a sphere; the WGS-84 ellipsoid is not modelled.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`  // Latitude of the geographical point.
	Longitude float64 `json:"longitude"` // Longitude of the geographical point.
}

// Valid reports whether the point has finite coordinates inside the geographic ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) ||
		math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}

	return math.Abs(p.Latitude) <= 90 && math.Abs(p.Longitude) <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Latitude, p.Longitude)
}

// ReferencePoint is one member of the configured set whose centroid becomes the anchor.
// Point is nil while the address has not been geocoded yet.
type ReferencePoint struct {
	ID      int       // ID is the unique identifier of the stored point.
	Address string    // Address is resolved through a geocoding provider when Point is nil.
	Point   *GeoPoint // Point holds the coordinates once known.
}
