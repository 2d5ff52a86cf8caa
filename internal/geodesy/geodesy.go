// Package geodesy holds spherical-Earth helpers over models.GeoPoint.
package geodesy

import (
	"errors"
	"fmt"
	"math"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var (
	// ErrEmptyPointSet is returned when a centroid is requested for no points.
	ErrEmptyPointSet = errors.New("centroid of an empty point set is undefined")
	// ErrInvalidPoint is returned for points with non-finite or out-of-range coordinates.
	ErrInvalidPoint = errors.New("invalid geographic point")
)

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// Centroid returns the spherical centroid of points. Each point is mapped to a
// unit-sphere vector, the vectors are averaged and the mean is mapped back to
// latitude and longitude. Nearly antipodal inputs give an ill-defined result.
func Centroid(points []models.GeoPoint) (models.GeoPoint, error) {
	if len(points) == 0 {
		return models.GeoPoint{}, ErrEmptyPointSet
	}

	var x, y, z float64
	for idx, point := range points {
		if !point.Valid() {
			return models.GeoPoint{}, fmt.Errorf("%w: index %d %s", ErrInvalidPoint, idx, point)
		}
		lat := DegreesToRadians(point.Latitude)
		lon := DegreesToRadians(point.Longitude)

		x += math.Cos(lat) * math.Cos(lon)
		y += math.Cos(lat) * math.Sin(lon)
		z += math.Sin(lat)
	}

	count := float64(len(points))
	x /= count
	y /= count
	z /= count

	lon := math.Atan2(y, x)
	hyp := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, hyp)

	return models.GeoPoint{
		Latitude:  RadiansToDegrees(lat),
		Longitude: RadiansToDegrees(lon),
	}, nil
}

// Bearing returns the initial great-circle bearing from one point to another in
// radians, within [-π, π]. The value is not normalised; use NormalizeBearing for
// a compass reading. Identical points yield 0 because atan2(0, 0) is 0 in Go.
func Bearing(from, to models.GeoPoint) float64 {
	lat1 := DegreesToRadians(from.Latitude)
	lon1 := DegreesToRadians(from.Longitude)
	lat2 := DegreesToRadians(to.Latitude)
	lon2 := DegreesToRadians(to.Longitude)

	dLon := lon2 - lon1

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return math.Atan2(y, x)
}

// NormalizeBearing converts a signed bearing in radians into compass degrees within [0, 360).
func NormalizeBearing(radians float64) float64 {
	return NormalizeDegrees(RadiansToDegrees(radians))
}

// NormalizeDegrees wraps an angle in degrees into [0, 360).
func NormalizeDegrees(degrees float64) float64 {
	wrapped := math.Mod(degrees, 360)
	if wrapped < 0 {
		wrapped += 360
	}
	if wrapped >= 360 {
		wrapped -= 360
	}
	return wrapped
}

// Distance returns the great-circle distance between two points in meters.
// It delegates to the orb haversine implementation.
func Distance(from, to models.GeoPoint) float64 {
	return geo.DistanceHaversine(toOrb(from), toOrb(to))
}

func toOrb(point models.GeoPoint) orb.Point {
	return orb.Point{point.Longitude, point.Latitude}
}
