package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/anchor/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider geocodes addresses with the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	log    *slog.Logger
}

// GoogleAPIClient is the subset of the maps client the provider uses.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

var (
	// ErrEmptyResponse is returned when the Google Maps API responds with an empty result.
	ErrEmptyResponse = errors.New("get empty response from Google Maps API")
	// ErrInvalidLocation is returned when the first result lies outside valid coordinates.
	ErrInvalidLocation = errors.New("google Maps API returned invalid location")
)

// NewGoogleProvider wraps a Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode returns the location of the first result for address.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (*models.GeoPoint, error) {
	gp.log.DebugContext(ctx, "Geocoding reference point using Google Maps", "address", address)

	results, err := gp.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrEmptyResponse
	}

	best := results[0]
	point := &models.GeoPoint{Latitude: best.Geometry.Location.Lat, Longitude: best.Geometry.Location.Lng}
	if !point.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLocation, point)
	}
	if best.PartialMatch {
		// A partial match usually means the reference point lands on a street or town centroid.
		gp.log.WarnContext(ctx, "Reference point address matched partially",
			"address", address, "matched", best.FormattedAddress, "point", point.String())
	}

	return point, nil
}
