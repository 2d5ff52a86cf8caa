// Package geocoding resolves reference-point addresses into coordinates.
package geocoding

import (
	"context"

	"github.com/UnknownOlympus/anchor/internal/models"
)

// Provider turns an address into the coordinates of its best match.
type Provider interface {
	Geocode(ctx context.Context, address string) (*models.GeoPoint, error)
}
