package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"googlemaps.github.io/maps"
)

// ProviderType names a geocoding backend for reference point addresses.
type ProviderType string

const (
	// ProviderTypeGoogle resolves addresses with the Google Maps Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim resolves addresses with an OpenStreetMap Nominatim instance.
	ProviderTypeNominatim ProviderType = "nominatim"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider type")
	ErrMissingAPIKey       = errors.New("API key is required for Google provider")
	ErrInvalidBaseURL      = errors.New("invalid Nominatim base URL")
)

// ProviderConfig describes the provider used to geocode reference points.
// Providers built here do not throttle themselves; ReferenceResolver paces
// every provider with one shared limiter.
type ProviderConfig struct {
	Type      ProviderType
	APIKey    string // Required by Google.
	BaseURL   string // Nominatim endpoint, empty selects the public instance.
	UserAgent string // Nominatim User-Agent, empty selects DefaultUserAgent.
	Logger    *slog.Logger
}

// NewProvider builds the provider named by config.Type.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return newNominatimProvider(config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := maps.NewClient(maps.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}

func newNominatimProvider(config ProviderConfig) (Provider, error) {
	if config.BaseURL != "" {
		endpoint, err := url.Parse(config.BaseURL)
		if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, config.BaseURL)
		}
	}

	return NewNominatimProvider(config.Logger,
		WithBaseURL(config.BaseURL),
		WithUserAgent(config.UserAgent),
	), nil
}
