package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/anchor/internal/models"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap search endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	// DefaultUserAgent identifies the application as required by the Nominatim usage policy.
	DefaultUserAgent = "Anchor-Placement/1.0 (https://github.com/UnknownOlympus/anchor)"

	nominatimTimeout = 10 * time.Second
)

// NominatimProvider geocodes addresses with an OpenStreetMap Nominatim instance.
// The public instance allows one request per second; callers are expected to pace requests.
type NominatimProvider struct {
	client    HTTPClient
	baseURL   string
	userAgent string
	log       *slog.Logger
}

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NominatimOption customizes a NominatimProvider.
type NominatimOption func(*NominatimProvider)

type nominatimResponse struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client HTTPClient) NominatimOption {
	return func(np *NominatimProvider) {
		if client != nil {
			np.client = client
		}
	}
}

// WithBaseURL points the provider at a self-hosted instance. Empty values are ignored.
func WithBaseURL(baseURL string) NominatimOption {
	return func(np *NominatimProvider) {
		if baseURL != "" {
			np.baseURL = baseURL
		}
	}
}

// WithUserAgent overrides the User-Agent header. Empty values are ignored.
func WithUserAgent(userAgent string) NominatimOption {
	return func(np *NominatimProvider) {
		if userAgent != "" {
			np.userAgent = userAgent
		}
	}
}

// NewNominatimProvider creates a provider for the public Nominatim API unless options say otherwise.
func NewNominatimProvider(log *slog.Logger, opts ...NominatimOption) *NominatimProvider {
	np := &NominatimProvider{
		client:    &http.Client{Timeout: nominatimTimeout},
		baseURL:   DefaultNominatimURL,
		userAgent: DefaultUserAgent,
		log:       log,
	}
	for _, opt := range opts {
		opt(np)
	}

	return np
}

// Geocode resolves address, retrying with progressively shorter comma-separated prefixes
// when Nominatim finds nothing for the full string. Any error other than an empty result
// stops the search immediately.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (*models.GeoPoint, error) {
	np.log.DebugContext(ctx, "Geocoding reference point using Nominatim", "address", address)

	variations := addressFallbacks(address)
	for level, variation := range variations {
		point, err := np.search(ctx, variation)
		if err == nil {
			if level > 0 {
				np.log.InfoContext(ctx, "Geocoded using fallback address",
					"original", address,
					"fallback", variation,
					"fallback_level", level)
			}
			return point, nil
		}
		if !errors.Is(err, ErrNominatimEmptyResponse) {
			return nil, err
		}
	}

	np.log.WarnContext(ctx, "All address fallbacks exhausted", "address", address, "variations_tried", len(variations))
	return nil, ErrNominatimEmptyResponse
}

// addressFallbacks returns the full address, then the address without its last one and two
// components, then the first component alone. Duplicates are skipped.
func addressFallbacks(address string) []string {
	if address == "" {
		return []string{""}
	}

	seen := make(map[string]bool)
	variations := make([]string, 0, 4)
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	add(address)

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 1 {
		add(strings.Join(parts[:len(parts)-1], ", "))
		if len(parts) > 2 {
			add(strings.Join(parts[:len(parts)-2], ", "))
		}
		add(parts[0])
	}

	return variations
}

func (np *NominatimProvider) search(ctx context.Context, address string) (*models.GeoPoint, error) {
	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", np.userAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	point := &models.GeoPoint{Latitude: lat, Longitude: lon}
	if !point.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrNominatimInvalidCoords, point)
	}

	return point, nil
}
