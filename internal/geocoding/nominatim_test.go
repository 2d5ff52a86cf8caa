package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/anchor/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil
	}
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), "nominatim.openstreetmap.org")
				assert.Equal(t, "Rizal Avenue, Manila", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Equal(t, geocoding.DefaultUserAgent, req.Header.Get("User-Agent"))

				return respond(http.StatusOK, `[{"lat":"14.6871040","lon":"120.9563980"}]`)(req)
			},
		}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "Rizal Avenue, Manila")

		require.NoError(t, err)
		require.NotNil(t, point)
		assert.InEpsilon(t, 14.687104, point.Latitude, 1e-9)
		assert.InEpsilon(t, 120.956398, point.Longitude, 1e-9)
	})

	t.Run("custom endpoint and user agent", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "osm.internal", req.URL.Host)
				assert.Equal(t, "/search", req.URL.Path)
				assert.Equal(t, "anchor-test", req.Header.Get("User-Agent"))

				return respond(http.StatusOK, `[{"lat":"1.5","lon":"2.5"}]`)(req)
			},
		}

		provider := geocoding.NewNominatimProvider(logger,
			geocoding.WithHTTPClient(mockClient),
			geocoding.WithBaseURL("http://osm.internal/search"),
			geocoding.WithUserAgent("anchor-test"),
		)
		point, err := provider.Geocode(ctx, "anywhere")

		require.NoError(t, err)
		assert.InDelta(t, 1.5, point.Latitude, 1e-12)
		assert.InDelta(t, 2.5, point.Longitude, 1e-12)
	})

	t.Run("empty response from API", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[]`)}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "invalid address")

		require.Nil(t, point)
		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`)}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, point)
		assert.Contains(t, err.Error(), "nominatim API returned status 429")
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `invalid json`)}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "some address")

		require.Error(t, err)
		require.Nil(t, point)
		assert.Contains(t, err.Error(), "failed to decode nominatim response")
	})

	t.Run("invalid latitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[{"lat":"invalid","lon":"120.95"}]`)}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "some address")

		require.Nil(t, point)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid latitude")
	})

	t.Run("invalid longitude in response", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[{"lat":"14.68","lon":"invalid"}]`)}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "some address")

		require.Nil(t, point)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
		assert.Contains(t, err.Error(), "invalid longitude")
	})

	t.Run("out of range coordinates", func(t *testing.T) {
		mockClient := &mockHTTPClient{doFunc: respond(http.StatusOK, `[{"lat":"95","lon":"10"}]`)}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "some address")

		require.Nil(t, point)
		require.ErrorIs(t, err, geocoding.ErrNominatimInvalidCoords)
	})

	t.Run("HTTP client error", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
		}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(ctx, "some address")

		require.Nil(t, point)
		require.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "failed to execute geocoding request")
	})

	t.Run("context cancellation", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(cancelled, "some address")

		require.Nil(t, point)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNominatimProvider_AddressFallback(t *testing.T) {
	logger := slog.Default()

	t.Run("falls back to shorter address", func(t *testing.T) {
		var queries []string
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				q := req.URL.Query().Get("q")
				queries = append(queries, q)
				if q == "Plaza Lorenzo Ruiz, Binondo" {
					return respond(http.StatusOK, `[{"lat":"14.6","lon":"120.97"}]`)(req)
				}
				return respond(http.StatusOK, `[]`)(req)
			},
		}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		point, err := provider.Geocode(t.Context(), "Plaza Lorenzo Ruiz, Binondo, 1006")

		require.NoError(t, err)
		assert.InDelta(t, 14.6, point.Latitude, 1e-12)
		assert.Equal(t, []string{"Plaza Lorenzo Ruiz, Binondo, 1006", "Plaza Lorenzo Ruiz, Binondo"}, queries)
	})

	t.Run("tries every variation once", func(t *testing.T) {
		var queries []string
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				queries = append(queries, req.URL.Query().Get("q"))
				return respond(http.StatusOK, `[]`)(req)
			},
		}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		_, err := provider.Geocode(t.Context(), "A, B, C, D")

		require.ErrorIs(t, err, geocoding.ErrNominatimEmptyResponse)
		assert.Equal(t, []string{"A, B, C, D", "A, B, C", "A, B", "A"}, queries)
	})

	t.Run("stops on non-empty error", func(t *testing.T) {
		calls := 0
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				calls++
				return respond(http.StatusInternalServerError, `boom`)(req)
			},
		}

		provider := geocoding.NewNominatimProvider(logger, geocoding.WithHTTPClient(mockClient))
		_, err := provider.Geocode(t.Context(), "A, B, C")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}
