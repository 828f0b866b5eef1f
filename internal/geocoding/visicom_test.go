package geocoding_test

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newVisicom(doFunc func(req *http.Request) (*http.Response, error)) *geocoding.VisicomProvider {
	return geocoding.NewVisicomProviderWithClient(
		&mockHTTPClient{doFunc: doFunc},
		rate.NewLimiter(rate.Inf, 0),
		slog.Default(),
	)
}

func TestVisicomProvider_FindByQuery(t *testing.T) {
	ctx := t.Context()

	t.Run("feature collection", func(t *testing.T) {
		provider := newVisicom(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Київ, Хрещатик 1", req.URL.Query().Get("text"))
			assert.Equal(t, "5", req.URL.Query().Get("limit"))
			assert.Equal(t, "key", req.URL.Query().Get("key"))
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			return jsonResponse(http.StatusOK, `{"type":"FeatureCollection","features":[
				{"properties":{"type":"adr_address","name":"1","street":"Хрещатик","settlement":"Київ","country":"Україна","zip":"01001"},
				 "geo_centroid":{"coordinates":[30.52,50.45]},"bbox":[30.51,50.44,30.53,50.46]},
				{"properties":{"type":"adm_settlement","name":"Київ"},"geo_centroid":{"coordinates":[30.5,50.4]}}
			]}`), nil
		})

		locs, err := provider.FindByQuery(ctx, "key", "Київ, Хрещатик 1")

		require.NoError(t, err)
		require.Len(t, locs, 2)
		assert.InEpsilon(t, 50.45, locs[0].Point.Latitude(), 0.0001)
		assert.InEpsilon(t, 30.52, locs[0].Point.Longitude(), 0.0001)
		assert.Equal(t, "Хрещатик 1", locs[0].Address.AddressLine)
		assert.Equal(t, "Київ", locs[0].Address.Locality)
		assert.Equal(t, "01001", locs[0].Address.PostalCode)
		require.NotNil(t, locs[0].BoundingBox)
		assert.InEpsilon(t, 50.44, locs[0].BoundingBox[0], 0.0001)
		assert.Empty(t, locs[1].Address.AddressLine)
	})

	t.Run("single feature", func(t *testing.T) {
		provider := newVisicom(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"type":"Feature","properties":{"name":"Львів"},
				"geo_centroid":{"coordinates":[24.03,49.84]}}`), nil
		})

		locs, err := provider.FindByQuery(ctx, "key", "Львів")

		require.NoError(t, err)
		require.Len(t, locs, 1)
		assert.Equal(t, "Львів", locs[0].Name)
	})

	t.Run("empty collection", func(t *testing.T) {
		provider := newVisicom(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"type":"FeatureCollection","features":[]}`), nil
		})

		locs, err := provider.FindByQuery(ctx, "key", "nowhere")

		require.NoError(t, err)
		assert.Empty(t, locs)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		provider := newVisicom(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"type":"Feature","geo_centroid":{"coordinates":[24.03]}}`), nil
		})

		_, err := provider.FindByQuery(ctx, "key", "Львів")

		require.ErrorIs(t, err, geocoding.ErrVisicomInvalidCoords)
	})

	t.Run("unauthorized", func(t *testing.T) {
		provider := newVisicom(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusForbidden, `{}`), nil
		})

		_, err := provider.FindByQuery(ctx, "bad", "Львів")

		require.ErrorIs(t, err, geocoding.ErrUnauthorized)
	})

	t.Run("missing key", func(t *testing.T) {
		provider := newVisicom(nil)

		_, err := provider.FindByQuery(ctx, "", "Львів")

		require.ErrorIs(t, err, geocoding.ErrUnauthorized)
	})

	t.Run("server error", func(t *testing.T) {
		provider := newVisicom(func(_ *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusBadGateway, `bad gateway`), nil
		})

		_, err := provider.FindByQuery(ctx, "key", "Львів")

		require.ErrorIs(t, err, geocoding.ErrUnavailable)
		assert.Contains(t, err.Error(), "visicom API returned status 502")
	})
}

func TestVisicomProvider_FindByPoint(t *testing.T) {
	provider := newVisicom(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "30.520000,50.450000", req.URL.Query().Get("near"))
		assert.Equal(t, "1", req.URL.Query().Get("limit"))
		return jsonResponse(http.StatusOK, `{"type":"Feature","properties":{"type":"adr_address","settlement":"Київ"},
			"geo_centroid":{"coordinates":[30.52,50.45]}}`), nil
	})

	locs, err := provider.FindByPoint(t.Context(), "key", 50.45, 30.52)

	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Київ", locs[0].Address.Locality)
}
