package geocoding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/bytedance/sonic"
	"golang.org/x/time/rate"
)

// VisicomBaseURL -- Visicom API base URL.
const VisicomBaseURL = "https://api.visicom.ua/data-api/5.0/uk/geocode.json"

// VisicomProvider implements geocoding using Visicom API.
type VisicomProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Visicom API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// ErrVisicomInvalidCoords is returned when a feature carries a malformed centroid.
var ErrVisicomInvalidCoords = errors.New("visicom API returned invalid coordinates")

// visicomFeature is one GeoJSON feature of the Visicom answer.
type visicomFeature struct {
	ID         string `json:"id"`
	Properties struct {
		Name       string `json:"name"`
		Type       string `json:"type"`
		Street     string `json:"street"`
		Settlement string `json:"settlement"`
		Level1     string `json:"level1"`
		Level2     string `json:"level2"`
		Zip        string `json:"zip"`
		Country    string `json:"country"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [lon, lat]
	} `json:"geo_centroid"`
	BBox []float64 `json:"bbox"` // [west, south, east, north]
}

// visicomResponse is either a FeatureCollection or a single Feature.
type visicomResponse struct {
	Type     string           `json:"type"`
	Features []visicomFeature `json:"features"`
	visicomFeature
}

// NewVisicomProvider creates a new Visicom geocoding provider.
func NewVisicomProvider(rateLimit int, log *slog.Logger) *VisicomProvider {
	const timeout = 10

	return &VisicomProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: VisicomBaseURL,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
	}
}

// NewVisicomProviderWithClient allows injecting custom HTTP client.
func NewVisicomProviderWithClient(
	client HTTPClient,
	limiter *rate.Limiter,
	log *slog.Logger,
) *VisicomProvider {
	return &VisicomProvider{
		client:  client,
		baseURL: VisicomBaseURL,
		log:     log,
		limiter: limiter,
	}
}

// FindByQuery converts free text into candidate locations using Visicom API.
func (vp *VisicomProvider) FindByQuery(ctx context.Context, apiKey, query string) ([]models.Location, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("limit", strconv.Itoa(MaxCandidates))

	return vp.search(ctx, apiKey, params)
}

// FindByPoint returns the addresses nearest to the coordinates.
func (vp *VisicomProvider) FindByPoint(ctx context.Context, apiKey string, lat, lon float64) ([]models.Location, error) {
	params := url.Values{}
	params.Set("near", formatCoord(lon)+","+formatCoord(lat))
	params.Set("categories", "adr_address")
	params.Set("limit", "1")

	return vp.search(ctx, apiKey, params)
}

// MapImageURL falls back to an OpenStreetMap static map; Visicom has no keyed static map endpoint here.
func (vp *VisicomProvider) MapImageURL(_ string, loc models.Location, pin int) (string, error) {
	return osmStaticMapURL(OSMStaticMapURL, loc, pin)
}

// Directions is not offered by the Visicom data API.
func (vp *VisicomProvider) Directions(_ context.Context, _, _, _ string) (*models.Route, error) {
	return nil, fmt.Errorf("visicom directions: %w", ErrUnsupported)
}

func (vp *VisicomProvider) search(ctx context.Context, apiKey string, params url.Values) ([]models.Location, error) {
	if apiKey == "" {
		return nil, ErrUnauthorized
	}

	// Rate limit
	if err := vp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(vp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	params.Set("key", apiKey)
	reqURL.RawQuery = params.Encode()

	vp.log.DebugContext(ctx, "Visicom request", "text", params.Get("text"), "near", params.Get("near"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := vp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		vp.log.ErrorContext(ctx, "Visicom API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: visicom API returned status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	vp.log.DebugContext(ctx, "Visicom raw response", "body", string(body))

	var result visicomResponse
	if err = sonic.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode visicom response: %w", err)
	}

	features := result.Features
	if result.Type == "Feature" {
		features = []visicomFeature{result.visicomFeature}
	}

	return visicomLocations(features)
}

func visicomLocations(features []visicomFeature) ([]models.Location, error) {
	const coordsListLength = 2

	locations := make([]models.Location, 0, len(features))
	for _, f := range features {
		coords := f.Geometry.Coordinates
		if len(coords) != coordsListLength {
			return nil, ErrVisicomInvalidCoords
		}

		p := f.Properties
		addr := &models.Address{
			AddressLine:    strings.TrimSpace(p.Street + " " + p.Name),
			Locality:       p.Settlement,
			AdminDistrict:  p.Level1,
			AdminDistrict2: p.Level2,
			PostalCode:     p.Zip,
			CountryRegion:  p.Country,
		}
		if p.Type != "adr_address" {
			addr.AddressLine = p.Street
		}

		loc := models.Location{
			EntityType: p.Type,
			Name:       p.Name,
			Address:    addr,
			Point:      models.NewGeoPoint(coords[1], coords[0]),
		}
		if len(f.BBox) == 4 {
			loc.BoundingBox = &models.BoundingBox{f.BBox[1], f.BBox[0], f.BBox[3], f.BBox[2]}
		}
		locations = append(locations, loc)
	}

	return locations, nil
}
