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

// Nominatim endpoints.
const (
	NominatimBaseURL      = "https://nominatim.openstreetmap.org"
	OSMStaticMapURL       = "https://staticmap.openstreetmap.de/staticmap.php"
	nominatimUserAgent    = "Waypoint-Location-Dialog/1.0 (https://github.com/UnknownOlympus/waypoint)"
	nominatimAcceptLang   = "en"
	nominatimRequestsPerS = 1
)

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use),
// so the API key passed by the dialogs is ignored.
type NominatimProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the Nominatim API
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Fair use limiter
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// nominatimPlace represents one place of the Nominatim jsonv2 output.
type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	DisplayName string           `json:"display_name"`
	BoundingBox []string         `json:"boundingbox"` // south, north, west, east
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

type nominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	County      string `json:"county"`
	Postcode    string `json:"postcode"`
	Country     string `json:"country"`
}

// ErrNominatimInvalidCoords is returned when a place carries unparsable coordinates.
var ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")

// NewNominatimProvider creates a new Nominatim geocoding provider.
// Uses the public Nominatim API endpoint by default.
func NewNominatimProvider(log *slog.Logger) *NominatimProvider {
	const timeout = 10
	return &NominatimProvider{
		client: &http.Client{
			Timeout: timeout * time.Second,
		},
		baseURL: NominatimBaseURL,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(nominatimRequestsPerS), 1),
		// User-Agent MUST include valid contact info per Nominatim usage policy:
		// https://operations.osmfoundation.org/policies/nominatim/
		userAgent: nominatimUserAgent,
	}
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client and no rate limit.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(client HTTPClient, log *slog.Logger) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   NominatimBaseURL,
		log:       log,
		limiter:   rate.NewLimiter(rate.Inf, 0),
		userAgent: nominatimUserAgent,
	}
}

// FindByQuery converts free text to candidate locations.
//
// Uses a progressive fallback strategy for partial addresses:
// 1. Try the full text
// 2. Try without the last comma separated component
// 3. Try without the last two components
// 4. Try the first component only
func (np *NominatimProvider) FindByQuery(ctx context.Context, _, query string) ([]models.Location, error) {
	np.log.DebugContext(ctx, "Geocoding using Nominatim", "query", query)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	variations := np.generateAddressFallbacks(query)
	for idx, variation := range variations {
		params := url.Values{}
		params.Set("q", variation)
		params.Set("limit", strconv.Itoa(MaxCandidates))

		var places []nominatimPlace
		if err := np.get(ctx, "/search", params, &places); err != nil {
			return nil, err
		}
		if len(places) == 0 {
			np.log.DebugContext(ctx, "Query variation returned no results, trying fallback",
				"variation", variation,
				"fallback_level", idx)
			continue
		}
		if idx > 0 {
			np.log.InfoContext(ctx, "Geocoded using fallback query",
				"original", query,
				"fallback", variation,
				"fallback_level", idx)
		}

		return nominatimLocations(places)
	}

	np.log.DebugContext(ctx, "All query fallbacks exhausted", "query", query, "variations_tried", len(variations))
	return []models.Location{}, nil
}

// FindByPoint reverse geocodes coordinates.
func (np *NominatimProvider) FindByPoint(ctx context.Context, _ string, lat, lon float64) ([]models.Location, error) {
	np.log.DebugContext(ctx, "Reverse geocoding using Nominatim", "lat", lat, "lon", lon)

	params := url.Values{}
	params.Set("lat", formatCoord(lat))
	params.Set("lon", formatCoord(lon))

	var place nominatimPlace
	if err := np.get(ctx, "/reverse", params, &place); err != nil {
		return nil, err
	}
	if place.Error != "" {
		np.log.DebugContext(ctx, "Nominatim could not reverse geocode", "error", place.Error)
		return []models.Location{}, nil
	}

	return nominatimLocations([]nominatimPlace{place})
}

// MapImageURL returns an OpenStreetMap static map URL.
func (np *NominatimProvider) MapImageURL(_ string, loc models.Location, pin int) (string, error) {
	return osmStaticMapURL(OSMStaticMapURL, loc, pin)
}

// Directions is not offered by Nominatim.
func (np *NominatimProvider) Directions(_ context.Context, _, _, _ string) (*models.Route, error) {
	return nil, fmt.Errorf("nominatim directions: %w", ErrUnsupported)
}

// generateAddressFallbacks creates a list of progressively simpler address variations.
func (np *NominatimProvider) generateAddressFallbacks(address string) []string {
	// Use a map to track unique variations and preserve order
	seen := make(map[string]bool)
	variations := []string{}

	addVariation := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			variations = append(variations, v)
		}
	}

	addVariation(strings.TrimSpace(address))

	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	if len(parts) > 1 {
		addVariation(strings.Join(parts[:len(parts)-1], ", "))

		const lenComponents = 2
		if len(parts) > lenComponents {
			addVariation(strings.Join(parts[:len(parts)-2], ", "))
		}

		addVariation(parts[0])
	}

	return variations
}

// get performs a single rate limited request and decodes the JSON body into out.
func (np *NominatimProvider) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := np.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("accept-language", nominatimAcceptLang)
	reqURL.RawQuery = params.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", nominatimAcceptLang)

	resp, err := np.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute geocoding request: %w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("%w: nominatim API returned status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	if err = sonic.Unmarshal(body, out); err != nil {
		np.log.ErrorContext(ctx, "Failed to parse Nominatim response", "error", err, "body", string(body))
		return fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	return nil
}

func nominatimLocations(places []nominatimPlace) ([]models.Location, error) {
	locations := make([]models.Location, 0, len(places))
	for _, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, p.Lat)
		}
		lon, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, p.Lon)
		}

		locality := p.Address.City
		if locality == "" {
			locality = p.Address.Town
		}
		if locality == "" {
			locality = p.Address.Village
		}

		loc := models.Location{
			EntityType: p.Type,
			Name:       p.Name,
			Point:      models.NewGeoPoint(lat, lon),
			Address: &models.Address{
				AddressLine:      strings.TrimSpace(p.Address.HouseNumber + " " + p.Address.Road),
				Locality:         locality,
				AdminDistrict:    p.Address.State,
				AdminDistrict2:   p.Address.County,
				PostalCode:       p.Address.Postcode,
				CountryRegion:    p.Address.Country,
				FormattedAddress: p.DisplayName,
			},
		}
		if box, ok := parseNominatimBox(p.BoundingBox); ok {
			loc.BoundingBox = box
		}
		locations = append(locations, loc)
	}

	return locations, nil
}

func parseNominatimBox(raw []string) (*models.BoundingBox, bool) {
	const boxLen = 4
	if len(raw) != boxLen {
		return nil, false
	}

	var v [boxLen]float64
	for i, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		v[i] = f
	}

	// Nominatim orders the box as south, north, west, east.
	return &models.BoundingBox{v[0], v[2], v[1], v[3]}, true
}
