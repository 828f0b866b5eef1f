package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/UnknownOlympus/waypoint/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleStaticMapURL -- Google Static Maps API endpoint.
const GoogleStaticMapURL = "https://maps.googleapis.com/maps/api/staticmap"

// GoogleProvider is a struct that holds the Google Maps API clients, one per API key,
// and a logger for logging purposes.
type GoogleProvider struct {
	newClient GoogleClientFactory // newClient builds a client for an API key
	log       *slog.Logger        // log is the logger for logging operations

	mu      sync.Mutex
	clients map[string]GoogleAPIClient
}

// GoogleAPIClient is the subset of *maps.Client used by the provider.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	ReverseGeocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// GoogleClientFactory creates a Google Maps client for the given API key.
type GoogleClientFactory func(apiKey string) (GoogleAPIClient, error)

var htmlTags = regexp.MustCompile(`<[^>]+>`)

// NewGoogleProvider initializes a new GoogleProvider with the given client factory and logger.
// Clients are created lazily and reused per API key.
func NewGoogleProvider(newClient GoogleClientFactory, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{newClient: newClient, log: log, clients: make(map[string]GoogleAPIClient)}
}

// MapsClientFactory returns a factory building rate limited *maps.Client values.
func MapsClientFactory(rateLimit int) GoogleClientFactory {
	return func(apiKey string) (GoogleAPIClient, error) {
		clientOpts := []maps.ClientOption{
			maps.WithAPIKey(apiKey),
		}
		if rateLimit > 0 {
			clientOpts = append(clientOpts, maps.WithRateLimit(rateLimit))
		}

		client, err := maps.NewClient(clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
		}

		return client, nil
	}
}

func (gp *GoogleProvider) client(apiKey string) (GoogleAPIClient, error) {
	if apiKey == "" {
		return nil, ErrUnauthorized
	}

	gp.mu.Lock()
	defer gp.mu.Unlock()

	if c, ok := gp.clients[apiKey]; ok {
		return c, nil
	}
	c, err := gp.newClient(apiKey)
	if err != nil {
		return nil, err
	}
	gp.clients[apiKey] = c

	return c, nil
}

// FindByQuery geocodes free text using the Google Maps Geocoding API.
func (gp *GoogleProvider) FindByQuery(ctx context.Context, apiKey, query string) ([]models.Location, error) {
	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "query", query)

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	client, err := gp.client(apiKey)
	if err != nil {
		return nil, err
	}

	results, err := client.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return gp.classify(ctx, "failed to geocode address", err)
	}

	return googleLocations(results), nil
}

// FindByPoint reverse geocodes coordinates using the Google Maps Geocoding API.
func (gp *GoogleProvider) FindByPoint(ctx context.Context, apiKey string, lat, lon float64) ([]models.Location, error) {
	gp.log.DebugContext(ctx, "Reverse geocoding using Google Maps", "lat", lat, "lon", lon)

	client, err := gp.client(apiKey)
	if err != nil {
		return nil, err
	}

	results, err := client.ReverseGeocode(ctx, &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: lat, Lng: lon}})
	if err != nil {
		return gp.classify(ctx, "failed to reverse geocode point", err)
	}

	return googleLocations(results), nil
}

// MapImageURL returns a Static Maps URL for the location.
func (gp *GoogleProvider) MapImageURL(apiKey string, loc models.Location, pin int) (string, error) {
	return googleStaticMapURL(GoogleStaticMapURL, apiKey, loc, pin)
}

// Directions returns the first driving route between from and to.
func (gp *GoogleProvider) Directions(ctx context.Context, apiKey, to, from string) (*models.Route, error) {
	client, err := gp.client(apiKey)
	if err != nil {
		return nil, err
	}

	routes, _, err := client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      from,
		Destination: to,
		Mode:        maps.TravelModeDriving,
		Avoid:       []maps.Avoid{maps.AvoidTolls},
	})
	if err != nil {
		if _, cerr := gp.classify(ctx, "failed to get directions", err); cerr != nil {
			return nil, cerr
		}
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("%w: no route found", ErrUnavailable)
	}

	route := &models.Route{}
	for _, leg := range routes[0].Legs {
		route.DistanceKm += float64(leg.Distance.Meters) / 1000
		route.Duration += leg.Duration
		for _, step := range leg.Steps {
			route.Steps = append(route.Steps, models.RouteStep{
				Instruction: strings.TrimSpace(htmlTags.ReplaceAllString(step.HTMLInstructions, " ")),
				DistanceKm:  float64(step.Distance.Meters) / 1000,
			})
		}
	}

	return route, nil
}

// classify maps Google status errors onto the provider errors.
func (gp *GoogleProvider) classify(ctx context.Context, msg string, err error) ([]models.Location, error) {
	status := err.Error()
	switch {
	case strings.Contains(status, "ZERO_RESULTS"):
		return []models.Location{}, nil
	case strings.Contains(status, "REQUEST_DENIED"):
		gp.log.ErrorContext(ctx, "Google Maps rejected the API key", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	default:
		return nil, fmt.Errorf("%s: %w: %w", msg, ErrUnavailable, err)
	}
}

func googleLocations(results []maps.GeocodingResult) []models.Location {
	locations := make([]models.Location, 0, len(results))
	for _, res := range results {
		loc := models.Location{
			Address: googleAddress(res),
			Point:   models.NewGeoPoint(res.Geometry.Location.Lat, res.Geometry.Location.Lng),
		}
		if len(res.Types) > 0 {
			loc.EntityType = res.Types[0]
		}
		if res.Geometry.LocationType != "" {
			loc.Confidence = res.Geometry.LocationType
		}
		vp := res.Geometry.Viewport
		if vp.NorthEast != (maps.LatLng{}) || vp.SouthWest != (maps.LatLng{}) {
			loc.BoundingBox = &models.BoundingBox{vp.SouthWest.Lat, vp.SouthWest.Lng, vp.NorthEast.Lat, vp.NorthEast.Lng}
		}
		locations = append(locations, loc)
	}

	return locations
}

func googleAddress(res maps.GeocodingResult) *models.Address {
	addr := &models.Address{FormattedAddress: res.FormattedAddress}
	var number, route string
	for _, comp := range res.AddressComponents {
		for _, typ := range comp.Types {
			switch typ {
			case "street_number":
				number = comp.LongName
			case "route":
				route = comp.LongName
			case "locality", "postal_town":
				if addr.Locality == "" {
					addr.Locality = comp.LongName
				}
			case "administrative_area_level_1":
				addr.AdminDistrict = comp.LongName
			case "administrative_area_level_2":
				addr.AdminDistrict2 = comp.LongName
			case "postal_code":
				addr.PostalCode = comp.LongName
			case "country":
				addr.CountryRegion = comp.LongName
			}
		}
	}
	addr.AddressLine = strings.TrimSpace(number + " " + route)

	return addr
}
