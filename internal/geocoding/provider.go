package geocoding

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/waypoint/internal/models"
)

// MaxCandidates is the number of results requested from providers that support a limit.
const MaxCandidates = 5

// Provider is the geocoding collaborator of the location dialogs.
//
// FindByQuery and FindByPoint return candidates in the provider's relevance order.
// An empty slice with a nil error means nothing matched.
type Provider interface {
	FindByQuery(ctx context.Context, apiKey, query string) ([]models.Location, error)
	FindByPoint(ctx context.Context, apiKey string, lat, lon float64) ([]models.Location, error)
	MapImageURL(apiKey string, loc models.Location, pin int) (string, error)
	Directions(ctx context.Context, apiKey, to, from string) (*models.Route, error)
}

// Common provider errors.
var (
	// ErrUnauthorized is returned when the API key is missing or rejected.
	ErrUnauthorized = errors.New("geocoding provider rejected the API key")
	// ErrUnavailable wraps network failures and 5xx answers.
	ErrUnavailable = errors.New("geocoding provider unavailable")
	// ErrUnsupported is returned by providers lacking an operation.
	ErrUnsupported = errors.New("operation not supported by geocoding provider")
	// ErrNoPoint is returned when a map image is requested for a location without coordinates.
	ErrNoPoint = errors.New("location has no coordinates")
	// ErrEmptyQuery is returned for blank free-text queries.
	ErrEmptyQuery = errors.New("empty geocoding query")
)
