// Package location composes the dialog units that capture a physical location:
// free text resolution, channel native capture, required field completion
// and the orchestrating root unit.
package location

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/resources"
)

// ErrConfig is returned for options or credentials the dialog cannot run with.
var ErrConfig = errors.New("location dialog misconfigured")

// Unit kinds as stored in stack snapshots.
const (
	KindOrchestrator = "location"
	KindResolver     = "location.resolver"
	KindNative       = "location.native"
	KindFields       = "location.required_fields"
)

// Options configure one location capture.
type Options struct {
	APIKey           string                `json:"api_key"`
	ChannelID        string                `json:"channel_id"`
	Prompt           string                `json:"prompt"`
	UseNativeControl bool                  `json:"use_native_control,omitempty"`
	ReverseGeocode   bool                  `json:"reverse_geocode,omitempty"`
	RequiredFields   models.RequiredFields `json:"required_fields,omitempty"`
	DirectionsFrom   string                `json:"directions_from,omitempty"` // Origin of the optional route summary.
}

// Validate checks the options before a dialog starts.
func (o Options) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return fmt.Errorf("%w: API key is required", ErrConfig)
	}
	if strings.TrimSpace(o.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrConfig)
	}
	if o.RequiredFields&^models.RequiredAll != 0 {
		return fmt.Errorf("%w: unknown required field bits %#x", ErrConfig, uint8(o.RequiredFields))
	}

	return nil
}

// Presenter renders candidate lists and channel affordances.
type Presenter interface {
	Carousel(apiKey string, locs []models.Location) dialog.Reply
	Keyboard(locs []models.Location, text, other string) dialog.Reply
	Confirmation(text, yes, no string) dialog.Reply
	NativeLocation(text string) dialog.Reply
}

// Dependencies are shared by every unit of the package.
type Dependencies struct {
	Provider  geocoding.Provider
	Presenter Presenter
	Strings   *resources.Strings
	Log       *slog.Logger
}

// SupportsNativeLocation reports whether the channel can push a structured location.
func SupportsNativeLocation(channelID string) bool {
	return strings.EqualFold(channelID, "facebook")
}

// SupportsKeyboard reports whether the channel renders reply buttons.
func SupportsKeyboard(channelID string) bool {
	switch strings.ToLower(channelID) {
	case "facebook", "telegram":
		return true
	default:
		return false
	}
}

// Register adds the location units to reg so snapshots can be restored.
func Register(reg *dialog.Registry, deps *Dependencies) {
	reg.Register(KindOrchestrator, func() dialog.Unit { return &Orchestrator{deps: deps} })
	reg.Register(KindResolver, func() dialog.Unit { return &Resolver{deps: deps} })
	reg.Register(KindNative, func() dialog.Unit { return &NativeCapture{deps: deps} })
	reg.Register(KindFields, func() dialog.Unit { return &RequiredFields{deps: deps} })
}
