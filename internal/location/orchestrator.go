package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

const (
	orchestratorRetrieved dialog.ResumePoint = "retrieved"
	orchestratorCompleted dialog.ResumePoint = "completed"
)

// Orchestrator is the root unit of a location capture. It picks a retrieval unit,
// enriches the result by reverse geocoding and completes the required fields.
type Orchestrator struct {
	Options        Options          `json:"options"`
	RequiredCalled bool             `json:"required_called,omitempty"`
	Selected       *models.Location `json:"selected,omitempty"`

	deps *Dependencies
}

// New creates the root unit of a location capture.
func New(opts Options, deps *Dependencies) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &Orchestrator{Options: opts, deps: deps}, nil
}

func (o *Orchestrator) Kind() string { return KindOrchestrator }

func (o *Orchestrator) Start(ctx context.Context, c *dialog.Context) error {
	o.RequiredCalled = false
	o.Selected = nil

	var child dialog.Unit
	if o.Options.UseNativeControl && SupportsNativeLocation(o.Options.ChannelID) {
		child = NewNativeCapture(o.deps, o.Options.Prompt)
	} else {
		child = NewResolver(o.deps, o.Options.APIKey, o.Options.Prompt, SupportsKeyboard(o.Options.ChannelID))
	}

	o.deps.Log.DebugContext(ctx, "Starting location capture", "channel", o.Options.ChannelID, "retriever", child.Kind())

	c.Call(child, orchestratorRetrieved)
	return nil
}

func (o *Orchestrator) Resume(ctx context.Context, c *dialog.Context, point dialog.ResumePoint, in dialog.Input) error {
	if in.Response == nil {
		return dialog.UnknownPoint(o.Kind(), point)
	}
	if in.Response.Location == nil {
		c.Done(in.Response)
		return nil
	}

	switch point {
	case orchestratorRetrieved:
		o.Selected = in.Response.Location
		o.reverseGeocode(ctx, o.Selected)

		if o.Options.RequiredFields != models.RequiredNone && !o.RequiredCalled {
			o.RequiredCalled = true
			c.Call(NewRequiredFields(o.deps, o.Selected, o.Options.RequiredFields), orchestratorCompleted)
			return nil
		}
	case orchestratorCompleted:
		o.Selected = in.Response.Location
	default:
		return dialog.UnknownPoint(o.Kind(), point)
	}

	if o.Options.DirectionsFrom != "" {
		o.announceDirections(ctx, c)
	}
	c.Done(&dialog.Response{Location: o.Selected})

	return nil
}

// reverseGeocode fills the address of a point-only location. The street line is never copied.
func (o *Orchestrator) reverseGeocode(ctx context.Context, loc *models.Location) {
	if !o.Options.ReverseGeocode || loc.Address != nil || !loc.HasPoint() {
		return
	}

	results, err := o.deps.Provider.FindByPoint(ctx, o.Options.APIKey, loc.Point.Latitude(), loc.Point.Longitude())
	if err != nil {
		o.deps.Log.WarnContext(ctx, "Reverse geocoding failed", "error", err)
		return
	}
	if len(results) == 0 || results[0].Address == nil {
		o.deps.Log.DebugContext(ctx, "Reverse geocoding returned no address")
		return
	}

	found := results[0].Address
	loc.Address = &models.Address{
		Locality:       found.Locality,
		AdminDistrict:  found.AdminDistrict,
		AdminDistrict2: found.AdminDistrict2,
		PostalCode:     found.PostalCode,
		CountryRegion:  found.CountryRegion,
	}
}

func (o *Orchestrator) announceDirections(ctx context.Context, c *dialog.Context) {
	strs := o.deps.Strings

	to := o.Selected.FormattedAddress(strs.AddressSeparator)
	if to == "" && o.Selected.HasPoint() {
		to = fmt.Sprintf("%f,%f", o.Selected.Point.Latitude(), o.Selected.Point.Longitude())
	}
	if to == "" {
		return
	}

	route, err := o.deps.Provider.Directions(ctx, o.Options.APIKey, to, o.Options.DirectionsFrom)
	if err != nil {
		if errors.Is(err, geocoding.ErrUnsupported) {
			o.deps.Log.DebugContext(ctx, "Provider does not offer directions")
		} else {
			o.deps.Log.WarnContext(ctx, "Failed to get directions", "from", o.Options.DirectionsFrom, "error", err)
		}
		return
	}

	c.Say(fmt.Sprintf(strs.DirectionsSummary, route.DistanceKm, humanDuration(route.Duration)))

	var steps strings.Builder
	for i, step := range route.Steps {
		fmt.Fprintf(&steps, "%d. %s", i+1, step.Instruction)
		if step.DistanceKm > 0 {
			fmt.Fprintf(&steps, " (%.1f km)", step.DistanceKm)
		}
		steps.WriteString("\n")
	}
	if steps.Len() > 0 {
		c.Say(strings.TrimRight(steps.String(), "\n"))
	}
}

func humanDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
}
