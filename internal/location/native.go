package location

import (
	"context"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

const nativePayload dialog.ResumePoint = "payload"

// NativeCapture waits for a location pushed by the channel's own picker.
type NativeCapture struct {
	Prompt string `json:"prompt"`

	deps *Dependencies
}

// NewNativeCapture creates a native capture unit.
func NewNativeCapture(deps *Dependencies, prompt string) *NativeCapture {
	return &NativeCapture{Prompt: prompt, deps: deps}
}

func (n *NativeCapture) Kind() string { return KindNative }

func (n *NativeCapture) Start(_ context.Context, c *dialog.Context) error {
	c.Post(n.deps.Presenter.NativeLocation(n.Prompt + n.deps.Strings.TitleSuffixNative))
	c.Wait(nativePayload)
	return nil
}

// Resume accepts only a coordinate pair; anything else re-prompts with the picker.
func (n *NativeCapture) Resume(ctx context.Context, c *dialog.Context, point dialog.ResumePoint, in dialog.Input) error {
	if point != nativePayload || in.Message == nil {
		return dialog.UnknownPoint(n.Kind(), point)
	}

	if p := in.Message.Point; p != nil {
		n.deps.Log.DebugContext(ctx, "Native location received", "lat", p.Latitude(), "lon", p.Longitude())
		c.Done(&dialog.Response{Location: &models.Location{Point: models.NewGeoPoint(p.Latitude(), p.Longitude())}})
		return nil
	}

	c.Post(n.deps.Presenter.NativeLocation(n.deps.Strings.InvalidLocationResponseNative))
	c.Wait(nativePayload)

	return nil
}
