package location

import (
	"context"
	"fmt"
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

const fieldsAnswer dialog.ResumePoint = "answer"

// RequiredFields asks, one per turn, for every field of Mask that is empty on the location.
type RequiredFields struct {
	Location     *models.Location      `json:"location"`
	Mask         models.RequiredFields `json:"mask"`
	CurrentField models.AddressField   `json:"current_field,omitempty"`
	LastAnswer   string                `json:"last_answer,omitempty"`

	deps *Dependencies
}

// NewRequiredFields creates a completion unit working on loc in place.
func NewRequiredFields(deps *Dependencies, loc *models.Location, mask models.RequiredFields) *RequiredFields {
	if loc == nil {
		loc = &models.Location{}
	}
	return &RequiredFields{Location: loc, Mask: mask, deps: deps}
}

func (f *RequiredFields) Kind() string { return KindFields }

func (f *RequiredFields) Start(ctx context.Context, c *dialog.Context) error {
	f.CurrentField = models.FieldNone
	f.LastAnswer = ""

	f.askNext(ctx, c)
	return nil
}

func (f *RequiredFields) Resume(ctx context.Context, c *dialog.Context, point dialog.ResumePoint, in dialog.Input) error {
	if point != fieldsAnswer || in.Message == nil {
		return dialog.UnknownPoint(f.Kind(), point)
	}

	if f.Location.Address == nil {
		f.Location.Address = &models.Address{}
	}
	f.LastAnswer = strings.TrimSpace(in.Message.Text)
	f.CurrentField.Set(f.Location.Address, f.LastAnswer)

	f.askNext(ctx, c)
	return nil
}

func (f *RequiredFields) askNext(ctx context.Context, c *dialog.Context) {
	strs := f.deps.Strings

	field, ok := models.NextMissing(f.Location.Address, f.Mask)
	if !ok {
		if f.LastAnswer != "" {
			// The provider's cached rendering no longer matches the edited address.
			f.Location.Address.FormattedAddress = ""
			f.Location.Address.FormattedAddress = f.Location.Address.Format(strs.AddressSeparator)
		}
		c.Done(&dialog.Response{Location: f.Location})
		return
	}

	f.CurrentField = field
	label := strs.FieldLabel(field)

	var prompt string
	switch {
	case f.LastAnswer != "":
		prompt = fmt.Sprintf(strs.AskForPrefix, f.LastAnswer) + fmt.Sprintf(strs.AskForTemplate, label)
	case strings.TrimSpace(f.Location.FormattedAddress(strs.AddressSeparator)) == "":
		prompt = fmt.Sprintf(strs.AskForEmptyAddressTemplate, label)
	default:
		prompt = fmt.Sprintf(strs.AskForPrefix, f.Location.FormattedAddress(strs.AddressSeparator)) +
			fmt.Sprintf(strs.AskForTemplate, label)
	}

	f.deps.Log.DebugContext(ctx, "Asking for address field", "field", field.String())

	c.Say(prompt)
	c.Wait(fieldsAnswer)
}
