// Package cards renders location candidates as channel replies.
package cards

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// MapImager builds static map image URLs.
type MapImager interface {
	MapImageURL(apiKey string, loc models.Location, pin int) (string, error)
}

// Presenter is the default card renderer.
type Presenter struct {
	maps      MapImager
	separator string
	log       *slog.Logger
}

// NewPresenter creates a presenter. separator joins address parts when the provider gave no formatted address.
func NewPresenter(maps MapImager, separator string, log *slog.Logger) *Presenter {
	return &Presenter{maps: maps, separator: separator, log: log}
}

// Carousel renders one hero card per candidate, numbered when there are several.
func (p *Presenter) Carousel(apiKey string, locs []models.Location) dialog.Reply {
	cards := make([]dialog.Card, 0, len(locs))
	for i := range locs {
		loc := &locs[i]
		pin := i + 1

		subtitle := loc.FormattedAddress(p.separator)
		if subtitle == "" {
			subtitle = loc.Name
		}
		if len(locs) > 1 {
			subtitle = fmt.Sprintf("%d. %s", pin, subtitle)
		}

		card := dialog.Card{Subtitle: subtitle}
		if loc.HasPoint() {
			url, err := p.maps.MapImageURL(apiKey, *loc, pin)
			if err != nil {
				p.log.Debug("Skipping map image", "pin", pin, "error", err)
			} else {
				card.ImageURL = url
			}
		}
		cards = append(cards, card)
	}

	return dialog.Reply{Layout: dialog.LayoutCarousel, Cards: cards}
}

// Keyboard renders numbered buttons for the candidates and, when other is set, a manual entry button.
func (p *Presenter) Keyboard(locs []models.Location, text, other string) dialog.Reply {
	buttons := make([]dialog.Button, 0, len(locs)+1)
	for i := range locs {
		n := strconv.Itoa(i + 1)
		buttons = append(buttons, dialog.Button{Title: n, Value: n})
	}
	if other != "" {
		buttons = append(buttons, dialog.Button{Title: other, Value: other})
	}

	return dialog.Reply{Text: text, Layout: dialog.LayoutList, Buttons: buttons}
}

// Confirmation renders a yes/no question as two buttons.
func (p *Presenter) Confirmation(text, yes, no string) dialog.Reply {
	return dialog.Reply{
		Text:    text,
		Layout:  dialog.LayoutList,
		Buttons: []dialog.Button{{Title: yes, Value: yes}, {Title: no, Value: no}},
	}
}

// NativeLocation asks the channel to show its location picker.
func (p *Presenter) NativeLocation(text string) dialog.Reply {
	return dialog.Reply{Text: text, RequestLocation: true}
}
