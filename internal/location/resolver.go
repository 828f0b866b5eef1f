package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/resources"
)

const (
	resolverQuery        dialog.ResumePoint = "query"
	resolverConfirmation dialog.ResumePoint = "confirmation"
	resolverSelection    dialog.ResumePoint = "selection"
)

// maxConfirmationAttempts is the number of invalid yes/no answers that restart the resolver.
const maxConfirmationAttempts = 3

// Resolver turns a free text query into one of the geocoder's candidates.
type Resolver struct {
	APIKey           string            `json:"api_key"`
	Prompt           string            `json:"prompt"`
	SupportsKeyboard bool              `json:"supports_keyboard,omitempty"`
	Candidates       []models.Location `json:"candidates,omitempty"`
	Attempts         int               `json:"attempts,omitempty"`

	deps *Dependencies
}

// NewResolver creates a resolver unit.
func NewResolver(deps *Dependencies, apiKey, prompt string, supportsKeyboard bool) *Resolver {
	return &Resolver{
		APIKey:           apiKey,
		Prompt:           prompt,
		SupportsKeyboard: supportsKeyboard,
		deps:             deps,
	}
}

func (r *Resolver) Kind() string { return KindResolver }

// Start clears the candidates and asks for an address.
func (r *Resolver) Start(_ context.Context, c *dialog.Context) error {
	r.Candidates = nil
	r.Attempts = 0

	c.Say(r.Prompt + r.deps.Strings.TitleSuffix)
	c.Wait(resolverQuery)

	return nil
}

func (r *Resolver) Resume(ctx context.Context, c *dialog.Context, point dialog.ResumePoint, in dialog.Input) error {
	if in.Message == nil {
		return dialog.UnknownPoint(r.Kind(), point)
	}
	text := strings.TrimSpace(in.Message.Text)

	switch point {
	case resolverQuery:
		return r.resolve(ctx, c, text)
	case resolverConfirmation:
		r.confirm(c, text)
	case resolverSelection:
		r.selectCandidate(c, text)
	default:
		return dialog.UnknownPoint(r.Kind(), point)
	}

	return nil
}

func (r *Resolver) resolve(ctx context.Context, c *dialog.Context, query string) error {
	strs := r.deps.Strings

	if query == "" {
		c.Say(strs.LocationNotFound)
		c.Wait(resolverQuery)
		return nil
	}

	locs, err := r.deps.Provider.FindByQuery(ctx, r.APIKey, query)
	if err != nil {
		if errors.Is(err, geocoding.ErrUnauthorized) {
			return fmt.Errorf("%w: geocoding provider rejected the API key: %w", ErrConfig, err)
		}
		r.deps.Log.WarnContext(ctx, "Geocoding failed, reporting location as not found", "query", query, "error", err)
		locs = nil
	}
	if len(locs) == 0 {
		c.Say(strs.LocationNotFound)
		c.Wait(resolverQuery)
		return nil
	}

	if len(locs) > geocoding.MaxCandidates {
		locs = locs[:geocoding.MaxCandidates]
	}
	r.Candidates = make([]models.Location, len(locs))
	for i := range locs {
		r.Candidates[i] = *locs[i].Clone()
	}

	r.deps.Log.DebugContext(ctx, "Candidates found", "query", query, "count", len(r.Candidates))

	c.Post(r.deps.Presenter.Carousel(r.APIKey, r.Candidates))

	if len(r.Candidates) == 1 {
		if r.SupportsKeyboard {
			c.Post(r.deps.Presenter.Confirmation(strs.SingleResultFound, firstToken(strs.YesTokens), firstToken(strs.NoTokens)))
		} else {
			c.Say(strs.SingleResultFound)
		}
		c.Wait(resolverConfirmation)
		return nil
	}

	if r.SupportsKeyboard {
		c.Post(r.deps.Presenter.Keyboard(r.Candidates, strs.MultipleResultsFound, strs.OtherCommand))
	} else {
		c.Say(strs.MultipleResultsFound)
	}
	c.Wait(resolverSelection)

	return nil
}

func (r *Resolver) confirm(c *dialog.Context, answer string) {
	strs := r.deps.Strings

	switch {
	case strs.IsYes(answer):
		c.Done(&dialog.Response{Location: r.Candidates[0].Clone()})
	case strs.IsNo(answer):
		c.Restart()
	default:
		r.Attempts++
		if r.Attempts >= maxConfirmationAttempts {
			c.Restart()
			return
		}
		c.Say(strs.ConfirmationInvalidResponse)
		c.Wait(resolverConfirmation)
	}
}

func (r *Resolver) selectCandidate(c *dialog.Context, answer string) {
	if n, err := strconv.Atoi(answer); err == nil && n > 0 && n <= len(r.Candidates) {
		c.Done(&dialog.Response{Location: r.Candidates[n-1].Clone()})
		return
	}

	if resources.Is(answer, r.deps.Strings.OtherCommand) {
		// An empty location sends the caller into manual field entry.
		c.Done(&dialog.Response{Location: &models.Location{}})
		return
	}

	c.Say(r.deps.Strings.InvalidLocationResponse)
	c.Wait(resolverSelection)
}

func firstToken(list string) string {
	tok, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(tok)
}
