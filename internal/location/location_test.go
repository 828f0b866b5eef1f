package location_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/dialog"
	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/location"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/internal/resources"
	"github.com/UnknownOlympus/waypoint/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	apiKey = "test-api-key"
	prompt = "Where should we deliver?"
)

// fakePresenter renders replies as plain text and remembers every carousel.
type fakePresenter struct {
	carousels [][]models.Location
}

func (f *fakePresenter) Carousel(_ string, locs []models.Location) dialog.Reply {
	f.carousels = append(f.carousels, locs)
	return dialog.Reply{Text: fmt.Sprintf("carousel:%d", len(locs))}
}

func (f *fakePresenter) Keyboard(locs []models.Location, text, _ string) dialog.Reply {
	return dialog.Reply{Text: fmt.Sprintf("keyboard:%d:%s", len(locs), text)}
}

func (f *fakePresenter) Confirmation(text, _, _ string) dialog.Reply {
	return dialog.Reply{Text: "confirm:" + text}
}

func (f *fakePresenter) NativeLocation(text string) dialog.Reply {
	return dialog.Reply{Text: text, RequestLocation: true}
}

type harness struct {
	engine    *dialog.Engine
	provider  *mocks.Provider
	presenter *fakePresenter
	deps      *location.Dependencies
	strs      *resources.Strings
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		provider:  mocks.NewProvider(t),
		presenter: &fakePresenter{},
		strs:      resources.Default(),
	}
	h.deps = &location.Dependencies{
		Provider:  h.provider,
		Presenter: h.presenter,
		Strings:   h.strs,
		Log:       log,
	}

	registry := dialog.NewRegistry()
	location.Register(registry, h.deps)
	h.engine = dialog.NewEngine(h.strs, registry, log)

	return h
}

func (h *harness) start(t *testing.T, opts location.Options) (*dialog.Stack, dialog.Turn) {
	t.Helper()

	root, err := location.New(opts, h.deps)
	require.NoError(t, err)
	stack, turn, err := h.engine.Start(t.Context(), root)
	require.NoError(t, err)

	return stack, turn
}

func (h *harness) send(t *testing.T, stack *dialog.Stack, text string) dialog.Turn {
	t.Helper()

	turn, err := h.engine.Resume(t.Context(), stack, dialog.Message{Text: text})
	require.NoError(t, err)

	return turn
}

func texts(turn dialog.Turn) []string {
	out := make([]string, 0, len(turn.Replies))
	for _, r := range turn.Replies {
		out = append(out, r.Text)
	}
	return out
}

func defaultOptions() location.Options {
	return location.Options{APIKey: apiKey, ChannelID: "webchat", Prompt: prompt}
}

func mainStreet() models.Location {
	return models.Location{
		Name: "123 Main St",
		Address: &models.Address{
			AddressLine:      "123 Main St",
			Locality:         "Springfield",
			AdminDistrict:    "IL",
			PostalCode:       "62701",
			CountryRegion:    "United States",
			FormattedAddress: "123 Main St, Springfield, IL 62701",
		},
		Point: models.NewGeoPoint(39.78, -89.65),
	}
}

func springfields(n int) []models.Location {
	locs := make([]models.Location, n)
	for i := range locs {
		locs[i] = models.Location{
			Name:    fmt.Sprintf("Springfield %d", i+1),
			Address: &models.Address{Locality: "Springfield", AdminDistrict: fmt.Sprintf("S%d", i+1)},
			Point:   models.NewGeoPoint(float64(i), float64(i)),
		}
	}
	return locs
}

func TestLocation_SingleCandidateConfirmed(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()

	stack, turn := h.start(t, defaultOptions())
	assert.Equal(t, []string{prompt + h.strs.TitleSuffix}, texts(turn))
	assert.Equal(t, 2, stack.Depth())

	turn = h.send(t, stack, "123 Main St")
	assert.Equal(t, []string{"carousel:1", h.strs.SingleResultFound}, texts(turn))

	turn = h.send(t, stack, "yes")
	assert.True(t, turn.Done)
	assert.Empty(t, turn.Replies)
	require.NotNil(t, turn.Result)
	assert.Equal(t, mainStreet(), *turn.Result.Location)
	assert.Equal(t, 0, stack.Depth())
}

func TestLocation_SelectFromSeveral(t *testing.T) {
	h := newHarness(t)
	candidates := springfields(3)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(candidates, nil).Once()

	stack, _ := h.start(t, defaultOptions())

	turn := h.send(t, stack, "Springfield")
	assert.Equal(t, []string{"carousel:3", h.strs.MultipleResultsFound}, texts(turn))

	turn = h.send(t, stack, "2")
	assert.True(t, turn.Done)
	assert.Equal(t, candidates[1], *turn.Result.Location)
}

func TestLocation_SelectionEdgeCases(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(springfields(7), nil).Once()

	stack, _ := h.start(t, location.Options{APIKey: apiKey, ChannelID: "telegram", Prompt: prompt})

	turn := h.send(t, stack, "Springfield")
	assert.Equal(t, []string{"carousel:5", "keyboard:5:" + h.strs.MultipleResultsFound}, texts(turn))
	require.Len(t, h.presenter.carousels, 1)
	assert.Equal(t, springfields(5), h.presenter.carousels[0])

	for _, invalid := range []string{"0", "-1", "6", "two", ""} {
		turn = h.send(t, stack, invalid)
		assert.Equal(t, []string{h.strs.InvalidLocationResponse}, texts(turn), "input %q", invalid)
		assert.False(t, turn.Done)
	}

	turn = h.send(t, stack, "help")
	assert.Equal(t, []string{h.strs.HelpMessage}, texts(turn))

	turn = h.send(t, stack, "5")
	require.True(t, turn.Done)
	assert.Equal(t, "Springfield 5", turn.Result.Location.Name)
}

func TestLocation_Other(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(springfields(3), nil).Once()

	stack, _ := h.start(t, defaultOptions())
	h.send(t, stack, "Springfield")

	turn := h.send(t, stack, "OTHER")

	require.True(t, turn.Done)
	require.NotNil(t, turn.Result.Location)
	assert.Nil(t, turn.Result.Location.Address)
	assert.Nil(t, turn.Result.Location.Point)
}

func TestLocation_NotFound(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "nowhere").Return([]models.Location{}, nil).Once()
	h.provider.On("FindByQuery", mock.Anything, apiKey, "flaky").Return(nil, geocoding.ErrUnavailable).Once()

	stack, _ := h.start(t, defaultOptions())

	turn := h.send(t, stack, "nowhere")
	assert.Equal(t, []string{h.strs.LocationNotFound}, texts(turn))

	turn = h.send(t, stack, "flaky")
	assert.Equal(t, []string{h.strs.LocationNotFound}, texts(turn))
	assert.Equal(t, 2, stack.Depth())
}

func TestLocation_UnauthorizedIsConfigError(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(nil, geocoding.ErrUnauthorized).Once()

	stack, _ := h.start(t, defaultOptions())

	_, err := h.engine.Resume(t.Context(), stack, dialog.Message{Text: "Springfield"})

	require.ErrorIs(t, err, location.ErrConfig)
	require.ErrorIs(t, err, geocoding.ErrUnauthorized)
}

func TestLocation_Confirmation(t *testing.T) {
	t.Run("no restarts the query", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()

		stack, _ := h.start(t, defaultOptions())
		h.send(t, stack, "123 Main St")

		turn := h.send(t, stack, "nope")
		assert.Equal(t, []string{prompt + h.strs.TitleSuffix}, texts(turn))
		assert.False(t, turn.Done)
	})

	t.Run("third invalid answer restarts the query", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Twice()

		stack, _ := h.start(t, defaultOptions())
		h.send(t, stack, "123 Main St")

		assert.Equal(t, []string{h.strs.ConfirmationInvalidResponse}, texts(h.send(t, stack, "maybe")))
		assert.Equal(t, []string{h.strs.ConfirmationInvalidResponse}, texts(h.send(t, stack, "perhaps")))
		assert.Equal(t, []string{prompt + h.strs.TitleSuffix}, texts(h.send(t, stack, "dunno")))

		// The counter starts over with the new candidate.
		h.send(t, stack, "123 Main St")
		assert.Equal(t, []string{h.strs.ConfirmationInvalidResponse}, texts(h.send(t, stack, "maybe")))
	})

	t.Run("keyboard channel gets buttons", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()

		stack, _ := h.start(t, location.Options{APIKey: apiKey, ChannelID: "facebook", Prompt: prompt})

		turn := h.send(t, stack, "123 Main St")
		assert.Equal(t, []string{"carousel:1", "confirm:" + h.strs.SingleResultFound}, texts(turn))
	})
}

func TestLocation_RequiredFields(t *testing.T) {
	t.Run("asks only the masked empty fields in order", func(t *testing.T) {
		h := newHarness(t)
		candidate := models.Location{Address: &models.Address{Locality: "Springfield", AdminDistrict: "IL"}}
		h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return([]models.Location{candidate}, nil).Once()

		opts := defaultOptions()
		opts.RequiredFields = models.RequiredPostalCode | models.RequiredCountry
		stack, _ := h.start(t, opts)
		h.send(t, stack, "Springfield")

		turn := h.send(t, stack, "yes")
		assert.Equal(t, []string{
			"OK, so far your address is Springfield, IL. Please also provide the zip or postal code.",
		}, texts(turn))
		assert.Equal(t, 2, stack.Depth())
		assert.Equal(t, location.KindFields, stack.Top().Kind)

		turn = h.send(t, stack, "62701")
		assert.Equal(t, []string{"OK, so far your address is 62701. Please also provide the country."}, texts(turn))

		turn = h.send(t, stack, "USA")
		require.True(t, turn.Done)
		addr := turn.Result.Location.Address
		assert.Equal(t, "62701", addr.PostalCode)
		assert.Equal(t, "USA", addr.CountryRegion)
		assert.Empty(t, addr.AddressLine)
		assert.Equal(t, "Springfield, IL, 62701, USA", addr.FormattedAddress)
	})

	t.Run("empty location uses the empty address template", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(springfields(2), nil).Once()

		opts := defaultOptions()
		opts.RequiredFields = models.RequiredStreetAddress
		stack, _ := h.start(t, opts)
		h.send(t, stack, "Springfield")

		turn := h.send(t, stack, "other")
		assert.Equal(t, []string{"Please provide the street address."}, texts(turn))

		turn = h.send(t, stack, "742 Evergreen Terrace")
		require.True(t, turn.Done)
		assert.Equal(t, "742 Evergreen Terrace", turn.Result.Location.Address.AddressLine)
	})

	t.Run("pre-filled fields are skipped", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()

		opts := defaultOptions()
		opts.RequiredFields = models.RequiredAll
		stack, _ := h.start(t, opts)
		h.send(t, stack, "123 Main St")

		turn := h.send(t, stack, "yes")
		require.True(t, turn.Done)
		assert.Empty(t, turn.Replies)
		assert.Equal(t, mainStreet(), *turn.Result.Location)
	})

	t.Run("mask none finishes on the first turn", func(t *testing.T) {
		h := newHarness(t)
		loc := &models.Location{Name: "somewhere"}

		_, turn, err := h.engine.Start(t.Context(), location.NewRequiredFields(h.deps, loc, models.RequiredNone))

		require.NoError(t, err)
		assert.True(t, turn.Done)
		assert.Empty(t, turn.Replies)
		assert.Equal(t, &models.Location{Name: "somewhere"}, turn.Result.Location)
	})

	t.Run("cancel inside the completion unit tears everything down", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(springfields(2), nil).Once()

		opts := defaultOptions()
		opts.RequiredFields = models.RequiredCountry
		stack, _ := h.start(t, opts)
		h.send(t, stack, "Springfield")
		h.send(t, stack, "1")
		require.Equal(t, location.KindFields, stack.Top().Kind)

		turn := h.send(t, stack, "cancel")

		assert.True(t, turn.Done)
		assert.Nil(t, turn.Result)
		assert.Equal(t, 0, stack.Depth())
		assert.Equal(t, []string{h.strs.CancelPrompt}, texts(turn))
	})

	t.Run("reset in a nested unit restarts the capture", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(springfields(2), nil).Twice()

		opts := defaultOptions()
		opts.RequiredFields = models.RequiredCountry | models.RequiredStreetAddress
		stack, _ := h.start(t, opts)
		h.send(t, stack, "Springfield")
		h.send(t, stack, "1")
		require.Equal(t, location.KindFields, stack.Top().Kind)

		turn := h.send(t, stack, "reset")
		assert.Equal(t, []string{h.strs.ResetPrompt, prompt + h.strs.TitleSuffix}, texts(turn))
		assert.Equal(t, location.KindResolver, stack.Top().Kind)

		// The completion unit runs again for the new candidate.
		h.send(t, stack, "Springfield")
		turn = h.send(t, stack, "2")
		assert.Equal(t, location.KindFields, stack.Top().Kind)
		assert.False(t, turn.Done)
	})
}

func TestLocation_NativeCapture(t *testing.T) {
	nativeOptions := func() location.Options {
		return location.Options{
			APIKey:           apiKey,
			ChannelID:        "facebook",
			Prompt:           prompt,
			UseNativeControl: true,
			ReverseGeocode:   true,
		}
	}

	t.Run("reverse geocoding never copies the street line", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByPoint", mock.Anything, apiKey, 50.45, 30.52).Return([]models.Location{{
			Address: &models.Address{
				AddressLine:   "1 Khreshchatyk St",
				Locality:      "Kyiv",
				PostalCode:    "01001",
				CountryRegion: "Ukraine",
			},
		}}, nil).Once()

		stack, turn := h.start(t, nativeOptions())
		require.Len(t, turn.Replies, 1)
		assert.True(t, turn.Replies[0].RequestLocation)
		assert.Equal(t, prompt+h.strs.TitleSuffixNative, turn.Replies[0].Text)

		turn = h.send(t, stack, "somewhere near the river")
		require.Len(t, turn.Replies, 1)
		assert.Equal(t, h.strs.InvalidLocationResponseNative, turn.Replies[0].Text)
		assert.True(t, turn.Replies[0].RequestLocation)

		turn, err := h.engine.Resume(t.Context(), stack, dialog.Message{Point: models.NewGeoPoint(50.45, 30.52)})
		require.NoError(t, err)
		require.True(t, turn.Done)

		loc := turn.Result.Location
		assert.Equal(t, models.NewGeoPoint(50.45, 30.52), loc.Point)
		require.NotNil(t, loc.Address)
		assert.Empty(t, loc.Address.AddressLine)
		assert.Equal(t, "Kyiv", loc.Address.Locality)
		assert.Equal(t, "01001", loc.Address.PostalCode)
		assert.Equal(t, "Ukraine", loc.Address.CountryRegion)
	})

	t.Run("reverse geocoding errors are ignored", func(t *testing.T) {
		h := newHarness(t)
		h.provider.On("FindByPoint", mock.Anything, apiKey, 1.0, 2.0).Return(nil, geocoding.ErrUnavailable).Once()

		stack, _ := h.start(t, nativeOptions())
		turn, err := h.engine.Resume(t.Context(), stack, dialog.Message{Point: models.NewGeoPoint(1, 2)})

		require.NoError(t, err)
		require.True(t, turn.Done)
		assert.Nil(t, turn.Result.Location.Address)
	})

	t.Run("native control is ignored on other channels", func(t *testing.T) {
		h := newHarness(t)
		opts := nativeOptions()
		opts.ChannelID = "webchat"

		_, turn := h.start(t, opts)

		assert.Equal(t, []string{prompt + h.strs.TitleSuffix}, texts(turn))
		assert.False(t, turn.Replies[0].RequestLocation)
	})
}

func TestLocation_ReverseGeocodeSkippedWithAddress(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()

	opts := defaultOptions()
	opts.ReverseGeocode = true
	stack, _ := h.start(t, opts)
	h.send(t, stack, "123 Main St")
	turn := h.send(t, stack, "yes")

	require.True(t, turn.Done)
	h.provider.AssertNotCalled(t, "FindByPoint", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLocation_Directions(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()
	h.provider.On("Directions", mock.Anything, apiKey, "123 Main St, Springfield, IL 62701", "1 Depot Rd").
		Return(&models.Route{
			DistanceKm: 12.34,
			Duration:   75 * time.Minute,
			Steps: []models.RouteStep{
				{Instruction: "Head north on Depot Rd", DistanceKm: 1.2},
				{Instruction: "Arrive"},
			},
		}, nil).Once()

	opts := defaultOptions()
	opts.DirectionsFrom = "1 Depot Rd"
	stack, _ := h.start(t, opts)
	h.send(t, stack, "123 Main St")

	turn := h.send(t, stack, "yes")

	require.True(t, turn.Done)
	assert.Equal(t, []string{
		"You are 12.3 km away, and it will take 1 h 15 min to get to your location.",
		"1. Head north on Depot Rd (1.2 km)\n2. Arrive",
	}, texts(turn))
}

func TestLocation_DirectionsUnsupported(t *testing.T) {
	h := newHarness(t)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "123 Main St").Return([]models.Location{mainStreet()}, nil).Once()
	h.provider.On("Directions", mock.Anything, apiKey, mock.Anything, "1 Depot Rd").
		Return(nil, geocoding.ErrUnsupported).Once()

	opts := defaultOptions()
	opts.DirectionsFrom = "1 Depot Rd"
	stack, _ := h.start(t, opts)
	h.send(t, stack, "123 Main St")

	turn := h.send(t, stack, "yes")

	require.True(t, turn.Done)
	assert.Empty(t, turn.Replies)
	assert.NotNil(t, turn.Result.Location)
}

func TestLocation_SnapshotMidSelection(t *testing.T) {
	h := newHarness(t)
	candidates := springfields(3)
	h.provider.On("FindByQuery", mock.Anything, apiKey, "Springfield").Return(candidates, nil).Once()

	opts := defaultOptions()
	opts.RequiredFields = models.RequiredPostalCode
	stack, _ := h.start(t, opts)
	h.send(t, stack, "Springfield")

	data, err := h.engine.Marshal(stack)
	require.NoError(t, err)
	restored, err := h.engine.Unmarshal(data)
	require.NoError(t, err)

	turn := h.send(t, restored, "3")
	assert.Equal(t, []string{
		"OK, so far your address is Springfield, S3. Please also provide the zip or postal code.",
	}, texts(turn))

	data, err = h.engine.Marshal(restored)
	require.NoError(t, err)
	restored, err = h.engine.Unmarshal(data)
	require.NoError(t, err)

	turn = h.send(t, restored, "12345")
	require.True(t, turn.Done)
	assert.Equal(t, "Springfield 3", turn.Result.Location.Name)
	assert.Equal(t, "12345", turn.Result.Location.Address.PostalCode)
	assert.Equal(t, candidates[2].Point, turn.Result.Location.Point)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    location.Options
		wantErr bool
	}{
		{"valid", location.Options{APIKey: apiKey, Prompt: prompt, RequiredFields: models.RequiredAll}, false},
		{"missing prompt", location.Options{APIKey: apiKey}, true},
		{"missing api key", location.Options{Prompt: prompt}, true},
		{"blank api key", location.Options{APIKey: "  ", Prompt: prompt}, true},
		{"unknown field bits", location.Options{APIKey: apiKey, Prompt: prompt, RequiredFields: models.RequiredFields(0x80)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := location.New(tt.opts, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, location.ErrConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestChannelCapabilities(t *testing.T) {
	assert.True(t, location.SupportsNativeLocation("Facebook"))
	assert.False(t, location.SupportsNativeLocation("telegram"))
	assert.True(t, location.SupportsKeyboard("telegram"))
	assert.False(t, location.SupportsKeyboard("webchat"))
}
