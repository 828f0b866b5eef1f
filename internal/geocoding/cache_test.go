package geocoding_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/UnknownOlympus/waypoint/internal/geocoding"
	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
	"github.com/UnknownOlympus/waypoint/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func springfield() []models.Location {
	return []models.Location{{
		Name:    "Springfield",
		Address: &models.Address{Locality: "Springfield", AdminDistrict: "IL"},
		Point:   models.NewGeoPoint(39.78, -89.65),
	}}
}

func TestCachedProvider_FindByQuery(t *testing.T) {
	ctx := t.Context()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		m := metrics.NewMetrics(prometheus.NewRegistry())
		inner := mocks.NewProvider(t)
		inner.On("FindByQuery", mock.Anything, "key", "Springfield").Return(springfield(), nil).Once()

		cached := geocoding.NewCachedProvider(inner, 10, m)

		first, err := cached.FindByQuery(ctx, "key", "Springfield")
		require.NoError(t, err)
		second, err := cached.FindByQuery(ctx, "key", "Springfield")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("forward", "hit")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("forward", "miss")), 0)
	})

	t.Run("cached entries are not shared", func(t *testing.T) {
		inner := mocks.NewProvider(t)
		inner.On("FindByQuery", mock.Anything, "key", "Springfield").Return(springfield(), nil).Once()

		cached := geocoding.NewCachedProvider(inner, 10, metrics.NewMetrics(prometheus.NewRegistry()))

		first, err := cached.FindByQuery(ctx, "key", "Springfield")
		require.NoError(t, err)
		first[0].Address.Locality = "Shelbyville"

		second, err := cached.FindByQuery(ctx, "key", "Springfield")
		require.NoError(t, err)
		assert.Equal(t, "Springfield", second[0].Address.Locality)
	})

	t.Run("empty results are not cached", func(t *testing.T) {
		inner := mocks.NewProvider(t)
		inner.On("FindByQuery", mock.Anything, "key", "nowhere").Return([]models.Location{}, nil).Twice()

		cached := geocoding.NewCachedProvider(inner, 10, metrics.NewMetrics(prometheus.NewRegistry()))

		for range 2 {
			locs, err := cached.FindByQuery(ctx, "key", "nowhere")
			require.NoError(t, err)
			assert.Empty(t, locs)
		}
	})

	t.Run("errors are returned and not cached", func(t *testing.T) {
		inner := mocks.NewProvider(t)
		inner.On("FindByQuery", mock.Anything, "key", "Springfield").
			Return(nil, geocoding.ErrUnavailable).Once()
		inner.On("FindByQuery", mock.Anything, "key", "Springfield").Return(springfield(), nil).Once()

		cached := geocoding.NewCachedProvider(inner, 10, metrics.NewMetrics(prometheus.NewRegistry()))

		_, err := cached.FindByQuery(ctx, "key", "Springfield")
		require.ErrorIs(t, err, geocoding.ErrUnavailable)

		locs, err := cached.FindByQuery(ctx, "key", "Springfield")
		require.NoError(t, err)
		assert.Len(t, locs, 1)
	})

	t.Run("least recently used entry is evicted", func(t *testing.T) {
		inner := mocks.NewProvider(t)
		inner.On("FindByQuery", mock.Anything, "key", "a").Return(springfield(), nil).Twice()
		inner.On("FindByQuery", mock.Anything, "key", "b").Return(springfield(), nil).Once()

		cached := geocoding.NewCachedProvider(inner, 1, metrics.NewMetrics(prometheus.NewRegistry()))

		for _, q := range []string{"a", "b", "a"} {
			_, err := cached.FindByQuery(ctx, "key", q)
			require.NoError(t, err)
		}
	})
}

// countingProvider counts upstream reverse lookups and blocks until released.
type countingProvider struct {
	geocoding.Provider
	calls   atomic.Int32
	release chan struct{}
}

func (c *countingProvider) FindByPoint(_ context.Context, _ string, _, _ float64) ([]models.Location, error) {
	c.calls.Add(1)
	<-c.release
	return springfield(), nil
}

func TestCachedProvider_SharedLookupIgnoresCallerCancellation(t *testing.T) {
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	inner := mocks.NewProvider(t)
	inner.On("FindByQuery", live, "key", "Springfield").Return(springfield(), nil).Once()
	inner.On("FindByPoint", live, "key", 39.78, -89.65).Return(springfield(), nil).Once()
	cached := geocoding.NewCachedProvider(inner, 10, metrics.NewMetrics(prometheus.NewRegistry()))

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()

	locs, err := cached.FindByQuery(cancelled, "key", "Springfield")
	require.NoError(t, err)
	assert.Len(t, locs, 1)
	locs, err = cached.FindByPoint(cancelled, "key", 39.78, -89.65)
	require.NoError(t, err)
	assert.Len(t, locs, 1)

	// Later callers get the stored result without another upstream call.
	_, err = cached.FindByQuery(t.Context(), "key", "Springfield")
	require.NoError(t, err)
	_, err = cached.FindByPoint(t.Context(), "key", 39.78, -89.65)
	require.NoError(t, err)
}

func TestCachedProvider_FindByPointDeduplicates(t *testing.T) {
	inner := &countingProvider{release: make(chan struct{})}
	cached := geocoding.NewCachedProvider(inner, 10, metrics.NewMetrics(prometheus.NewRegistry()))

	const callers = 5
	var wg sync.WaitGroup
	started := make(chan struct{}, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			locs, err := cached.FindByPoint(t.Context(), "key", 39.78, -89.65)
			assert.NoError(t, err)
			assert.Len(t, locs, 1)
		}()
	}
	for range callers {
		<-started
	}
	close(inner.release)
	wg.Wait()

	assert.LessOrEqual(t, inner.calls.Load(), int32(callers))
	assert.GreaterOrEqual(t, inner.calls.Load(), int32(1))

	// Result is cached now.
	_, err := cached.FindByPoint(t.Context(), "key", 39.78, -89.65)
	require.NoError(t, err)
	assert.LessOrEqual(t, inner.calls.Load(), int32(callers))
}
