package geocoding

import (
	"context"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/metrics"
	"github.com/UnknownOlympus/waypoint/internal/models"
)

// InstrumentedProvider records request durations and errors of the wrapped provider.
type InstrumentedProvider struct {
	Provider
	name    string
	metrics *metrics.Metrics
}

// NewInstrumentedProvider wraps inner; name labels the metrics.
func NewInstrumentedProvider(inner Provider, name string, m *metrics.Metrics) *InstrumentedProvider {
	return &InstrumentedProvider{Provider: inner, name: name, metrics: m}
}

func (ip *InstrumentedProvider) FindByQuery(ctx context.Context, apiKey, query string) ([]models.Location, error) {
	defer ip.observe("forward", time.Now())
	res, err := ip.Provider.FindByQuery(ctx, apiKey, query)
	ip.countError("forward", err)
	return res, err
}

func (ip *InstrumentedProvider) FindByPoint(ctx context.Context, apiKey string, lat, lon float64) ([]models.Location, error) {
	defer ip.observe("reverse", time.Now())
	res, err := ip.Provider.FindByPoint(ctx, apiKey, lat, lon)
	ip.countError("reverse", err)
	return res, err
}

func (ip *InstrumentedProvider) Directions(ctx context.Context, apiKey, to, from string) (*models.Route, error) {
	defer ip.observe("directions", time.Now())
	res, err := ip.Provider.Directions(ctx, apiKey, to, from)
	ip.countError("directions", err)
	return res, err
}

func (ip *InstrumentedProvider) observe(method string, start time.Time) {
	ip.metrics.RequestSeconds.WithLabelValues(ip.name, method).Observe(time.Since(start).Seconds())
}

func (ip *InstrumentedProvider) countError(method string, err error) {
	if err != nil {
		ip.metrics.APIErrors.WithLabelValues(ip.name, method).Inc()
	}
}
