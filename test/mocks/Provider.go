package mocks

import (
	"context"

	"github.com/UnknownOlympus/waypoint/internal/models"
	mock "github.com/stretchr/testify/mock"
)

// Provider is a mock type for the geocoding Provider type.
type Provider struct {
	mock.Mock
}

// FindByQuery provides a mock function with given fields: ctx, apiKey, query.
func (_m *Provider) FindByQuery(ctx context.Context, apiKey string, query string) ([]models.Location, error) {
	ret := _m.Called(ctx, apiKey, query)

	var r0 []models.Location
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Location)
	}

	return r0, ret.Error(1)
}

// FindByPoint provides a mock function with given fields: ctx, apiKey, lat, lon.
func (_m *Provider) FindByPoint(ctx context.Context, apiKey string, lat float64, lon float64) ([]models.Location, error) {
	ret := _m.Called(ctx, apiKey, lat, lon)

	var r0 []models.Location
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Location)
	}

	return r0, ret.Error(1)
}

// MapImageURL provides a mock function with given fields: apiKey, loc, pin.
func (_m *Provider) MapImageURL(apiKey string, loc models.Location, pin int) (string, error) {
	ret := _m.Called(apiKey, loc, pin)

	return ret.String(0), ret.Error(1)
}

// Directions provides a mock function with given fields: ctx, apiKey, to, from.
func (_m *Provider) Directions(ctx context.Context, apiKey string, to string, from string) (*models.Route, error) {
	ret := _m.Called(ctx, apiKey, to, from)

	var r0 *models.Route
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Route)
	}

	return r0, ret.Error(1)
}

// NewProvider creates a new instance of Provider. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
