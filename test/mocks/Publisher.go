package mocks

import (
	"context"

	"github.com/UnknownOlympus/waypoint/internal/events"
	mock "github.com/stretchr/testify/mock"
)

// Publisher is a mock type for the events Publisher type.
type Publisher struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, event.
func (_m *Publisher) Publish(ctx context.Context, event events.LocationCaptured) error {
	ret := _m.Called(ctx, event)

	return ret.Error(0)
}

// Close provides a mock function with no fields.
func (_m *Publisher) Close() error {
	ret := _m.Called()

	return ret.Error(0)
}

// NewPublisher creates a new instance of Publisher. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *Publisher {
	m := &Publisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
