package mocks

import (
	"context"
	"time"

	"github.com/UnknownOlympus/waypoint/internal/repository"
	mock "github.com/stretchr/testify/mock"
)

// Interface is a mock type for the repository Interface type.
type Interface struct {
	mock.Mock
}

// LoadSession provides a mock function with given fields: ctx, conversationID.
func (_m *Interface) LoadSession(ctx context.Context, conversationID string) (*repository.Session, error) {
	ret := _m.Called(ctx, conversationID)

	var r0 *repository.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*repository.Session)
	}

	return r0, ret.Error(1)
}

// SaveSession provides a mock function with given fields: ctx, session.
func (_m *Interface) SaveSession(ctx context.Context, session repository.Session) error {
	ret := _m.Called(ctx, session)

	return ret.Error(0)
}

// DeleteSession provides a mock function with given fields: ctx, conversationID.
func (_m *Interface) DeleteSession(ctx context.Context, conversationID string) error {
	ret := _m.Called(ctx, conversationID)

	return ret.Error(0)
}

// DeleteExpiredSessions provides a mock function with given fields: ctx, before.
func (_m *Interface) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	ret := _m.Called(ctx, before)

	return ret.Get(0).(int64), ret.Error(1)
}

// CountSessions provides a mock function with given fields: ctx.
func (_m *Interface) CountSessions(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)

	return ret.Int(0), ret.Error(1)
}

// SaveCapturedLocation provides a mock function with given fields: ctx, loc.
func (_m *Interface) SaveCapturedLocation(ctx context.Context, loc repository.CapturedLocation) error {
	ret := _m.Called(ctx, loc)

	return ret.Error(0)
}

// RecentLocations provides a mock function with given fields: ctx, conversationID, limit.
func (_m *Interface) RecentLocations(
	ctx context.Context,
	conversationID string,
	limit int,
) ([]repository.CapturedLocation, error) {
	ret := _m.Called(ctx, conversationID, limit)

	var r0 []repository.CapturedLocation
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]repository.CapturedLocation)
	}

	return r0, ret.Error(1)
}

// NewInterface creates a new instance of Interface. It also registers a testing interface on the mock
// and a cleanup function to assert the mocks expectations.
func NewInterface(t interface {
	mock.TestingT
	Cleanup(func())
}) *Interface {
	m := &Interface{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
