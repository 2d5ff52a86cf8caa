package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// LocationRequester is a mock type for the tracker.LocationRequester type.
type LocationRequester struct {
	mock.Mock
}

// RequestLocation provides a mock function with given fields: ctx.
func (_m *LocationRequester) RequestLocation(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}

// NewLocationRequester creates a new instance of LocationRequester. It also registers a testing interface on the
// mock and a cleanup function to assert the mocks expectations.
func NewLocationRequester(t interface {
	mock.TestingT
	Cleanup(func())
}) *LocationRequester {
	m := &LocationRequester{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
