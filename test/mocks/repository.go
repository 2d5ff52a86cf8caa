package mocks

import (
	"context"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/stretchr/testify/mock"
)

// Interface is a mock type for the repository.Interface type.
type Interface struct {
	mock.Mock
}

// FetchReferencePoints provides a mock function with given fields: ctx, anchor.
func (_m *Interface) FetchReferencePoints(ctx context.Context, anchor string) ([]models.ReferencePoint, error) {
	ret := _m.Called(ctx, anchor)

	var points []models.ReferencePoint
	if ret.Get(0) != nil {
		points = ret.Get(0).([]models.ReferencePoint)
	}

	return points, ret.Error(1)
}

// UpdateReferenceCoordinates provides a mock function with given fields: ctx, pointID, point.
func (_m *Interface) UpdateReferenceCoordinates(ctx context.Context, pointID int, point models.GeoPoint) error {
	ret := _m.Called(ctx, pointID, point)
	return ret.Error(0)
}

// IncrementFailureCount provides a mock function with given fields: ctx, pointID, errMsg.
func (_m *Interface) IncrementFailureCount(ctx context.Context, pointID int, errMsg string) error {
	ret := _m.Called(ctx, pointID, errMsg)
	return ret.Error(0)
}

// SavePlacement provides a mock function with given fields: ctx, record.
func (_m *Interface) SavePlacement(ctx context.Context, record models.PlacementRecord) error {
	ret := _m.Called(ctx, record)
	return ret.Error(0)
}

// NewInterface creates a new instance of Interface. It also registers a testing interface on the mock and a cleanup
// function to assert the mocks expectations.
func NewInterface(t interface {
	mock.TestingT
	Cleanup(func())
}) *Interface {
	m := &Interface{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
