package mocks

import (
	"context"

	"github.com/UnknownOlympus/anchor/internal/models"
	"github.com/stretchr/testify/mock"
)

// Provider is a mock type for the geocoding.Provider type.
type Provider struct {
	mock.Mock
}

// Geocode provides a mock function with given fields: ctx, address.
func (_m *Provider) Geocode(ctx context.Context, address string) (*models.GeoPoint, error) {
	ret := _m.Called(ctx, address)

	var point *models.GeoPoint
	if fn, ok := ret.Get(0).(func(context.Context, string) *models.GeoPoint); ok {
		point = fn(ctx, address)
	} else if ret.Get(0) != nil {
		point = ret.Get(0).(*models.GeoPoint)
	}

	return point, ret.Error(1)
}

// NewProvider creates a new instance of Provider. It also registers a testing interface on the mock and a cleanup
// function to assert the mocks expectations.
func NewProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *Provider {
	m := &Provider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
