package mocks

import (
	"context"

	"github.com/UnknownOlympus/anchor/internal/placement"
	"github.com/stretchr/testify/mock"
)

// Renderer is a mock type for the placement.Renderer type.
type Renderer struct {
	mock.Mock
}

// AddNode provides a mock function with given fields: ctx, update.
func (_m *Renderer) AddNode(ctx context.Context, update placement.Update) error {
	ret := _m.Called(ctx, update)
	return ret.Error(0)
}

// UpdateNode provides a mock function with given fields: ctx, update.
func (_m *Renderer) UpdateNode(ctx context.Context, update placement.Update) error {
	ret := _m.Called(ctx, update)
	return ret.Error(0)
}

// NewRenderer creates a new instance of Renderer. It also registers a testing interface on the mock and a cleanup
// function to assert the mocks expectations.
func NewRenderer(t interface {
	mock.TestingT
	Cleanup(func())
}) *Renderer {
	m := &Renderer{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
