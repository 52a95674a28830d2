// Package mocks provides test doubles for the socrata client.
package mocks

import (
	"context"

	socrata "github.com/sells-group/owner-resolver/pkg/socrata"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Query provides a mock function with given fields: ctx, dataset, params
func (_m *MockClient) Query(ctx context.Context, dataset string, params socrata.Params) ([]socrata.Record, error) {
	ret := _m.Called(ctx, dataset, params)

	if len(ret) == 0 {
		panic("no return value specified for Query")
	}

	var r0 []socrata.Record
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, socrata.Params) ([]socrata.Record, error)); ok {
		return rf(ctx, dataset, params)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, socrata.Params) []socrata.Record); ok {
		r0 = rf(ctx, dataset, params)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]socrata.Record)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, socrata.Params) error); ok {
		r1 = rf(ctx, dataset, params)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
