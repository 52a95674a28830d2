// Package mocks provides test doubles for the peoplelookup client.
package mocks

import (
	"context"

	peoplelookup "github.com/sells-group/owner-resolver/pkg/peoplelookup"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Match provides a mock function with given fields: ctx, req
func (_m *MockClient) Match(ctx context.Context, req peoplelookup.MatchRequest) (*peoplelookup.MatchResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for Match")
	}

	var r0 *peoplelookup.MatchResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, peoplelookup.MatchRequest) (*peoplelookup.MatchResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, peoplelookup.MatchRequest) *peoplelookup.MatchResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*peoplelookup.MatchResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, peoplelookup.MatchRequest) error); ok {
		r1 = rf(ctx, req)
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
