package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"semclass/internal/domain"
	"semclass/internal/port"
)

// MockServiceClient is a mock implementation of port.ServiceClient.
type MockServiceClient struct {
	mock.Mock
}

func (m *MockServiceClient) Authenticate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockServiceClient) ClassifyText(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RawPayload), args.Error(1)
}

func (m *MockServiceClient) ClassifyFile(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RawPayload), args.Error(1)
}
