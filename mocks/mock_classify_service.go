package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"semclass/internal/service"
)

// MockClassifyService is a mock implementation of service.ClassifyService.
type MockClassifyService struct {
	mock.Mock
}

func (m *MockClassifyService) Classify(ctx context.Context, input service.ClassifyInput) (*service.ClassifyResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ClassifyResult), args.Error(1)
}
