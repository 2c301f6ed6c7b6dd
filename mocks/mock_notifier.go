package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"semclass/internal/port"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBatchComplete(ctx context.Context, report port.BatchReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}
