package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"semclass/internal/domain"
	"semclass/internal/port"
)

// MockClassifier is a mock implementation of port.Classifier.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.RawPayload), args.Error(1)
}

// MockStrategy is a named MockClassifier, usable wherever a submission strategy is expected.
type MockStrategy struct {
	MockClassifier
	StrategyName string
}

func (m *MockStrategy) Name() string {
	return m.StrategyName
}
