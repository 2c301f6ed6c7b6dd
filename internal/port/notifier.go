package port

import (
	"context"

	"semclass/internal/domain"
)

// BatchReport is what a notifier is told when a batch finishes.
type BatchReport struct {
	Summary     domain.BatchSummary
	Source      string
	Destination string
	Failures    []domain.ItemOutcome
}

// Notifier tells operators that a batch run finished.
type Notifier interface {
	NotifyBatchComplete(ctx context.Context, report BatchReport) error
}
