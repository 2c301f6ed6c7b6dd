package noop

import (
	"context"
	"log"

	"semclass/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a Notifier that only logs the batch summary.
func NewNoopNotifier() port.Notifier {
	return &noopNotifier{}
}

func (n *noopNotifier) NotifyBatchComplete(_ context.Context, report port.BatchReport) error {
	log.Printf("[NOOP NOTIFY] run %s: %d processed, %d succeeded, %d failed (source=%s, destination=%s)",
		report.Summary.RunID, report.Summary.Total, report.Summary.Succeeded, report.Summary.Failed,
		report.Source, report.Destination)
	return nil
}
