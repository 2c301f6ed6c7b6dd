package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemOutcome is the result of classifying one item. Either Error is nil, or Error is set
// and Topics is empty.
type ItemOutcome struct {
	Identifier string        `json:"file"`
	Filename   string        `json:"filename"`
	Topics     []RankedTopic `json:"classifications"`
	Error      *string       `json:"error"`
}

// NewSuccessOutcome builds an outcome for an item that was classified.
func NewSuccessOutcome(identifier, filename string, topics []RankedTopic) ItemOutcome {
	if topics == nil {
		topics = []RankedTopic{}
	}
	return ItemOutcome{Identifier: identifier, Filename: filename, Topics: topics}
}

// NewFailedOutcome builds an outcome for an item that could not be classified.
func NewFailedOutcome(identifier, filename string, err error) ItemOutcome {
	msg := err.Error()
	return ItemOutcome{Identifier: identifier, Filename: filename, Topics: []RankedTopic{}, Error: &msg}
}

// Failed reports whether the item carries an error.
func (o ItemOutcome) Failed() bool {
	return o.Error != nil
}

// RawRecord keeps the unprocessed service response of one item.
type RawRecord struct {
	File     string
	Filename string
	Payload  *RawPayload
	Error    string
}

// BatchSummary counts outcomes of a run.
type BatchSummary struct {
	RunID     uuid.UUID
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// BatchResult is everything one invocation produced, in submission order.
type BatchResult struct {
	RunID      uuid.UUID
	Outcomes   []ItemOutcome
	Raw        []RawRecord
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary counts succeeded and failed items.
func (r *BatchResult) Summary() BatchSummary {
	s := BatchSummary{
		RunID:    r.RunID,
		Total:    len(r.Outcomes),
		Duration: r.FinishedAt.Sub(r.StartedAt),
	}
	for i := range r.Outcomes {
		if r.Outcomes[i].Failed() {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	return s
}
