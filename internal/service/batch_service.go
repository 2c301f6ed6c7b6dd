package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"semclass/internal/domain"
	"semclass/internal/parser"
	"semclass/internal/rank"
)

var errNoFetch = errors.New("item has no fetch function")

// FetchFunc retrieves the service response for one item. title is the item's TitleHint.
type FetchFunc func(ctx context.Context, title string) (domain.RawPayload, error)

// Item is one unit of work: an identifier, a title to submit it under and a way to obtain
// its payload.
type Item struct {
	Identifier string
	Filename   string
	TitleHint  string
	Fetch      FetchFunc
}

// Recorder observes every finished item.
type Recorder interface {
	ObserveItem(outcome domain.ItemOutcome, elapsed time.Duration)
}

// BatchConfig holds settings for the batch aggregator.
type BatchConfig struct {
	Category    string
	MaxTopics   int
	Workers     int
	ItemTimeout time.Duration // 0 = no per-item deadline
	KeepRaw     bool
}

// BatchService defines the batch classification contract.
type BatchService interface {
	ProcessItem(ctx context.Context, item Item) domain.ItemOutcome
	Run(ctx context.Context, items []Item) (*domain.BatchResult, error)
}

type batchService struct {
	extractor *parser.Extractor
	recorder  Recorder
	cfg       BatchConfig
}

// NewBatchService creates a new BatchService. extractor and recorder may be nil.
func NewBatchService(cfg BatchConfig, extractor *parser.Extractor, recorder Recorder) BatchService {
	if cfg.Category == "" {
		cfg.Category = domain.DefaultCategory
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if extractor == nil {
		extractor = parser.NewExtractor(nil)
	}
	return &batchService{
		extractor: extractor,
		recorder:  recorder,
		cfg:       cfg,
	}
}

func (s *batchService) ProcessItem(ctx context.Context, item Item) domain.ItemOutcome {
	outcome, _ := s.process(ctx, item)
	return outcome
}

func (s *batchService) process(ctx context.Context, item Item) (domain.ItemOutcome, domain.RawRecord) {
	start := time.Now()
	outcome, raw := s.classify(ctx, item)
	if s.recorder != nil {
		s.recorder.ObserveItem(outcome, time.Since(start))
	}
	return outcome, raw
}

func (s *batchService) classify(ctx context.Context, item Item) (domain.ItemOutcome, domain.RawRecord) {
	raw := domain.RawRecord{File: item.Identifier, Filename: item.Filename}
	fail := func(err error) (domain.ItemOutcome, domain.RawRecord) {
		log.Printf("service.BatchService: %s failed: %v", item.Identifier, err)
		raw.Error = err.Error()
		return domain.NewFailedOutcome(item.Identifier, item.Filename, err), raw
	}

	if s.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ItemTimeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if item.Fetch == nil {
		return fail(errNoFetch)
	}

	payload, err := item.Fetch(ctx, item.TitleHint)
	if err != nil {
		return fail(err)
	}
	raw.Payload = &payload

	if msg := payload.ServiceError(); msg != "" {
		return fail(fmt.Errorf("%w: %s", domain.ErrServiceRejected, msg))
	}

	parsed, err := s.extractor.Extract(payload)
	if err != nil {
		return fail(err)
	}

	topics := rank.Category(parsed, s.cfg.Category, s.cfg.MaxTopics)
	return domain.NewSuccessOutcome(item.Identifier, item.Filename, topics), raw
}

// Run processes items and returns their outcomes in submission order. When every item of a
// non-empty batch fails, the full result is returned together with domain.ErrAllItemsFailed.
func (s *batchService) Run(ctx context.Context, items []Item) (*domain.BatchResult, error) {
	result := &domain.BatchResult{
		RunID:     uuid.New(),
		Outcomes:  make([]domain.ItemOutcome, len(items)),
		StartedAt: time.Now(),
	}
	var raws []domain.RawRecord
	if s.cfg.KeepRaw {
		raws = make([]domain.RawRecord, len(items))
	}

	workers := min(s.cfg.Workers, len(items))
	log.Printf("service.BatchService: run %s started (items=%d, workers=%d)", result.RunID, len(items), workers)

	store := func(i int, outcome domain.ItemOutcome, raw domain.RawRecord) {
		result.Outcomes[i] = outcome
		if raws != nil {
			raws[i] = raw
		}
	}

	if workers <= 1 {
		for i := range items {
			outcome, raw := s.process(ctx, items[i])
			store(i, outcome, raw)
		}
	} else {
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i := range items {
			sem <- struct{}{} // acquire
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }() // release

				// each goroutine owns slot i, so no locking is needed
				outcome, raw := s.process(ctx, items[i])
				store(i, outcome, raw)
			}()
		}
		wg.Wait()
	}

	result.Raw = raws
	result.FinishedAt = time.Now()

	summary := result.Summary()
	log.Printf("service.BatchService: run %s finished (succeeded=%d, failed=%d, took=%s)",
		result.RunID, summary.Succeeded, summary.Failed, summary.Duration.Round(time.Millisecond))

	if summary.Total > 0 && summary.Succeeded == 0 {
		return result, domain.ErrAllItemsFailed
	}
	return result, nil
}
