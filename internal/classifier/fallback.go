package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"semclass/internal/domain"
	"semclass/internal/port"
)

var errNoStrategies = errors.New("no submission strategies configured")

// circuitState tracks rate-limit backoff for a single strategy.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackClassifier tries submission strategies in order, skipping those with open
// circuits. The first strategy that returns a payload wins; every failure is recorded as a
// *StrategyError and hands over to the next strategy.
// It implements port.Classifier.
type FallbackClassifier struct {
	strategies []Strategy
	circuits   []*circuitState
}

// NewFallbackClassifier creates a FallbackClassifier from an ordered list of strategies.
func NewFallbackClassifier(strategies ...Strategy) *FallbackClassifier {
	circuits := make([]*circuitState, len(strategies))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackClassifier{
		strategies: strategies,
		circuits:   circuits,
	}
}

func (f *FallbackClassifier) Classify(ctx context.Context, req port.ClassifyRequest) (domain.RawPayload, error) {
	if len(f.strategies) == 0 {
		return domain.RawPayload{}, errNoStrategies
	}

	now := time.Now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, s := range f.strategies {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Printf("classifier.FallbackClassifier: skipping %s (circuit open until %s)", s.Name(), resetAt.Format(time.RFC3339))
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		payload, err := s.Classify(ctx, req)
		if err == nil {
			return payload, nil
		}

		log.Printf("classifier.FallbackClassifier: %s failed for %q: %v", s.Name(), req.Title, err)
		lastErr = &StrategyError{Strategy: s.Name(), Err: err}

		// a canceled item must not be retried through the remaining strategies
		if ctx.Err() != nil {
			return domain.RawPayload{}, lastErr
		}

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			resetAt := now.Add(rlErr.RetryAfter)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := time.Until(earliestReset)
		if retryAfter < 0 {
			retryAfter = time.Second
		}
		return domain.RawPayload{}, NewRateLimitError("all", fmt.Errorf("all strategies rate limited"), int(retryAfter.Seconds()))
	}

	return domain.RawPayload{}, fmt.Errorf("all strategies failed: %w", lastErr)
}
