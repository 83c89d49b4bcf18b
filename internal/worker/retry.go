package worker

import (
	"context"
	"strings"
	"time"

	"github.com/vikasvdk5/WestBay/internal/report"
)

// RetryPolicy bounds calls into external collaborators: a fixed attempt
// budget with exponential backoff. Exhausting the budget escalates to an
// ExternalServiceError; retrying never blocks other execution units.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Max         time.Duration
}

// DefaultRetry matches the worker-local policy used across the engine.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Base: 500 * time.Millisecond, Max: 10 * time.Second}
}

// Do runs fn until it succeeds or the attempt budget is spent.
func (p RetryPolicy) Do(ctx context.Context, service string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := p.Base
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return &report.ExternalServiceError{Service: service, Attempts: attempt, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
		if p.Max > 0 && delay > p.Max {
			delay = p.Max
		}
	}
	return &report.ExternalServiceError{Service: service, Attempts: attempts, Err: lastErr}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
