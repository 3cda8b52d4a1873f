package vndb

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/vrsandeep/vnshelf/internal/models"
)

// Fetcher is the single-attempt contract shared by Client and Retrying.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*models.Metadata, error)
}

// Retrying retries a Fetcher with exponential backoff. It serves
// interactive requests; queued refreshes use the queue's own retry policy.
type Retrying struct {
	inner     Fetcher
	attempts  int
	baseDelay time.Duration
}

// WithRetry wraps inner so that each Fetch makes up to attempts calls,
// waiting baseDelay, 2*baseDelay, ... between them.
func WithRetry(inner Fetcher, attempts int, baseDelay time.Duration) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{inner: inner, attempts: attempts, baseDelay: baseDelay}
}

func (r *Retrying) Fetch(ctx context.Context, id string) (*models.Metadata, error) {
	var lastErr error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.attempts; attempt++ {
		m, err := r.inner.Fetch(ctx, id)
		if err == nil {
			return m, nil
		}
		lastErr = err
		if !retryable(err) || attempt == r.attempts {
			break
		}
		log.Printf("VNDB fetch for %s failed (attempt %d/%d): %v", id, attempt, r.attempts, err)
		if !sleepWithContext(ctx, delay) {
			return nil, ctx.Err()
		}
		delay *= 2
	}
	return nil, lastErr
}

func retryable(err error) bool {
	if errors.Is(err, ErrTokenMissing) || errors.Is(err, context.Canceled) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		// Client errors other than rate limiting will not change on retry.
		return pe.Status == 429 || pe.Status >= 500
	}
	return true
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
