package services

import (
	"context"
	"time"

	"github.com/quern-dev/quern/internal/logger"
)

// retryBaseDelay is the first backoff interval; it doubles per attempt.
const retryBaseDelay = 250 * time.Millisecond

// withRetry runs fn up to 1+maxRetries times with exponential backoff,
// honouring context cancellation between attempts. The last error is
// returned when the budget is exhausted; failures are never swallowed.
func withRetry(ctx context.Context, maxRetries int, op string, fn func(ctx context.Context) error) error {
	var err error
	delay := retryBaseDelay

	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logger.Warn("%s failed (attempt %d/%d), retrying in %s: %v",
			op, attempt+1, maxRetries+1, delay, err)

		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}
