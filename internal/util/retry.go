package util

import (
	"context"
	"time"
)

// Retry runs fn until it succeeds, giving up after maxAttempts. The delay
// between attempts starts at baseDelay and doubles each time. Market-data
// fetches go through this so transient upstream errors don't fail a whole
// ingest run. Returns the last error when every attempt fails, or ctx.Err()
// if the context is cancelled while waiting.
func Retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		// No sleep after the final attempt.
		if attempt < maxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return err
}
