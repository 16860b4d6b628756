package dirscrape

import (
	"context"
	"time"
)

// RetryPolicy retries an operation with exponential backoff.
// The zero value performs a single attempt with no retries.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Multiplier scales the delay after each retry.
	Multiplier float64

	// Retryable reports whether the error is worth retrying.
	// A nil Retryable never retries.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the policy used for selector inference:
// five attempts with 2s, 4s, 8s, 16s waits, retrying only on rate limits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Multiplier:  2.0,
		Retryable: func(err error) bool {
			return ErrorCode(err) == ERATELIMIT
		},
	}
}

// Do runs op until it succeeds, the attempts are exhausted, or the error
// is not retryable. The last error is returned on exhaustion. Context
// cancellation interrupts backoff waits.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := p.BaseDelay
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= attempts || p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if p.Multiplier > 0 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
	}
}
