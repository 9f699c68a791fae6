package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted is returned when every attempt returned a value the
// accept predicate rejected.
var ErrRetriesExhausted = errors.New("backoff retries exhausted")

// Config controls how often and how far apart Do repeats an operation.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration

	// OnRetry is called before each sleep. err is nil when the attempt
	// returned a value that was rejected by the predicate.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultConfig: three attempts starting at 500ms.
var DefaultConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
}

const defaultInitialDelay = 500 * time.Millisecond

// Do runs work until it returns without error and accept approves the result,
// doubling the delay between attempts. accept only ever sees values from
// attempts that did not fail; a nil accept approves everything.
//
// When the attempts run out, the last attempt's error is returned as is. If
// the last attempt returned a rejected value instead, the error wraps
// ErrRetriesExhausted. The context only interrupts the wait between attempts.
func Do[T any](ctx context.Context, cfg Config, work func(context.Context) (T, error), accept func(T) bool) (T, error) {
	var zero T

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = defaultInitialDelay
	}

	for attempt := 1; ; attempt++ {
		result, err := work(ctx)
		if err == nil && (accept == nil || accept(result)) {
			return result, nil
		}

		if attempt >= attempts {
			if err != nil {
				return zero, err
			}
			return zero, fmt.Errorf("failed after %d attempts: %w", attempts, ErrRetriesExhausted)
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
