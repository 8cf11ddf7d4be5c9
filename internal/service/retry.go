package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/egannguyen/go-kafka-ecommerce/order-service/internal/repository"
)

// ErrRetriesExhausted is returned when every attempt failed with lock
// contention. It wraps the last attempt's error.
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryPolicy retries a whole transaction when it fails with
// repository.ErrLockContention. Other errors are returned after the first
// attempt.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy is 3 attempts with a fixed 1s delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Delay: time.Second}
}

// Do runs fn until it succeeds, fails with a non-contention error, or the
// attempts run out. onRetry is called before each new attempt.
func (p RetryPolicy) Do(ctx context.Context, onRetry func(attempt int, err error), fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if !errors.Is(err, repository.ErrLockContention) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.WarnContext(ctx, "Lock contention, retrying transaction",
				"attempt", attempt, "max_attempts", maxAttempts, "delay", next, "err", err)
			if onRetry != nil {
				onRetry(attempt, err)
			}
		}),
	)
	if err == nil {
		return nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if errors.Is(err, repository.ErrLockContention) {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
	}
	return err
}
