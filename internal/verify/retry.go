package verify

import (
	"context"
	"time"
)

// RetryOnce runs check and, when it fails with an assertion error, runs it one more time after
// delay. Harness errors are returned without a retry.
func RetryOnce(ctx context.Context, delay time.Duration, check func(context.Context) error) error {
	firstErr := check(ctx)
	if firstErr == nil || !IsAssertion(firstErr) {
		return firstErr
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return check(ctx)
}
