// backend/retry/retry.go
package retry

import (
	"context"
	"fmt"
	"log"
	"time"
)

// TimeoutError is returned by WithTimeout when the timer wins the race.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.After)
}

// sleep waits for d or until ctx is cancelled. Swappable so tests can run
// against a recorded clock instead of real delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do invokes op up to maxAttempts times. After a failed attempt it waits
// baseDelay * 2^(attempt-1) before the next one (attempt counted from 1).
// When all attempts fail, the last failure is returned. Every failure is
// logged so the caller's behavior stays observable.
func Do[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		wait := baseDelay * (1 << (attempt - 1))
		log.Printf("WARN Retry: attempt %d/%d failed: %v. Retrying in %s...", attempt, maxAttempts, err, wait)
		if serr := sleep(ctx, wait); serr != nil {
			return zero, serr
		}
	}

	log.Printf("ERROR Retry: all %d attempts failed: %v", maxAttempts, lastErr)
	return zero, lastErr
}

// WithTimeout races op against a timer and returns a TimeoutError if the
// timer wins. The losing operation is abandoned, not cancelled: in-flight
// I/O may still complete and its result is discarded. Known limitation.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := op(ctx)
		ch <- result{v: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-ch:
		return r.v, r.err
	case <-timer.C:
		return zero, &TimeoutError{After: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
