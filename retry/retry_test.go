// backend/retry/retry_test.go
package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSleeps replaces the package sleep with one that only records the
// requested delays, restoring the original when the test ends.
func recordSleeps(t *testing.T) *[]time.Duration {
	t.Helper()
	var recorded []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		recorded = append(recorded, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &recorded
}

func TestDoSucceedsOnThirdAttempt(t *testing.T) {
	sleeps := recordSleeps(t)

	calls := 0
	v, err := Do(context.Background(), 3, 100*time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)

	// Exponential backoff: 100ms then 200ms, total wait >= 300ms.
	require.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *sleeps)
	var total time.Duration
	for _, d := range *sleeps {
		total += d
	}
	assert.GreaterOrEqual(t, total, 300*time.Millisecond)
}

func TestDoSurfacesLastFailure(t *testing.T) {
	recordSleeps(t)

	calls := 0
	_, err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom " + string(rune('0'+calls)))
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.EqualError(t, err, "boom 3")
}

func TestDoFirstAttemptSuccessDoesNotSleep(t *testing.T) {
	sleeps := recordSleeps(t)

	v, err := Do(context.Background(), 5, time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Empty(t, *sleeps)
}

func TestDoStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, 3, time.Minute, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "no further attempts after cancellation")
}

func TestWithTimeoutWinsWhenOpIsSlow(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (string, error) {
		time.Sleep(200 * time.Millisecond)
		return "late", nil
	})

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 10*time.Millisecond, te.After)
}

func TestWithTimeoutPassesThroughFastResult(t *testing.T) {
	v, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "fast", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "fast", v)
}

func TestWithTimeoutPassesThroughFastError(t *testing.T) {
	want := errors.New("upstream said no")
	_, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (string, error) {
		return "", want
	})

	require.ErrorIs(t, err, want)
}
