package retrier

import (
	"context"
	"time"
)

const baseDelay = 50 * time.Millisecond

// Connect calls connector up to attempts times, doubling the pause between
// tries. The last error is returned when every attempt fails or ctx ends.
func Connect[T any](ctx context.Context, attempts uint, connector func(ctx context.Context) (T, error)) (T, error) {
	var (
		value T
		err   error
	)

	if attempts == 0 {
		attempts = 1
	}

	timeout := baseDelay

	for i := uint(0); i < attempts; i++ {
		value, err = connector(ctx)
		if err == nil {
			return value, nil
		}

		if i == attempts-1 {
			break
		}

		if !sleep(ctx, timeout) {
			return value, err
		}

		timeout *= 2
	}

	return value, err
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
