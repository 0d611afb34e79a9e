package retrier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSucceedsAfterRetries(t *testing.T) {
	calls := 0

	value, err := Connect(context.Background(), 3, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not ready")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 3, calls)
}

func TestConnectReturnsLastError(t *testing.T) {
	calls := 0

	_, err := Connect(context.Background(), 2, func(context.Context) (string, error) {
		calls++
		return "", errors.New("refused")
	})

	assert.EqualError(t, err, "refused")
	assert.Equal(t, 2, calls)
}

func TestConnectStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Connect(ctx, 5, func(context.Context) (bool, error) {
		calls++
		return false, errors.New("down")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestZeroAttemptsTriesOnce(t *testing.T) {
	calls := 0
	_, _ = Connect(context.Background(), 0, func(context.Context) (bool, error) {
		calls++
		return true, nil
	})

	assert.Equal(t, 1, calls)
}
