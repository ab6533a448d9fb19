package holdings

import (
	"context"
	"errors"
	"testing"

	"fundledger-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRunWithRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RunWithRetry(ctx, 3, func() error {
		calls++
		if calls < 3 {
			return domain.ErrConcurrentUpdate
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = RunWithRetry(ctx, 2, func() error {
		calls++
		return domain.ErrConcurrentUpdate
	})
	assert.True(t, errors.Is(err, domain.ErrConcurrentUpdate))
	assert.Equal(t, 3, calls)

	calls = 0
	err = RunWithRetry(ctx, 5, func() error {
		calls++
		return domain.ErrInsufficientQuotas
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientQuotas))
	assert.Equal(t, 1, calls)
}

func TestRunWithRetry_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunWithRetry(ctx, 3, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
