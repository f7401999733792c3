package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsWithinBudget(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 2, "test op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_ExhaustsBudget(t *testing.T) {
	sentinel := errors.New("permanent")
	attempts := 0
	err := withRetry(context.Background(), 1, "test op", func(context.Context) error {
		attempts++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, attempts, "one initial try plus one retry")
}

func TestWithRetry_NoRetriesConfigured(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 0, "test op", func(context.Context) error {
		attempts++
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := withRetry(ctx, 5, "test op", func(context.Context) error {
		attempts++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts, "cancellation halts further attempts")
}
