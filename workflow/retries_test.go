package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_RetryPolicy_BackoffDelay(t *testing.T) {
	rp := RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaxInterval:        8 * time.Second,
	}

	expected := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		// Capped at MaxInterval from here on
		8 * time.Second,
		8 * time.Second,
	}

	for attempt, want := range expected {
		require.Equal(t, want, rp.BackoffDelay(attempt), "attempt %d", attempt)
	}
}

func Test_RetryPolicy_BackoffDelay_NoCap(t *testing.T) {
	rp := RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
	}

	require.Equal(t, 1024*time.Second, rp.BackoffDelay(10))
}

func Test_RetryPolicy_Retryable(t *testing.T) {
	rp := RetryPolicy{
		NonRetryableErrorTypes: []string{"ValidationError"},
	}

	require.True(t, rp.retryable(NewError(errors.New("transient"))))
	require.False(t, rp.retryable(NewPermanentError(errors.New("fatal"))))

	type ValidationError struct{ error }
	require.False(t, rp.retryable(NewError(&ValidationError{errors.New("bad input")})))
}
