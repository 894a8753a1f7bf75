package workflow

import (
	"math"
	"slices"
	"time"

	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowerrors"
)

// RetryPolicy controls how failed activities and sub-workflows are retried.
type RetryPolicy struct {
	// InitialInterval is the delay before the first retry
	InitialInterval time.Duration

	// BackoffCoefficient is the multiplier applied to the delay after each
	// failed attempt
	BackoffCoefficient float64

	// MaxInterval caps the computed delay. Once reached, the delay stays
	// constant
	MaxInterval time.Duration

	// MaxAttempts is the total number of attempts, including the first one.
	// 0 means unlimited
	MaxAttempts int

	// NonRetryableErrorTypes lists error types which fail permanently without
	// further attempts
	NonRetryableErrorTypes []string

	// Jitter adds a uniformly random delay of up to the computed interval to
	// each retry, spreading retry storms across many instances
	Jitter bool
}

var DefaultRetryPolicy = RetryPolicy{
	InitialInterval:    time.Second,
	BackoffCoefficient: 2.0,
	MaxInterval:        time.Minute,
	MaxAttempts:        3,
}

// BackoffDelay returns the base delay before the retry following the given
// zero-based attempt.
func (rp RetryPolicy) BackoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(rp.InitialInterval) * math.Pow(rp.BackoffCoefficient, float64(attempt)))

	if rp.MaxInterval > 0 && delay > rp.MaxInterval {
		delay = rp.MaxInterval
	}

	return delay
}

func (rp RetryPolicy) retryable(err error) bool {
	if !workflowerrors.CanRetry(err) {
		return false
	}

	return !slices.Contains(rp.NonRetryableErrorTypes, workflowerrors.ErrorType(err))
}

// withRetries wraps the given schedule function with the retry policy. The
// retry loop runs in its own coroutine. Delays are realized as workflow
// timers, so they are durable and replayable.
func withRetries[T any](ctx Context, policy RetryPolicy, expiration time.Time, fn func(ctx Context, attempt int) Future[T]) Future[T] {
	firstAttempt := fn(ctx, 0)

	if policy.MaxAttempts == 1 {
		// Short-circuit if we don't need to retry
		return firstAttempt
	}

	r := sync.NewFuture[T]()

	sync.Go(ctx, func(ctx Context) {
		var result T
		var err error

		f := firstAttempt
		attempt := 0

		for {
			result, err = f.Get(ctx)
			if err == nil || err == sync.Canceled {
				break
			}

			if !policy.retryable(err) {
				break
			}

			if policy.MaxAttempts > 0 && attempt+1 >= policy.MaxAttempts {
				// Attempts exhausted, surface the last error
				break
			}

			delay := policy.BackoffDelay(attempt)
			if policy.Jitter && delay > 0 {
				delay += time.Duration(Random(ctx).Int63n(int64(delay)))
			}

			if !expiration.IsZero() && Now(ctx).Add(delay).After(expiration) {
				// The whole chain of attempts timed out
				break
			}

			if serr := Sleep(ctx, delay); serr != nil {
				var zero T
				r.Set(zero, serr)
				return
			}

			attempt++
			f = fn(ctx, attempt)
		}

		r.Set(result, err)
	})

	return r
}
