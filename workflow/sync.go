package workflow

import (
	"github.com/everflowhq/everflow/internal/sync"
)

type (
	Context   = sync.Context
	WaitGroup = sync.WaitGroup
	ErrGroup  = sync.ErrGroup
)

// Canceled is the error stored in a context's Err once it is canceled.
var Canceled = sync.Canceled

// Go runs the given function in a separate workflow coroutine. Coroutines are
// scheduled deterministically, not in parallel.
func Go(ctx Context, f func(ctx Context)) {
	sync.Go(ctx, f)
}

// NewWaitGroup creates a WaitGroup usable inside workflow code.
func NewWaitGroup() WaitGroup {
	return sync.NewWaitGroup()
}

// WithErrGroup creates an ErrGroup and a derived Context which is canceled
// when the first function started with Go returns a non-nil error.
func WithErrGroup(ctx Context) (Context, ErrGroup) {
	return sync.WithErrGroup(ctx)
}
