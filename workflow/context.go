package workflow

import "github.com/everflowhq/everflow/internal/sync"

type CancelFunc = sync.CancelFunc

// WithCancel returns a copy of parent with a new Done channel. The returned
// context's Done channel is closed when the returned cancel function is called
// or when the parent context's Done channel is closed, whichever happens first.
func WithCancel(parent Context) (ctx Context, cancel CancelFunc) {
	return sync.WithCancel(parent)
}

// NewDisconnectedContext returns a context which is not canceled when the
// given context is canceled. Use it to run cleanup logic, like compensations,
// after the workflow was canceled.
func NewDisconnectedContext(ctx Context) Context {
	return sync.NewDisconnectedContext(ctx)
}
