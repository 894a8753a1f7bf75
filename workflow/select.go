package workflow

import "github.com/everflowhq/everflow/internal/sync"

type SelectCase = sync.SelectCase

// Select is the workflow-safe equivalent of the select statement. The first
// ready case in the given order wins, which keeps replay deterministic.
func Select(ctx Context, cases ...SelectCase) {
	sync.Select(ctx, cases...)
}

// Await calls the provided handler when the given future is ready.
func Await[T any](f Future[T], handler func(ctx Context, f Future[T])) SelectCase {
	return sync.Await(f, func(ctx sync.Context, f sync.Future[T]) {
		handler(ctx, f)
	})
}

// Receive calls the provided handler if the given channel can receive a
// value. ok indicates whether a value was received or the channel was closed.
func Receive[T any](c Channel[T], handler func(ctx Context, v T, ok bool)) SelectCase {
	return sync.Receive(c, handler)
}

// Default calls the provided handler if none of the other cases are ready.
func Default(handler func(Context)) SelectCase {
	return sync.Default(handler)
}
