package sync

// Go starts a new coroutine on the scheduler which owns the current one.
func Go(ctx Context, f func(ctx Context)) {
	cs := getCoState(ctx)

	cs.creator.NewCoroutine(ctx, func(ctx Context) error {
		f(ctx)

		return nil
	})
}
