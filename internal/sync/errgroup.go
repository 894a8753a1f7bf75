package sync

// ErrGroup runs workflow functions concurrently and collects the first error.
//
// It is conceptually similar to golang.org/x/sync/errgroup.Group but adapted
// to the workflow scheduler and Context. The derived Context is canceled when
// the first function returns a non-nil error.
type ErrGroup interface {
	// Go starts the given function in a new workflow coroutine
	Go(f func(Context) error)

	// Wait waits for all launched functions to complete and returns the first
	// non-nil error returned by any of them
	Wait(ctx Context) error
}

// WithErrGroup creates a child Context and an ErrGroup. The returned Context
// is canceled when any function started with g.Go returns a non-nil error.
func WithErrGroup(parent Context) (Context, ErrGroup) {
	ctx, cancel := WithCancel(parent)
	cs := getCoState(parent)

	return ctx, &errGroup{
		done:    NewFuture[struct{}](),
		cancel:  cancel,
		ctx:     ctx,
		creator: cs.creator,
	}
}

type errGroup struct {
	// count of running functions
	n int

	// future that gets set when the count drops to zero
	done SettableFuture[struct{}]

	// first error encountered
	firstErr error

	cancel CancelFunc

	// context associated with this group (child of parent)
	ctx Context

	creator CoroutineCreator
}

func (g *errGroup) Go(f func(Context) error) {
	g.n++

	g.creator.NewCoroutine(g.ctx, func(ctx Context) error {
		if err := f(ctx); err != nil {
			if g.firstErr == nil {
				g.firstErr = err

				// cancel group context on first error
				if g.cancel != nil {
					g.cancel()
				}
			}
		}

		g.n--
		if g.n < 0 {
			panic("negative ErrGroup counter")
		}

		if g.n == 0 {
			g.done.Set(struct{}{}, nil)
		}

		return nil
	})
}

func (g *errGroup) Wait(ctx Context) error {
	if g.n == 0 {
		return g.firstErr
	}

	if _, err := g.done.Get(ctx); err != nil {
		return err
	}

	return g.firstErr
}
