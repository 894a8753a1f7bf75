package sync

// Future is a value that will become available at some point in the future.
type Future[T any] interface {
	// Get returns the value if set, blocks otherwise
	Get(ctx Context) (T, error)
}

// SettableFuture is a Future whose value can be set once.
type SettableFuture[T any] interface {
	Future[T]

	// Set stores the value and error and unblocks any waiting consumers
	Set(v T, err error)

	// Ready returns true if the value has been set
	Ready() bool
}

func NewFuture[T any]() SettableFuture[T] {
	return &futureImpl[T]{}
}

type futureImpl[T any] struct {
	hasValue bool
	v        T
	err      error
}

func (f *futureImpl[T]) Set(v T, err error) {
	if f.hasValue {
		panic("future already set")
	}

	f.v = v
	f.err = err
	f.hasValue = true
}

func (f *futureImpl[T]) Get(ctx Context) (T, error) {
	for {
		cr := getCoState(ctx)

		if f.hasValue {
			cr.MadeProgress()

			if f.err != nil {
				var zero T
				return zero, f.err
			}

			return f.v, nil
		}

		cr.Yield()
	}
}

func (f *futureImpl[T]) Ready() bool {
	return f.hasValue
}
