package sync

// SelectCase is a single branch of a Select call.
type SelectCase interface {
	Ready() bool
	Handle(Context)
}

// Select blocks until one of the given cases is ready, then executes its
// handler. Cases are checked in the order given, the first ready case wins.
// That order is deterministic, so repeated executions of the same history
// pick the same case.
func Select(ctx Context, cases ...SelectCase) {
	cr := getCoState(ctx)

	for {
		// Is any case ready?
		for _, c := range cases {
			if c.Ready() {
				cr.MadeProgress()
				c.Handle(ctx)
				return
			}
		}

		// else, yield and wait for a result
		cr.Yield()
	}
}

// Await returns a SelectCase which is ready once the given future has a value.
func Await[T any](f Future[T], handler func(ctx Context, f Future[T])) SelectCase {
	return &futureCase[T]{
		f:  f.(*futureImpl[T]),
		fn: handler,
	}
}

// Receive returns a SelectCase which is ready once a value can be received
// from the given channel.
func Receive[T any](c Channel[T], handler func(ctx Context, v T, ok bool)) SelectCase {
	return &channelCase[T]{
		c:  c.(*channel[T]),
		fn: handler,
	}
}

// Default returns a SelectCase which is always ready. Include it as the last
// case to make Select non-blocking.
func Default(handler func(Context)) SelectCase {
	return &defaultCase{fn: handler}
}

type futureCase[T any] struct {
	f  *futureImpl[T]
	fn func(Context, Future[T])
}

func (fc *futureCase[T]) Ready() bool {
	return fc.f.Ready()
}

func (fc *futureCase[T]) Handle(ctx Context) {
	fc.fn(ctx, fc.f)
}

type channelCase[T any] struct {
	c  *channel[T]
	fn func(Context, T, bool)
}

func (cc *channelCase[T]) Ready() bool {
	return cc.c.canReceive()
}

func (cc *channelCase[T]) Handle(ctx Context) {
	v, ok, _ := cc.c.tryReceive()
	cc.fn(ctx, v, ok)
}

type defaultCase struct {
	fn func(Context)
}

func (dc *defaultCase) Ready() bool {
	return true
}

func (dc *defaultCase) Handle(ctx Context) {
	dc.fn(ctx)
}
