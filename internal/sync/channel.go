package sync

// Channel is a deterministic replacement for Go channels inside workflow
// code. All operations run on the workflow scheduler, so their ordering is
// the same during replay as it was during the original execution.
type Channel[T any] interface {
	// Send blocks until the value could be handed to a receiver or buffered
	Send(ctx Context, v T)

	// SendNonblocking attempts to send without blocking, returns whether the
	// value was accepted
	SendNonblocking(v T) (ok bool)

	// Receive blocks until a value is available. ok is false if the channel
	// is closed and drained
	Receive(ctx Context) (v T, ok bool)

	// ReceiveNonblocking attempts to receive without blocking
	ReceiveNonblocking() (v T, ok bool, received bool)

	Close()
}

// ChannelInternal gives framework code access to non-yielding channel
// operations, used for observing context cancellation.
type ChannelInternal[T any] interface {
	ReceiveNonblocking() (v T, ok bool, received bool)

	// AddReceiveCallback registers a callback invoked for the next value
	// received, or with ok=false when the channel is closed
	AddReceiveCallback(cb func(v T, ok bool))
}

// CancelChannel is the Done channel of a cancelable workflow context.
type CancelChannel = ChannelInternal[struct{}]

func NewChannel[T any]() Channel[T] {
	return &channel[T]{
		c: make([]T, 0),
	}
}

func NewBufferedChannel[T any](size int) Channel[T] {
	return &channel[T]{
		c:    make([]T, 0, size),
		size: size,
	}
}

type channel[T any] struct {
	c         []T
	receivers []func(v T, ok bool)
	senders   []func() T
	closed    bool
	size      int
}

func (c *channel[T]) Close() {
	c.closed = true

	// Wake up all blocked receivers with the zero value
	for len(c.receivers) > 0 {
		r := c.receivers[0]
		c.receivers[0] = nil
		c.receivers = c.receivers[1:]

		var zero T
		r(zero, false)
	}
}

func (c *channel[T]) Send(ctx Context, v T) {
	cr := getCoState(ctx)

	addedSender := false
	sentValue := false

	for {
		if c.trySend(v) {
			cr.MadeProgress()
			return
		}

		if !addedSender {
			addedSender = true

			cb := func() T {
				sentValue = true
				return v
			}

			c.senders = append(c.senders, cb)
		}

		cr.Yield()

		if sentValue {
			cr.MadeProgress()
			return
		}
	}
}

func (c *channel[T]) SendNonblocking(v T) bool {
	return c.trySend(v)
}

func (c *channel[T]) Receive(ctx Context) (T, bool) {
	cr := getCoState(ctx)

	var receivedV T
	var receivedOk bool
	addedListener := false
	receivedValue := false

	for {
		// Try to receive from buffer or a blocked sender
		if v, ok, received := c.tryReceive(); received {
			cr.MadeProgress()
			return v, ok
		}

		// Register handler to receive a value once
		if !addedListener {
			cb := func(v T, ok bool) {
				receivedV = v
				receivedOk = ok
				receivedValue = true
			}

			c.receivers = append(c.receivers, cb)
			addedListener = true
		}

		cr.Yield()

		// If we received a value via the callback, return it
		if receivedValue {
			cr.MadeProgress()
			return receivedV, receivedOk
		}
	}
}

func (c *channel[T]) ReceiveNonblocking() (T, bool, bool) {
	return c.tryReceive()
}

func (c *channel[T]) AddReceiveCallback(cb func(v T, ok bool)) {
	c.receivers = append(c.receivers, cb)
}

func (c *channel[T]) hasValue() bool {
	return len(c.c) > 0
}

func (c *channel[T]) canReceive() bool {
	return c.hasValue() || len(c.senders) > 0 || c.closed
}

func (c *channel[T]) trySend(v T) bool {
	// Sending to a closed channel is an error in workflow code as well
	if c.closed {
		panic("channel closed")
	}

	// Hand the value to the first blocked receiver if there is one
	if len(c.receivers) > 0 {
		r := c.receivers[0]
		c.receivers[0] = nil
		c.receivers = c.receivers[1:]
		r(v, true)
		return true
	}

	// No waiting receiver, buffer the value if there is capacity
	if c.hasCapacity() {
		c.c = append(c.c, v)
		return true
	}

	return false
}

func (c *channel[T]) tryReceive() (T, bool, bool) {
	var zero T

	// If channel is buffered, return a value if available
	if c.hasValue() {
		v := c.c[0]
		c.c[0] = zero
		c.c = c.c[1:]
		return v, true, true
	}

	// Unblock the first waiting sender
	if len(c.senders) > 0 {
		s := c.senders[0]
		c.senders[0] = nil
		c.senders = c.senders[1:]

		return s(), true, true
	}

	// Closed and drained, return the zero element
	if c.closed {
		return zero, false, true
	}

	return zero, false, false
}

func (c *channel[T]) hasCapacity() bool {
	return len(c.c) < c.size
}
