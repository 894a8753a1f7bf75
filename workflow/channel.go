package workflow

import "github.com/everflowhq/everflow/internal/sync"

// Channel is a deterministic channel for communicating between workflow
// coroutines.
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

// NewChannel creates a new channel.
func NewChannel[T any]() Channel[T] {
	return sync.NewChannel[T]()
}

// NewBufferedChannel creates a new buffered channel with the given size.
func NewBufferedChannel[T any](size int) Channel[T] {
	return sync.NewBufferedChannel[T](size)
}
