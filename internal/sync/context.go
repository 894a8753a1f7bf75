package sync

import (
	"errors"
	"reflect"
)

// Context carries a cancellation signal and request-scoped values across API
// boundaries inside workflow code. It mirrors the context package from the
// standard library, but its Done channel is a workflow Channel, so waiting on
// it is deterministic and replayable.
type Context interface {
	// Done returns a channel that's closed when work done on behalf of this
	// context should be canceled. Done may return nil if this context can
	// never be canceled.
	Done() Channel[struct{}]

	// If Done is not yet closed, Err returns nil.
	// If Done is closed, Err returns Canceled.
	Err() error

	// Value returns the value associated with this context for key, or nil
	// if no value is associated with key.
	Value(key interface{}) interface{}
}

// Canceled is the error returned by Context.Err when the context is canceled.
//
//lint:ignore ST1012 for compat with "context" package
var Canceled = errors.New("context canceled")

// An emptyCtx is never canceled and has no values. It is not struct{}, since
// vars of this type must have distinct addresses.
type emptyCtx int

func (*emptyCtx) Done() Channel[struct{}] {
	return nil
}

func (*emptyCtx) Err() error {
	return nil
}

func (*emptyCtx) Value(key interface{}) interface{} {
	return nil
}

var background = new(emptyCtx)

// Background returns a non-nil, empty Context. It is never canceled and has
// no values. It is the top-level Context for workflow executions.
func Background() Context {
	return background
}

// A CancelFunc tells an operation to abandon its work. After the first call,
// subsequent calls to a CancelFunc do nothing.
type CancelFunc func()

// WithCancel returns a copy of parent with a new Done channel. The returned
// context's Done channel is closed when the returned cancel function is called
// or when the parent context's Done channel is closed, whichever happens first.
func WithCancel(parent Context) (ctx Context, cancel CancelFunc) {
	c := withCancel(parent)
	return c, func() { c.cancel(true, Canceled, nil) }
}

// A CancelCauseFunc behaves like a CancelFunc but additionally sets the
// cancellation cause, which can be retrieved by calling Cause on the canceled
// Context or any of its derived Contexts.
type CancelCauseFunc func(cause error)

// WithCancelCause behaves like WithCancel but returns a CancelCauseFunc
// instead of a CancelFunc.
func WithCancelCause(parent Context) (ctx Context, cancel CancelCauseFunc) {
	c := withCancel(parent)
	return c, func(cause error) { c.cancel(true, Canceled, cause) }
}

func withCancel(parent Context) *cancelCtx {
	if parent == nil {
		panic("cannot create context from nil parent")
	}
	c := newCancelCtx()
	c.propagateCancel(parent, c)
	return c
}

// Cause returns a non-nil error explaining why c was canceled. The first
// cancellation of c or one of its parents sets the cause. Cause returns nil
// if c has not been canceled yet.
func Cause(c Context) error {
	if cc, ok := c.Value(&cancelCtxKey).(*cancelCtx); ok {
		return cc.cause
	}
	return nil
}

func newCancelCtx() *cancelCtx {
	return &cancelCtx{
		done: NewChannel[struct{}](),
	}
}

// propagateCancel arranges for child to be canceled when parent is.
func (c *cancelCtx) propagateCancel(parent Context, child canceler) {
	c.Context = parent

	done := parent.Done()
	if done == nil {
		return // parent is never canceled
	}

	if p, ok := parentCancelCtx(parent); ok {
		if p.err != nil {
			// parent has already been canceled
			child.cancel(false, p.err, p.cause)
		} else {
			if p.children == nil {
				p.children = make(map[canceler]struct{})
			}
			p.children[child] = struct{}{}
		}
	} else {
		// Custom Context implementations are not supported in workflow code
		panic("unsupported parent context")
	}
}

// &cancelCtxKey is the key that a cancelCtx returns itself for.
var cancelCtxKey int

// parentCancelCtx returns the underlying *cancelCtx for parent. It does this
// by looking up parent.Value(&cancelCtxKey) to find the innermost enclosing
// *cancelCtx and then checking whether parent.Done() matches that *cancelCtx.
func parentCancelCtx(parent Context) (*cancelCtx, bool) {
	done := parent.Done()
	if done == closedchan || done == nil {
		return nil, false
	}
	p, ok := parent.Value(&cancelCtxKey).(*cancelCtx)
	if !ok {
		return nil, false
	}
	if p.done != done {
		return nil, false
	}
	return p, true
}

// removeChild removes a context from its parent.
func removeChild(parent Context, child canceler) {
	p, ok := parentCancelCtx(parent)
	if !ok {
		return
	}
	if p.children != nil {
		delete(p.children, child)
	}
}

// A canceler is a context type that can be canceled directly.
type canceler interface {
	cancel(removeFromParent bool, err, cause error)
	Done() Channel[struct{}]
}

// closedchan is a reusable closed channel.
var closedchan = NewChannel[struct{}]()

func init() {
	closedchan.Close()
}

// A cancelCtx can be canceled. When canceled, it also cancels any children
// that implement canceler.
type cancelCtx struct {
	Context

	done     Channel[struct{}]
	children map[canceler]struct{} // set to nil by the first cancel call
	err      error                 // set to non-nil by the first cancel call
	cause    error                 // set to non-nil by the first cancel call
}

func (c *cancelCtx) Value(key interface{}) interface{} {
	if key == &cancelCtxKey {
		return c
	}
	return c.Context.Value(key)
}

func (c *cancelCtx) Done() Channel[struct{}] {
	return c.done
}

func (c *cancelCtx) Err() error {
	return c.err
}

// cancel closes c.done, cancels each of c's children, and, if
// removeFromParent is true, removes c from its parent's children.
func (c *cancelCtx) cancel(removeFromParent bool, err, cause error) {
	if err == nil {
		panic("context: internal error: missing cancel error")
	}
	if cause == nil {
		cause = err
	}
	if c.err != nil {
		return // already canceled
	}
	c.err = err
	c.cause = cause
	if c.done == nil {
		c.done = closedchan
	} else {
		c.done.Close()
	}
	for child := range c.children {
		child.cancel(false, err, cause)
	}
	c.children = nil

	if removeFromParent {
		removeChild(c.Context, c)
	}
}

// WithValue returns a copy of parent in which the value associated with key
// is val.
//
// The provided key must be comparable and should not be of type string or any
// other built-in type to avoid collisions between packages.
func WithValue(parent Context, key, val interface{}) Context {
	if parent == nil {
		panic("cannot create context from nil parent")
	}
	if key == nil {
		panic("nil key")
	}
	if !reflect.TypeOf(key).Comparable() {
		panic("key is not comparable")
	}
	return &valueCtx{parent, key, val}
}

// A valueCtx carries a key-value pair. It implements Value for that key and
// delegates all other calls to the embedded Context.
type valueCtx struct {
	Context
	key, val interface{}
}

func (c *valueCtx) Value(key interface{}) interface{} {
	if c.key == key {
		return c.val
	}
	return c.Context.Value(key)
}

// NewDisconnectedContext returns a context which keeps the values of the
// given context but is not canceled when the original context is canceled.
// It is used to run cleanup logic, like saga compensations, after a workflow
// was canceled.
func NewDisconnectedContext(ctx Context) Context {
	return &cancelCtx{
		Context: ctx,
		done:    NewChannel[struct{}](),
	}
}
