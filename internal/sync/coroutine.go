package sync

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"
)

// DeadlockDetection is how long a coroutine may run without yielding before
// it is considered deadlocked and execution is aborted.
const DeadlockDetection = 40 * time.Second

var ErrCoroutineAlreadyFinished = errors.New("coroutine already finished")

type CoroutineCreator interface {
	NewCoroutine(ctx Context, fn func(Context) error)
}

// Coroutine is a cooperatively scheduled unit of workflow execution. At any
// point in time it is either running, blocked waiting for Execute, or
// finished.
type Coroutine interface {
	// Execute resumes a blocked coroutine and returns once it has yielded
	// again or finished
	Execute()

	// Yield suspends the coroutine until the next Execute call
	Yield()

	// Exit aborts a blocked coroutine, running its deferred functions
	Exit()

	Blocked() bool
	Finished() bool
	Progress() bool

	Error() error

	SetCoroutineCreator(creator CoroutineCreator)
}

type key int

var coroutinesCtxKey key

// coState backs a single coroutine. The coroutine body runs on its own
// goroutine, handshaking with the caller of Execute through the yielded and
// resume channels so that only one of the two sides runs at a time.
type coState struct {
	yielded chan struct{} // signaled whenever the coroutine blocks or finishes
	resume  chan struct{} // signaled to let the coroutine continue

	blocked       atomic.Bool
	finished      atomic.Bool
	exitRequested atomic.Bool
	progress      atomic.Bool

	err error

	deadlockDetection time.Duration

	creator CoroutineCreator
}

func NewCoroutine(ctx Context, fn func(ctx Context) error) Coroutine {
	s := newState()
	ctx = withCoState(ctx, s)

	go func() {
		defer s.finish()
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok && errors.Is(err, ErrCoroutineAlreadyFinished) {
					return
				}

				s.err = fmt.Errorf("panic: %v", r)
			}
		}()

		// Body does not run until the first Execute call
		s.yield(false)

		s.err = fn(ctx)
	}()

	return s
}

func newState() *coState {
	c := &coState{
		yielded:           make(chan struct{}, 1),
		resume:            make(chan struct{}),
		deadlockDetection: DeadlockDetection,
	}

	c.blocked.Store(true)

	return c
}

func (s *coState) Execute() {
	s.ResetProgress()

	if s.Finished() {
		return
	}

	t := time.NewTimer(s.deadlockDetection)
	defer t.Stop()

	s.resume <- struct{}{}

	runtime.Gosched()

	select {
	case <-s.yielded:
		// Coroutine blocked or finished
	case <-t.C:
		panic("coroutine timed out")
	}
}

func (s *coState) Yield() {
	s.yield(true)
}

func (s *coState) yield(markBlocking bool) {
	if markBlocking {
		if s.exitRequested.Load() {
			panic(ErrCoroutineAlreadyFinished)
		}

		s.blocked.Store(true)

		s.yielded <- struct{}{}
	}

	<-s.resume

	if s.exitRequested.Load() {
		// Goexit runs the deferred finish(), which marks the coroutine as
		// finished and signals the yielded channel
		runtime.Goexit()
	}

	s.blocked.Store(false)
}

func (s *coState) Exit() {
	if s.Finished() {
		return
	}

	s.exitRequested.Store(true)
	s.Execute()
}

func (s *coState) finish() {
	s.finished.Store(true)
	s.yielded <- struct{}{}
}

func (s *coState) Finished() bool {
	return s.finished.Load()
}

func (s *coState) Blocked() bool {
	return s.blocked.Load()
}

func (s *coState) MadeProgress() {
	s.progress.Store(true)
}

func (s *coState) ResetProgress() {
	s.progress.Store(false)
}

func (s *coState) Progress() bool {
	return s.progress.Load()
}

func (s *coState) Error() error {
	return s.err
}

func (s *coState) SetCoroutineCreator(creator CoroutineCreator) {
	s.creator = creator
}

func withCoState(ctx Context, s *coState) Context {
	return WithValue(ctx, coroutinesCtxKey, s)
}

func getCoState(ctx Context) *coState {
	s, ok := ctx.Value(coroutinesCtxKey).(*coState)
	if !ok {
		panic("could not find coroutine state")
	}

	return s
}
