package taskqueue

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/core"
)

var ErrTaskNotFound = errors.New("task not found")

// Item is a task handed out by the queue. It stays leased to the caller until
// it is completed or the lock times out, after which it becomes eligible for
// redelivery.
type Item[T any] struct {
	// ID is the caller-provided id of the task
	ID string

	// Queue the task was enqueued to
	Queue core.Queue

	// LeaseTimeout overrides the queue's lock timeout for this task. While
	// leased, the holder has to extend the lease within this window or the
	// task is redelivered. Zero uses the queue default.
	LeaseTimeout time.Duration

	Data T
}

func (i *Item[T]) leaseWindow(fallback time.Duration) time.Duration {
	if i.LeaseTimeout > 0 {
		return i.LeaseTimeout
	}

	return fallback
}

type lease[T any] struct {
	item        *Item[T]
	lockedUntil time.Time
}

// Queue is an in-memory task queue partitioned by queue name, with
// at-most-one delivery per lock period. Abandoned tasks are redelivered once
// their lock expires.
type Queue[T any] struct {
	mu sync.Mutex

	clock       clock.Clock
	lockTimeout time.Duration

	pending map[core.Queue][]*Item[T]
	leased  map[string]*lease[T]
}

func New[T any](clock clock.Clock, lockTimeout time.Duration) *Queue[T] {
	return &Queue[T]{
		clock:       clock,
		lockTimeout: lockTimeout,
		pending:     map[core.Queue][]*Item[T]{},
		leased:      map[string]*lease[T]{},
	}
}

func (q *Queue[T]) Enqueue(queue core.Queue, id string, data T) {
	q.EnqueueWithLease(queue, id, data, 0)
}

// EnqueueWithLease enqueues a task with its own lease window. A leaseTimeout
// of zero uses the queue's lock timeout.
func (q *Queue[T]) EnqueueWithLease(queue core.Queue, id string, data T, leaseTimeout time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending[queue] = append(q.pending[queue], &Item[T]{
		ID:           id,
		Queue:        queue,
		LeaseTimeout: leaseTimeout,
		Data:         data,
	})
}

// Dequeue returns the next task from any of the given queues, or nil if all of
// them are empty. Abandoned tasks are recovered before new ones are handed
// out.
func (q *Queue[T]) Dequeue(queues []core.Queue) *Item[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock.Now()

	accept := make(map[core.Queue]bool, len(queues))
	for _, queue := range queues {
		accept[queue] = true
	}

	// Recover abandoned tasks
	for _, l := range q.leased {
		if accept[l.item.Queue] && l.lockedUntil.Before(now) {
			l.lockedUntil = now.Add(l.item.leaseWindow(q.lockTimeout))
			return l.item
		}
	}

	for _, queue := range queues {
		items := q.pending[queue]
		if len(items) == 0 {
			continue
		}

		item := items[0]
		q.pending[queue] = items[1:]

		q.leased[item.ID] = &lease[T]{
			item:        item,
			lockedUntil: now.Add(item.leaseWindow(q.lockTimeout)),
		}

		return item
	}

	return nil
}

// Extend resets the lock timeout of a leased task.
func (q *Queue[T]) Extend(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.leased[id]
	if !ok {
		return ErrTaskNotFound
	}

	l.lockedUntil = q.clock.Now().Add(l.item.leaseWindow(q.lockTimeout))

	return nil
}

// Complete removes a leased task from the queue.
func (q *Queue[T]) Complete(id string) (*Item[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.leased[id]
	if !ok {
		return nil, ErrTaskNotFound
	}

	delete(q.leased, id)

	return l.item, nil
}

// Size returns the number of tasks in the queue, including leased ones.
func (q *Queue[T]) Size() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := int64(len(q.leased))
	for _, items := range q.pending {
		size += int64(len(items))
	}

	return size
}
