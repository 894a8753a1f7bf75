package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/workflow"
)

const defaultPollTimeout = 30 * time.Second

// TaskWorker describes one kind of task processing: how tasks are fetched,
// kept alive, executed, and checkpointed.
type TaskWorker[Task, Result any] interface {
	Get(context.Context) (*Task, error)
	Extend(context.Context, *Task) error
	Execute(context.Context, *Task) (*Result, error)
	Complete(context.Context, *Result, *Task) error
}

type WorkerOptions struct {
	Pollers int

	MaxParallelTasks int

	HeartbeatInterval time.Duration

	PollingInterval time.Duration

	Queues []workflow.Queue
}

// Worker runs a pool of pollers feeding tasks into a dispatcher. Pollers
// stop when the start context is canceled; in-flight tasks run to completion
// on their own context so checkpoints are not lost during shutdown.
type Worker[Task, TaskResult any] struct {
	tw TaskWorker[Task, TaskResult]

	options *WorkerOptions

	tasks chan *Task

	pollers sync.WaitGroup

	dispatcherDone chan struct{}

	logger *slog.Logger
}

func NewWorker[Task, TaskResult any](
	b backend.Backend, tw TaskWorker[Task, TaskResult], options *WorkerOptions,
) *Worker[Task, TaskResult] {
	return &Worker[Task, TaskResult]{
		tw:             tw,
		options:        options,
		tasks:          make(chan *Task),
		dispatcherDone: make(chan struct{}, 1),
		logger:         b.Options().Logger,
	}
}

func (w *Worker[Task, TaskResult]) Start(ctx context.Context) error {
	w.pollers.Add(w.options.Pollers)

	for i := 0; i < w.options.Pollers; i++ {
		go w.poll(ctx)
	}

	go w.dispatch()

	return nil
}

func (w *Worker[Task, TaskResult]) WaitForCompletion() error {
	w.pollers.Wait()

	// No more tasks will be produced, let the dispatcher drain
	close(w.tasks)
	<-w.dispatcherDone

	return nil
}

func (w *Worker[Task, TaskResult]) poll(ctx context.Context) {
	defer w.pollers.Done()

	ticker := time.NewTicker(w.options.PollingInterval)
	defer ticker.Stop()

	for {
		task, err := w.getTask(ctx)
		switch {
		case err != nil:
			w.logger.ErrorContext(ctx, "error polling task", "error", err)
		case task != nil:
			w.tasks <- task
			// Skip the polling interval while the queue has work
			continue
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker[Task, TaskResult]) getTask(ctx context.Context) (*Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultPollTimeout)
	defer cancel()

	task, err := w.tw.Get(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}

		return nil, err
	}

	return task, nil
}

func (w *Worker[Task, TaskResult]) dispatch() {
	var sem chan struct{}
	if w.options.MaxParallelTasks > 0 {
		sem = make(chan struct{}, w.options.MaxParallelTasks)
	}

	var inflight sync.WaitGroup

	for t := range w.tasks {
		if sem != nil {
			sem <- struct{}{}
		}

		inflight.Add(1)

		t := t
		go func() {
			defer inflight.Done()

			// Detached from the start context so a task picked up before
			// shutdown still checkpoints
			if err := w.handle(context.Background(), t); err != nil {
				w.logger.Error("error handling task", "error", err)
			}

			if sem != nil {
				<-sem
			}
		}()
	}

	inflight.Wait()

	w.dispatcherDone <- struct{}{}
}

func (w *Worker[Task, TaskResult]) handle(ctx context.Context, t *Task) error {
	if w.options.HeartbeatInterval > 0 {
		heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
		defer cancelHeartbeat()
		go w.heartbeat(heartbeatCtx, t)
	}

	result, err := w.tw.Execute(ctx, t)
	if err != nil {
		return fmt.Errorf("executing task: %w", err)
	}

	return w.tw.Complete(ctx, result, t)
}

// heartbeat extends the task lock for as long as the task is being worked
// on, preventing the backend from redelivering it.
func (w *Worker[Task, TaskResult]) heartbeat(ctx context.Context, task *Task) {
	t := time.NewTicker(w.options.HeartbeatInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := w.tw.Extend(ctx, task); err != nil {
				w.logger.ErrorContext(ctx, "could not heartbeat task", "error", err)
			}
		}
	}
}
