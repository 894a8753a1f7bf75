// Package monoprocess wraps a backend for deployments where the backend and
// all workers run in the same process. Pollers are woken over channels the
// moment a task becomes available, so dispatch latency does not depend on the
// polling interval.
package monoprocess

import (
	"context"
	"log/slog"
	"time"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/workflow"
)

var _ backend.Backend = (*monoprocessBackend)(nil)

type monoprocessBackend struct {
	backend.Backend

	workflowSignal chan struct{}
	activitySignal chan struct{}
	signalTimeout  time.Duration

	logger *slog.Logger
}

// NewMonoprocessBackend wraps the given backend. Only use it when the backend
// and the workers consuming from it share a process; the wake-up signals do
// not cross process boundaries. Note that a signal wakes a single poller.
func NewMonoprocessBackend(b backend.Backend, signalBufferSize int, signalTimeout time.Duration) backend.Backend {
	if signalTimeout <= 0 {
		signalTimeout = time.Second
	}

	return &monoprocessBackend{
		Backend:        b,
		workflowSignal: make(chan struct{}, signalBufferSize),
		activitySignal: make(chan struct{}, signalBufferSize),
		signalTimeout:  signalTimeout,
		logger:         b.Options().Logger,
	}
}

// GetWorkflowTask blocks until a workflow task is available or the context is
// done.
func (b *monoprocessBackend) GetWorkflowTask(ctx context.Context, queues []workflow.Queue) (*backend.WorkflowTask, error) {
	for {
		if t, err := b.Backend.GetWorkflowTask(ctx, queues); t != nil || err != nil {
			return t, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.workflowSignal:
		}
	}
}

// GetActivityTask blocks until an activity task is available or the context
// is done.
func (b *monoprocessBackend) GetActivityTask(ctx context.Context, queues []workflow.Queue) (*backend.ActivityTask, error) {
	for {
		if t, err := b.Backend.GetActivityTask(ctx, queues); t != nil || err != nil {
			return t, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.activitySignal:
		}
	}
}

func (b *monoprocessBackend) CreateWorkflowInstance(ctx context.Context, instance *workflow.Instance, event *history.Event) error {
	if err := b.Backend.CreateWorkflowInstance(ctx, instance, event); err != nil {
		return err
	}

	b.notifyWorkflowWorker(ctx)
	return nil
}

func (b *monoprocessBackend) CancelWorkflowInstance(ctx context.Context, instance *workflow.Instance, cancelEvent *history.Event) error {
	if err := b.Backend.CancelWorkflowInstance(ctx, instance, cancelEvent); err != nil {
		return err
	}

	b.notifyWorkflowWorker(ctx)
	return nil
}

func (b *monoprocessBackend) SignalWorkflow(ctx context.Context, instanceID string, event *history.Event) error {
	if err := b.Backend.SignalWorkflow(ctx, instanceID, event); err != nil {
		return err
	}

	b.notifyWorkflowWorker(ctx)
	return nil
}

func (b *monoprocessBackend) CompleteWorkflowTask(
	ctx context.Context, task *backend.WorkflowTask, state core.WorkflowInstanceState,
	executedEvents, activityEvents, timerEvents []*history.Event, workflowEvents []*history.WorkflowEvent,
) error {
	if err := b.Backend.CompleteWorkflowTask(ctx, task, state, executedEvents, activityEvents, timerEvents, workflowEvents); err != nil {
		return err
	}

	for range activityEvents {
		if !b.notifyActivityWorker(ctx) {
			// Signal buffer is full, a poller will find the rest anyway
			break
		}
	}

	for _, e := range timerEvents {
		attr, ok := e.Attributes.(*history.TimerFiredAttributes)
		if !ok {
			continue
		}

		// Wake a poller once the timer becomes visible
		time.AfterFunc(time.Until(attr.At), func() {
			b.notifyWorkflowWorker(context.Background())
		})
	}

	for _, e := range workflowEvents {
		switch e.HistoryEvent.Type {
		case history.EventType_WorkflowExecutionStarted,
			history.EventType_SubWorkflowCompleted,
			history.EventType_SubWorkflowFailed,
			history.EventType_WorkflowExecutionCanceled:
		default:
			continue
		}

		if !b.notifyWorkflowWorker(ctx) {
			break
		}
	}

	return nil
}

func (b *monoprocessBackend) CompleteActivityTask(ctx context.Context, task *backend.ActivityTask, result *history.Event) error {
	if err := b.Backend.CompleteActivityTask(ctx, task, result); err != nil {
		return err
	}

	b.notifyWorkflowWorker(ctx)
	return nil
}

func (b *monoprocessBackend) notifyWorkflowWorker(ctx context.Context) bool {
	return notify(ctx, b.workflowSignal, b.signalTimeout)
}

func (b *monoprocessBackend) notifyActivityWorker(ctx context.Context) bool {
	return notify(ctx, b.activitySignal, b.signalTimeout)
}

// notify wakes one waiting poller. When no poller consumes the signal within
// the timeout, the task is found on the next regular poll instead.
func notify(ctx context.Context, signal chan<- struct{}, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-ctx.Done():
		return false
	case signal <- struct{}{}:
		return true
	}
}
