package worker

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend"
	internal "github.com/everflowhq/everflow/internal/worker"
	"github.com/everflowhq/everflow/registry"
	"github.com/everflowhq/everflow/workflow"
)

type Worker struct {
	backend backend.Backend

	registry *registry.Registry

	workers []worker
}

type worker interface {
	Start(context.Context) error
	WaitForCompletion() error
}

// New creates a worker that processes both workflow and activity tasks.
func New(backend backend.Backend, options *Options) *Worker {
	r := registry.New()

	if options == nil {
		options = &DefaultOptions
	}

	workflowWorker := newWorkflowWorker(backend, r, &options.WorkflowWorkerOptions)
	activityWorker := newActivityWorker(backend, r, &options.ActivityWorkerOptions)

	return newWorker(backend, r, []worker{workflowWorker, activityWorker})
}

// NewWorkflowWorker creates a worker that only processes workflow tasks.
func NewWorkflowWorker(backend backend.Backend, options *WorkflowWorkerOptions) *Worker {
	r := registry.New()

	if options == nil {
		options = &DefaultOptions.WorkflowWorkerOptions
	}

	return newWorker(backend, r, []worker{newWorkflowWorker(backend, r, options)})
}

// NewActivityWorker creates a worker that only processes activity tasks.
func NewActivityWorker(backend backend.Backend, options *ActivityWorkerOptions) *Worker {
	r := registry.New()

	if options == nil {
		options = &DefaultOptions.ActivityWorkerOptions
	}

	return newWorker(backend, r, []worker{newActivityWorker(backend, r, options)})
}

func newWorker(backend backend.Backend, r *registry.Registry, workers []worker) *Worker {
	return &Worker{
		backend: backend,

		workers:  workers,
		registry: r,
	}
}

func newWorkflowWorker(backend backend.Backend, r *registry.Registry, options *WorkflowWorkerOptions) worker {
	queues := options.WorkflowQueues
	if len(queues) == 0 {
		queues = []workflow.Queue{workflow.QueueDefault}
	}

	return internal.NewWorkflowWorker(backend, r, internal.WorkflowWorkerOptions{
		WorkerOptions: internal.WorkerOptions{
			Pollers:           options.WorkflowPollers,
			PollingInterval:   options.WorkflowPollingInterval,
			MaxParallelTasks:  options.MaxParallelWorkflowTasks,
			HeartbeatInterval: options.WorkflowHeartbeatInterval,
			Queues:            queues,
		},
		WorkflowExecutorCache:     options.WorkflowExecutorCache,
		WorkflowExecutorCacheSize: options.WorkflowExecutorCacheSize,
		WorkflowExecutorCacheTTL:  options.WorkflowExecutorCacheTTL,
	})
}

func newActivityWorker(backend backend.Backend, r *registry.Registry, options *ActivityWorkerOptions) worker {
	queues := options.ActivityQueues
	if len(queues) == 0 {
		queues = []workflow.Queue{workflow.QueueDefault}
	}

	return internal.NewActivityWorker(backend, r, clock.New(), internal.WorkerOptions{
		Pollers:           options.ActivityPollers,
		PollingInterval:   options.ActivityPollingInterval,
		MaxParallelTasks:  options.MaxParallelActivityTasks,
		HeartbeatInterval: options.ActivityHeartbeatInterval,
		Queues:            queues,
	})
}

// Start starts the worker.
//
// To stop the worker, cancel the context passed to Start. To wait for completion of the active
// tasks, call `WaitForCompletion`.
func (w *Worker) Start(ctx context.Context) error {
	for _, worker := range w.workers {
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("starting worker: %w", err)
		}
	}

	return nil
}

// WaitForCompletion waits for all active tasks to complete.
func (w *Worker) WaitForCompletion() error {
	for _, worker := range w.workers {
		if err := worker.WaitForCompletion(); err != nil {
			return fmt.Errorf("waiting for worker completion: %w", err)
		}
	}

	return nil
}

// RegisterWorkflow registers a workflow with the worker's registry.
func (w *Worker) RegisterWorkflow(wf workflow.Workflow, opts ...registry.RegisterOption) error {
	return w.registry.RegisterWorkflow(wf, opts...)
}

// RegisterActivity registers an activity with the worker's registry.
func (w *Worker) RegisterActivity(a workflow.Activity, opts ...registry.RegisterOption) error {
	return w.registry.RegisterActivity(a, opts...)
}
