package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/metrics"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/metrickeys"
	"github.com/everflowhq/everflow/registry"
	"github.com/everflowhq/everflow/workflow/executor"
	"github.com/everflowhq/everflow/workflow/executor/cache"
)

type WorkflowWorkerOptions struct {
	WorkerOptions

	WorkflowExecutorCache     executor.Cache
	WorkflowExecutorCacheSize int
	WorkflowExecutorCacheTTL  time.Duration
}

type workflowWorker struct {
	*Worker[backend.WorkflowTask, executor.ExecutionResult]

	cache executor.Cache
}

func NewWorkflowWorker(
	b backend.Backend,
	r *registry.Registry,
	options WorkflowWorkerOptions,
) *workflowWorker {
	c := options.WorkflowExecutorCache
	if c == nil {
		c = cache.NewWorkflowExecutorLRUCache(
			b.Metrics(), options.WorkflowExecutorCacheSize, options.WorkflowExecutorCacheTTL)
	}

	tw := &WorkflowTaskWorker{
		backend:  b,
		registry: r,
		cache:    c,
		logger:   b.Options().Logger,
		clock:    clock.New(),
		queues:   options.Queues,
	}

	return &workflowWorker{
		Worker: NewWorker[backend.WorkflowTask, executor.ExecutionResult](b, tw, &options.WorkerOptions),
		cache:  c,
	}
}

func (ww *workflowWorker) Start(ctx context.Context) error {
	go ww.cache.StartEviction(ctx)

	return ww.Worker.Start(ctx)
}

type WorkflowTaskWorker struct {
	backend  backend.Backend
	registry *registry.Registry
	cache    executor.Cache
	logger   *slog.Logger
	clock    clock.Clock
	queues   []core.Queue
}

func (wtw *WorkflowTaskWorker) Get(ctx context.Context) (*backend.WorkflowTask, error) {
	return wtw.backend.GetWorkflowTask(ctx, wtw.queues)
}

func (wtw *WorkflowTaskWorker) Extend(ctx context.Context, t *backend.WorkflowTask) error {
	return wtw.backend.ExtendWorkflowTask(ctx, t)
}

func (wtw *WorkflowTaskWorker) Execute(ctx context.Context, t *backend.WorkflowTask) (*executor.ExecutionResult, error) {
	m := wtw.backend.Metrics().WithTags(metrics.Tags{metrickeys.QueueName: string(t.Queue)})

	// Record how long this task was in the queue
	if len(t.NewEvents) > 0 {
		scheduledAt := t.NewEvents[0].Timestamp
		timeInQueue := wtw.clock.Since(scheduledAt)
		m.Distribution(metrickeys.WorkflowTaskDelay, metrics.Tags{}, float64(timeInQueue/time.Millisecond))
	}

	timer := metrics.Timer(m, metrickeys.WorkflowTaskProcessed, metrics.Tags{})
	defer timer.Stop()

	e, err := wtw.getExecutor(ctx, t)
	if err != nil {
		return nil, err
	}

	result, err := e.ExecuteTask(ctx, t)
	if err != nil {
		// The executor state is undefined after an error, do not reuse it
		if cerr := wtw.cache.Evict(ctx, t.WorkflowInstance); cerr != nil {
			wtw.logger.Error("could not evict executor from cache", "error", cerr)
		}

		return nil, fmt.Errorf("executing workflow task: %w", err)
	}

	if result.State != core.WorkflowInstanceStateActive {
		// The instance is finished or continued as new, the cached state will
		// not be needed again.
		if cerr := wtw.cache.Evict(ctx, t.WorkflowInstance); cerr != nil {
			wtw.logger.Error("could not evict executor from cache", "error", cerr)
		}
	}

	return result, nil
}

func (wtw *WorkflowTaskWorker) Complete(ctx context.Context, result *executor.ExecutionResult, t *backend.WorkflowTask) error {
	if err := wtw.backend.CompleteWorkflowTask(
		ctx, t, result.State, result.Executed, result.ActivityEvents, result.TimerEvents, result.WorkflowEvents,
	); err != nil {
		wtw.logger.Error("could not complete workflow task", "error", err)
		return fmt.Errorf("completing workflow task: %w", err)
	}

	if result.State == core.WorkflowInstanceStateFinished || result.State == core.WorkflowInstanceStateContinuedAsNew {
		wtw.backend.Metrics().Counter(metrickeys.WorkflowInstanceFinished, metrics.Tags{
			metrickeys.ContinuedAsNew: fmt.Sprint(result.State == core.WorkflowInstanceStateContinuedAsNew),
		}, 1)
	}

	m := wtw.backend.Metrics()
	m.Distribution(metrickeys.WorkflowHistorySize, metrics.Tags{}, float64(t.LastSequenceID+int64(len(result.Executed))))

	return nil
}

func (wtw *WorkflowTaskWorker) getExecutor(ctx context.Context, t *backend.WorkflowTask) (executor.WorkflowExecutor, error) {
	if e, ok, err := wtw.cache.Get(ctx, t.WorkflowInstance); err != nil {
		wtw.logger.Error("could not get cached executor", "error", err)
	} else if ok {
		return e, nil
	}

	options := wtw.backend.Options()

	e, err := executor.NewExecutor(
		options.Logger,
		wtw.backend.Tracer(),
		wtw.registry,
		options.Converter,
		wtw.backend,
		t.WorkflowInstance,
		wtw.clock,
		options.SuggestContinueAsNewAt,
		options.MaxHistorySize,
	)
	if err != nil {
		return nil, fmt.Errorf("creating workflow executor: %w", err)
	}

	if err := wtw.cache.Store(ctx, t.WorkflowInstance, e); err != nil {
		wtw.logger.Error("could not store executor in cache", "error", err)
	}

	return e, nil
}
