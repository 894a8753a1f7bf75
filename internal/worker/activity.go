package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metrics"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/activity"
	"github.com/everflowhq/everflow/internal/metrickeys"
	"github.com/everflowhq/everflow/internal/workflowerrors"
	"github.com/everflowhq/everflow/registry"
)

type activityWorker struct {
	*Worker[backend.ActivityTask, history.Event]
}

func NewActivityWorker(
	b backend.Backend,
	r *registry.Registry,
	clock clock.Clock,
	options WorkerOptions,
) *activityWorker {
	options_ := b.Options()

	ae := activity.NewExecutor(options_.Logger, b.Tracer(), options_.Converter, r, b)

	tw := &ActivityTaskWorker{
		backend:          b,
		activityExecutor: ae,
		logger:           options_.Logger,
		clock:            clock,
		queues:           options.Queues,
	}

	return &activityWorker{
		Worker: NewWorker[backend.ActivityTask, history.Event](b, tw, &options),
	}
}

type ActivityTaskWorker struct {
	backend          backend.Backend
	activityExecutor activity.Executor
	logger           *slog.Logger
	clock            clock.Clock
	queues           []core.Queue
}

func (atw *ActivityTaskWorker) Get(ctx context.Context) (*backend.ActivityTask, error) {
	return atw.backend.GetActivityTask(ctx, atw.queues)
}

func (atw *ActivityTaskWorker) Extend(ctx context.Context, t *backend.ActivityTask) error {
	return atw.backend.ExtendActivityTask(ctx, t)
}

func (atw *ActivityTaskWorker) Execute(ctx context.Context, t *backend.ActivityTask) (*history.Event, error) {
	a, ok := t.Event.Attributes.(*history.ActivityScheduledAttributes)
	if !ok {
		return nil, fmt.Errorf("activity task did not contain a scheduled activity event")
	}

	m := atw.backend.Metrics().WithTags(metrics.Tags{metrickeys.ActivityName: a.Name})

	// Record how long this task was in the queue
	scheduledAt := t.Event.Timestamp
	timeInQueue := atw.clock.Since(scheduledAt)
	m.Distribution(metrickeys.ActivityTaskDelay, metrics.Tags{}, float64(timeInQueue/time.Millisecond))

	// A task claimed after its schedule-to-start timeout fails without
	// executing, the retry policy decides whether it is scheduled again
	if a.ScheduleToStartTimeout > 0 && timeInQueue > a.ScheduleToStartTimeout {
		return history.NewPendingEvent(
			atw.clock.Now(),
			history.EventType_ActivityFailed,
			&history.ActivityFailedAttributes{
				Error: workflowerrors.FromError(
					fmt.Errorf("activity %s was not claimed within its schedule-to-start timeout of %v", a.Name, a.ScheduleToStartTimeout)),
			},
			history.ScheduleEventID(t.Event.ScheduleEventID),
		), nil
	}

	timer := metrics.Timer(m, metrickeys.ActivityTaskProcessed, metrics.Tags{})
	defer timer.Stop()

	result, err := atw.activityExecutor.ExecuteActivity(ctx, t)

	var event *history.Event

	if err != nil {
		event = history.NewPendingEvent(
			atw.clock.Now(),
			history.EventType_ActivityFailed,
			&history.ActivityFailedAttributes{
				Error: workflowerrors.FromError(err),
			},
			history.ScheduleEventID(t.Event.ScheduleEventID),
		)
	} else {
		event = history.NewPendingEvent(
			atw.clock.Now(),
			history.EventType_ActivityCompleted,
			&history.ActivityCompletedAttributes{
				Result: result,
			},
			history.ScheduleEventID(t.Event.ScheduleEventID),
		)
	}

	return event, nil
}

func (atw *ActivityTaskWorker) Complete(ctx context.Context, event *history.Event, t *backend.ActivityTask) error {
	if err := atw.backend.CompleteActivityTask(ctx, t, event); err != nil {
		atw.logger.Error("could not complete activity task", "error", err)
		return fmt.Errorf("completing activity task: %w", err)
	}

	return nil
}
