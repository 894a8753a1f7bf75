package workflow

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a "github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/fn"
	"github.com/everflowhq/everflow/internal/log"
	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowstate"
	"github.com/everflowhq/everflow/internal/workflowtracer"
)

type ActivityOptions struct {
	// Queue overrides the queue the activity is scheduled on. By default the
	// activity inherits the workflow's queue.
	Queue Queue

	RetryPolicy RetryPolicy

	// StartToCloseTimeout bounds a single execution attempt.
	StartToCloseTimeout time.Duration

	// ScheduleToCloseTimeout bounds the whole chain of attempts, including
	// time spent queued. At least one of StartToCloseTimeout and
	// ScheduleToCloseTimeout must be set.
	ScheduleToCloseTimeout time.Duration

	// ScheduleToStartTimeout bounds the time a task may spend queued before a
	// worker claims it.
	ScheduleToStartTimeout time.Duration

	// HeartbeatTimeout, if set, requires the executing worker to report
	// liveness within the window. A missed heartbeat fails the attempt.
	HeartbeatTimeout time.Duration
}

var DefaultActivityOptions = ActivityOptions{
	RetryPolicy:         DefaultRetryPolicy,
	StartToCloseTimeout: 5 * time.Minute,
}

// ExecuteActivity schedules the given activity to be executed.
func ExecuteActivity[TResult any](ctx Context, options ActivityOptions, activity Activity, args ...interface{}) Future[TResult] {
	if options.StartToCloseTimeout == 0 && options.ScheduleToCloseTimeout == 0 {
		f := sync.NewFuture[TResult]()
		var zero TResult
		f.Set(zero, errors.New("either StartToCloseTimeout or ScheduleToCloseTimeout must be set"))
		return f
	}

	var expiration time.Time
	if options.ScheduleToCloseTimeout > 0 {
		expiration = Now(ctx).Add(options.ScheduleToCloseTimeout)
	}

	return withRetries(ctx, options.RetryPolicy, expiration, func(ctx Context, attempt int) Future[TResult] {
		return executeActivity[TResult](ctx, options, attempt, activity, args...)
	})
}

func executeActivity[TResult any](ctx Context, options ActivityOptions, attempt int, activity Activity, args ...interface{}) Future[TResult] {
	f := sync.NewFuture[TResult]()

	var zero TResult

	if ctx.Err() != nil {
		f.Set(zero, ctx.Err())
		return f
	}

	// Check return type
	if err := a.ReturnTypeMatch[TResult](activity); err != nil {
		f.Set(zero, err)
		return f
	}

	// Check arguments
	if err := a.ParamsMatch(activity, args...); err != nil {
		f.Set(zero, err)
		return f
	}

	cv := GetConverter(ctx)
	inputs, err := a.ArgsToInputs(cv, args...)
	if err != nil {
		f.Set(zero, fmt.Errorf("converting activity input: %w", err))
		return f
	}

	wfState := workflowstate.WorkflowState(ctx)
	scheduleEventID := wfState.GetNextScheduleEventID()

	name := fn.Name(activity)

	cmd := command.NewScheduleActivityCommand(
		scheduleEventID, options.Queue, name, attempt, inputs, nil,
		options.StartToCloseTimeout, options.ScheduleToStartTimeout, options.HeartbeatTimeout,
	)
	wfState.AddCommand(cmd)
	wfState.TrackFuture(scheduleEventID, workflowstate.AsDecodingSettable(cv, f))

	ctx, span := workflowtracer.Tracer(ctx).Start(ctx,
		fmt.Sprintf("ExecuteActivity: %s", name),
		trace.WithAttributes(
			attribute.String(log.ActivityNameKey, name),
			attribute.Int64(log.ScheduleEventIDKey, scheduleEventID),
			attribute.Int(log.AttemptKey, attempt),
		))
	defer span.End()

	// Handle cancellation
	if d := ctx.Done(); d != nil {
		if c, ok := d.(sync.CancelChannel); ok {
			if _, _, received := c.ReceiveNonblocking(); received {
				// Workflow has been canceled. If the activity has not been
				// scheduled yet there is no need to schedule it at all.
				if cmd.State() == command.CommandState_Pending {
					cmd.Cancel()
					wfState.RemoveCommand(cmd)
					wfState.RemoveFuture(scheduleEventID)
					f.Set(zero, sync.Canceled)
				}
			}
		}
	}

	return f
}
