package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/converter"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/log"
	"github.com/everflowhq/everflow/internal/workflowerrors"
	"github.com/everflowhq/everflow/registry"
)

// LeaseExtender renews the lease of a claimed activity task. The backend
// implements it.
type LeaseExtender interface {
	ExtendActivityTask(ctx context.Context, task *backend.ActivityTask) error
}

type Executor struct {
	logger *slog.Logger
	tracer trace.Tracer
	cv     converter.Converter
	r      *registry.Registry
	lease  LeaseExtender
}

func NewExecutor(logger *slog.Logger, tracer trace.Tracer, cv converter.Converter, r *registry.Registry, lease LeaseExtender) Executor {
	return Executor{
		logger: logger,
		tracer: tracer,
		cv:     cv,
		r:      r,
		lease:  lease,
	}
}

// ExecuteActivity runs a single activity attempt. The returned error is the
// error to record in the instance history, the task itself succeeded.
func (e *Executor) ExecuteActivity(ctx context.Context, task *backend.ActivityTask) (payload.Payload, error) {
	a := task.Event.Attributes.(*history.ActivityScheduledAttributes)

	activity, err := e.r.GetActivity(a.Name)
	if err != nil {
		return nil, workflowerrors.FromError(err)
	}

	activityFn := reflect.ValueOf(activity)
	if activityFn.Type().Kind() != reflect.Func {
		return nil, workflowerrors.FromError(errors.New("activity not a function"))
	}

	callArgs, addContext, err := args.InputsToArgs(e.cv, activityFn, a.Inputs)
	if err != nil {
		return nil, workflowerrors.FromError(fmt.Errorf("converting activity inputs: %w", err))
	}

	// Make activity state available to the activity code
	as := NewActivityState(task.Event.ID, a.Attempt, task.WorkflowInstance, e.logger)
	if e.lease != nil {
		as.extend = func(ctx context.Context) error {
			return e.lease.ExtendActivityTask(ctx, task)
		}
	}
	activityCtx := WithActivityState(ctx, as)

	// Enforce the per-attempt timeout
	if a.StartToCloseTimeout > 0 {
		var cancel context.CancelFunc
		activityCtx, cancel = context.WithTimeout(activityCtx, a.StartToCloseTimeout)
		defer cancel()
	}

	// With a heartbeat timeout set, the activity has to report liveness
	// within the window or its attempt fails
	var heartbeatMissed *atomic.Bool
	if a.HeartbeatTimeout > 0 {
		var cancel context.CancelFunc
		activityCtx, cancel = context.WithCancel(activityCtx)
		defer cancel()

		heartbeatMissed = &atomic.Bool{}
		go watchHeartbeats(activityCtx, a.HeartbeatTimeout, as.heartbeats, heartbeatMissed, cancel)
	}

	activityCtx, span := e.tracer.Start(activityCtx, fmt.Sprintf("ActivityTask: %s", a.Name), trace.WithAttributes(
		attribute.String(log.ActivityNameKey, a.Name),
		attribute.Int(log.AttemptKey, a.Attempt),
		attribute.String(log.InstanceIDKey, task.WorkflowInstance.InstanceID),
		attribute.String(log.TaskIDKey, task.ID),
	))
	defer span.End()

	if addContext {
		callArgs[0] = reflect.ValueOf(activityCtx)
	}

	r, err := callActivity(activityFn, callArgs)

	if heartbeatMissed != nil && heartbeatMissed.Load() {
		return nil, workflowerrors.FromError(
			fmt.Errorf("activity %s exceeded its heartbeat timeout of %v", a.Name, a.HeartbeatTimeout))
	}

	if err != nil {
		return nil, workflowerrors.FromError(err)
	}

	if len(r) < 1 || len(r) > 2 {
		return nil, workflowerrors.FromError(errors.New("activity has to return either (error) or (result, error)"))
	}

	var result payload.Payload

	if len(r) > 1 {
		var err error
		result, err = e.cv.To(r[0].Interface())
		if err != nil {
			return nil, workflowerrors.FromError(fmt.Errorf("converting activity result: %w", err))
		}
	}

	errResult := r[len(r)-1]
	if errResult.IsNil() {
		return result, nil
	}

	errInterface, ok := errResult.Interface().(error)
	if !ok {
		return nil, workflowerrors.FromError(
			fmt.Errorf("activity error result does not satisfy error interface (%T): %v", errResult, errResult))
	}

	return result, workflowerrors.FromError(errInterface)
}

// watchHeartbeats cancels the activity context when no heartbeat arrives
// within the timeout window. Every heartbeat resets the window.
func watchHeartbeats(ctx context.Context, timeout time.Duration, heartbeats <-chan struct{}, missed *atomic.Bool, cancel context.CancelFunc) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeats:
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
			t.Reset(timeout)

		case <-t.C:
			missed.Store(true)
			cancel()
			return
		}
	}
}

// callActivity invokes the activity function, converting panics into errors
// so a panicking activity fails its attempt instead of crashing the worker.
func callActivity(fn reflect.Value, callArgs []reflect.Value) (r []reflect.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = workflowerrors.NewPanicError(fmt.Sprintf("panic in activity: %v", rec))
		}
	}()

	return fn.Call(callArgs), nil
}
