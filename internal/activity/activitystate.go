package activity

import (
	"context"
	"log/slog"

	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/log"
)

// ActivityState is made available to activity code through its context.
type ActivityState struct {
	ActivityID string
	Attempt    int
	Instance   *core.WorkflowInstance
	Logger     *slog.Logger

	// heartbeats receives a value for every reported heartbeat, consumed by
	// the watchdog enforcing the heartbeat timeout
	heartbeats chan struct{}

	// extend renews the task lease with the backend, nil when the executor
	// runs without one
	extend func(context.Context) error
}

func NewActivityState(activityID string, attempt int, instance *core.WorkflowInstance, logger *slog.Logger) *ActivityState {
	return &ActivityState{
		ActivityID: activityID,
		Attempt:    attempt,
		Instance:   instance,
		Logger: logger.With(
			log.ActivityIDKey, activityID,
			log.AttemptKey, attempt,
			log.InstanceIDKey, instance.InstanceID,
			log.ExecutionIDKey, instance.ExecutionID,
		),
		heartbeats: make(chan struct{}, 1),
	}
}

// Heartbeat reports that the activity is still making progress. It renews the
// task lease and resets the heartbeat timeout window.
func (as *ActivityState) Heartbeat(ctx context.Context) error {
	select {
	case as.heartbeats <- struct{}{}:
	default:
	}

	if as.extend == nil {
		return nil
	}

	return as.extend(ctx)
}

type key int

var activityCtxKey key

func WithActivityState(ctx context.Context, as *ActivityState) context.Context {
	return context.WithValue(ctx, activityCtxKey, as)
}

func GetActivityState(ctx context.Context) *ActivityState {
	return ctx.Value(activityCtxKey).(*ActivityState)
}
