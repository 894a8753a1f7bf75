package activity

import (
	"context"
	"log/slog"

	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/activity"
)

// Logger returns a logger scoped to the workflow instance this activity is
// executed for.
func Logger(ctx context.Context) *slog.Logger {
	return activity.GetActivityState(ctx).Logger
}

// WorkflowInstance returns the workflow instance that scheduled this
// activity.
func WorkflowInstance(ctx context.Context) *core.WorkflowInstance {
	return activity.GetActivityState(ctx).Instance
}

// Attempt returns the zero-based attempt number of this activity execution.
func Attempt(ctx context.Context) int {
	return activity.GetActivityState(ctx).Attempt
}

// Heartbeat reports that a long-running activity is still making progress. It
// renews the task lease and resets the heartbeat timeout window. Activities
// scheduled with a HeartbeatTimeout have to call this within every window or
// their attempt fails.
func Heartbeat(ctx context.Context) error {
	return activity.GetActivityState(ctx).Heartbeat(ctx)
}
