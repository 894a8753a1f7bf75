package activity

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/converter"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/fn"
	"github.com/everflowhq/everflow/registry"
)

type countingLease struct {
	extends atomic.Int32
}

func (l *countingLease) ExtendActivityTask(ctx context.Context, task *backend.ActivityTask) error {
	l.extends.Add(1)
	return nil
}

func newActivityTask(act interface{}, heartbeatTimeout time.Duration) *backend.ActivityTask {
	instance := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())

	return &backend.ActivityTask{
		ID:               uuid.NewString(),
		Queue:            core.QueueDefault,
		WorkflowInstance: instance,
		Event: history.NewPendingEvent(
			time.Now(),
			history.EventType_ActivityScheduled,
			&history.ActivityScheduledAttributes{
				Name:             fn.Name(act),
				Inputs:           []payload.Payload{},
				HeartbeatTimeout: heartbeatTimeout,
			},
			history.ScheduleEventID(1),
		),
	}
}

func Test_ExecuteActivity_MissedHeartbeatFailsAttempt(t *testing.T) {
	act := func(ctx context.Context) (int, error) {
		// Never heartbeats, the watchdog cancels the context
		<-ctx.Done()
		return 0, ctx.Err()
	}

	r := registry.New()
	require.NoError(t, r.RegisterActivity(act))

	e := NewExecutor(slog.Default(), noop.NewTracerProvider().Tracer("test"), converter.DefaultConverter, r, nil)

	_, err := e.ExecuteActivity(context.Background(), newActivityTask(act, 20*time.Millisecond))
	require.Error(t, err)
	require.Contains(t, err.Error(), "heartbeat timeout")
}

func Test_ExecuteActivity_HeartbeatKeepsAttemptAlive(t *testing.T) {
	act := func(ctx context.Context) (int, error) {
		for i := 0; i < 5; i++ {
			time.Sleep(10 * time.Millisecond)
			if err := GetActivityState(ctx).Heartbeat(ctx); err != nil {
				return 0, err
			}
		}

		return 42, nil
	}

	r := registry.New()
	require.NoError(t, r.RegisterActivity(act))

	lease := &countingLease{}
	e := NewExecutor(slog.Default(), noop.NewTracerProvider().Tracer("test"), converter.DefaultConverter, r, lease)

	result, err := e.ExecuteActivity(context.Background(), newActivityTask(act, time.Second))
	require.NoError(t, err)

	var r2 int
	require.NoError(t, converter.DefaultConverter.From(result, &r2))
	require.Equal(t, 42, r2)

	// Every heartbeat renews the task lease
	require.Equal(t, int32(5), lease.extends.Load())
}
