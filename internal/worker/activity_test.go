package worker

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/memory"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/activity"
	"github.com/everflowhq/everflow/internal/fn"
	"github.com/everflowhq/everflow/registry"
)

func newActivityTaskWorker(b backend.Backend, r *registry.Registry) *ActivityTaskWorker {
	options := b.Options()

	ae := activity.NewExecutor(options.Logger, b.Tracer(), options.Converter, r, b)

	return &ActivityTaskWorker{
		backend:          b,
		activityExecutor: ae,
		logger:           options.Logger,
		clock:            clock.New(),
		queues:           []core.Queue{core.QueueDefault},
	}
}

func Test_ActivityTaskWorker_ScheduleToStartTimeout(t *testing.T) {
	executed := false
	act := func(ctx context.Context) error {
		executed = true
		return nil
	}

	r := registry.New()
	require.NoError(t, r.RegisterActivity(act))

	tw := newActivityTaskWorker(memory.NewMemoryBackend(), r)

	// The task spent longer in the queue than its schedule-to-start timeout
	task := &backend.ActivityTask{
		ID:               uuid.NewString(),
		Queue:            core.QueueDefault,
		WorkflowInstance: core.NewWorkflowInstance(uuid.NewString(), uuid.NewString()),
		Event: history.NewPendingEvent(
			time.Now().Add(-time.Minute),
			history.EventType_ActivityScheduled,
			&history.ActivityScheduledAttributes{
				Name:                   fn.Name(act),
				Inputs:                 []payload.Payload{},
				ScheduleToStartTimeout: time.Second,
			},
			history.ScheduleEventID(1),
		),
	}

	event, err := tw.Execute(context.Background(), task)
	require.NoError(t, err)
	require.Equal(t, history.EventType_ActivityFailed, event.Type)
	require.False(t, executed)

	a := event.Attributes.(*history.ActivityFailedAttributes)
	require.Contains(t, a.Error.Message, "schedule-to-start")
}

func Test_ActivityTaskWorker_ExecutesFreshTask(t *testing.T) {
	act := func(ctx context.Context, x int) (int, error) {
		return x * 2, nil
	}

	r := registry.New()
	require.NoError(t, r.RegisterActivity(act))

	b := memory.NewMemoryBackend()
	tw := newActivityTaskWorker(b, r)

	input, err := b.Options().Converter.To(21)
	require.NoError(t, err)

	task := &backend.ActivityTask{
		ID:               uuid.NewString(),
		Queue:            core.QueueDefault,
		WorkflowInstance: core.NewWorkflowInstance(uuid.NewString(), uuid.NewString()),
		Event: history.NewPendingEvent(
			time.Now(),
			history.EventType_ActivityScheduled,
			&history.ActivityScheduledAttributes{
				Name:                   fn.Name(act),
				Inputs:                 []payload.Payload{input},
				ScheduleToStartTimeout: time.Minute,
			},
			history.ScheduleEventID(1),
		),
	}

	event, err := tw.Execute(context.Background(), task)
	require.NoError(t, err)
	require.Equal(t, history.EventType_ActivityCompleted, event.Type)

	a := event.Attributes.(*history.ActivityCompletedAttributes)
	var result int
	require.NoError(t, b.Options().Converter.From(a.Result, &result))
	require.Equal(t, 42, result)
}
