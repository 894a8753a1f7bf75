package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/workflow"
)

var defaultQueues = []workflow.Queue{core.QueueDefault}

func startEvent(queue core.Queue) *history.Event {
	return history.NewPendingEvent(
		time.Now(),
		history.EventType_WorkflowExecutionStarted,
		&history.ExecutionStartedAttributes{
			Name:     "workflow",
			Queue:    queue,
			Metadata: &metadata.WorkflowMetadata{},
		},
	)
}

func createInstance(t *testing.T, b backend.Backend, queue core.Queue) *core.WorkflowInstance {
	t.Helper()

	instance := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())
	require.NoError(t, b.CreateWorkflowInstance(context.Background(), instance, startEvent(queue)))

	return instance
}

func getTask(t *testing.T, b backend.Backend, queues []workflow.Queue) *backend.WorkflowTask {
	t.Helper()

	task, err := b.GetWorkflowTask(context.Background(), queues)
	require.NoError(t, err)
	require.NotNil(t, task)

	return task
}

func Test_MemoryBackend_CreateWorkflowInstance(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)

	state, err := b.GetWorkflowInstanceState(ctx, instance)
	require.NoError(t, err)
	require.Equal(t, core.WorkflowInstanceStateActive, state)
}

func Test_MemoryBackend_CreateWorkflowInstance_Duplicate(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)

	// Another execution of the same instance id while one is active
	second := core.NewWorkflowInstance(instance.InstanceID, uuid.NewString())
	err := b.CreateWorkflowInstance(ctx, second, startEvent(core.QueueDefault))
	require.ErrorIs(t, err, backend.ErrInstanceAlreadyExists)
}

func Test_MemoryBackend_CreateWorkflowInstance_RequiresStartEvent(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())
	event := history.NewPendingEvent(time.Now(), history.EventType_SignalReceived, &history.SignalReceivedAttributes{})

	require.Error(t, b.CreateWorkflowInstance(ctx, instance, event))
}

func Test_MemoryBackend_GetWorkflowTask(t *testing.T) {
	b := NewMemoryBackend()

	instance := createInstance(t, b, core.QueueDefault)

	task := getTask(t, b, defaultQueues)
	require.Equal(t, instance, task.WorkflowInstance)
	require.Equal(t, core.QueueDefault, task.Queue)
	require.Equal(t, int64(0), task.LastSequenceID)
	require.Len(t, task.NewEvents, 1)
	require.Equal(t, history.EventType_WorkflowExecutionStarted, task.NewEvents[0].Type)
}

func Test_MemoryBackend_GetWorkflowTask_LocksInstance(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	createInstance(t, b, core.QueueDefault)

	getTask(t, b, defaultQueues)

	// Instance is locked, no task available until the first one completes
	task, err := b.GetWorkflowTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, task)
}

func Test_MemoryBackend_GetWorkflowTask_FiltersQueues(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	createInstance(t, b, "compute")

	task, err := b.GetWorkflowTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, task)

	task = getTask(t, b, []workflow.Queue{"compute"})
	require.Equal(t, core.Queue("compute"), task.Queue)
}

func Test_MemoryBackend_CompleteWorkflowTask_Checkpoints(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	executed := markSequence(task.NewEvents, 1)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateActive, executed, nil, nil, nil))

	h, err := b.GetWorkflowInstanceHistory(ctx, instance, nil)
	require.NoError(t, err)
	require.Len(t, h, 1)
	require.Equal(t, history.EventType_WorkflowExecutionStarted, h[0].Type)

	// All pending events are handled, no further task
	task2, err := b.GetWorkflowTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, task2)
}

func Test_MemoryBackend_CompleteWorkflowTask_Finishes(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	executed := markSequence(task.NewEvents, 1)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateFinished, executed, nil, nil, nil))

	state, err := b.GetWorkflowInstanceState(ctx, instance)
	require.NoError(t, err)
	require.Equal(t, core.WorkflowInstanceStateFinished, state)

	// Finished instances can be removed
	require.NoError(t, b.RemoveWorkflowInstance(ctx, instance))

	_, err = b.GetWorkflowInstanceState(ctx, instance)
	require.ErrorIs(t, err, backend.ErrInstanceNotFound)
}

func Test_MemoryBackend_CompleteWorkflowTask_SchedulesActivities(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	activityEvent := history.NewPendingEvent(
		time.Now(),
		history.EventType_ActivityScheduled,
		&history.ActivityScheduledAttributes{Name: "activity"},
		history.ScheduleEventID(1),
	)

	executed := append(markSequence(task.NewEvents, 1), activityEvent)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateActive, executed, []*history.Event{activityEvent}, nil, nil))

	at, err := b.GetActivityTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.NotNil(t, at)
	require.Equal(t, instance, at.WorkflowInstance)
	require.Equal(t, history.EventType_ActivityScheduled, at.Event.Type)

	// Completing the activity queues its result for the workflow instance
	result := history.NewPendingEvent(
		time.Now(), history.EventType_ActivityCompleted, &history.ActivityCompletedAttributes{}, history.ScheduleEventID(1))
	require.NoError(t, b.CompleteActivityTask(ctx, at, result))

	task2 := getTask(t, b, defaultQueues)
	require.Len(t, task2.NewEvents, 1)
	require.Equal(t, history.EventType_ActivityCompleted, task2.NewEvents[0].Type)
}

func Test_MemoryBackend_CompleteWorkflowTask_ActivityQueueOverride(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	queue := core.Queue("compute")
	activityEvent := history.NewPendingEvent(
		time.Now(),
		history.EventType_ActivityScheduled,
		&history.ActivityScheduledAttributes{Name: "activity", Queue: &queue},
		history.ScheduleEventID(1),
	)

	executed := append(markSequence(task.NewEvents, 1), activityEvent)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateActive, executed, []*history.Event{activityEvent}, nil, nil))

	at, err := b.GetActivityTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, at)

	at, err = b.GetActivityTask(ctx, []workflow.Queue{"compute"})
	require.NoError(t, err)
	require.NotNil(t, at)
}

func Test_MemoryBackend_TimerEventsBecomeVisible(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	fireAt := time.Now().Add(50 * time.Millisecond)
	timerEvent := history.NewPendingEvent(
		time.Now(),
		history.EventType_TimerFired,
		&history.TimerFiredAttributes{At: fireAt},
		history.ScheduleEventID(1),
		history.VisibleAt(fireAt),
	)

	executed := markSequence(task.NewEvents, 1)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateActive, executed, nil, []*history.Event{timerEvent}, nil))

	// Not yet visible
	task2, err := b.GetWorkflowTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, task2)

	require.Eventually(t, func() bool {
		task2, err = b.GetWorkflowTask(ctx, defaultQueues)
		require.NoError(t, err)
		return task2 != nil
	}, time.Second, 10*time.Millisecond)

	require.Len(t, task2.NewEvents, 1)
	require.Equal(t, history.EventType_TimerFired, task2.NewEvents[0].Type)
}

func Test_MemoryBackend_CanceledTimerRemovesFutureEvent(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	fireAt := time.Now().Add(30 * time.Millisecond)
	timerEvent := history.NewPendingEvent(
		time.Now(),
		history.EventType_TimerFired,
		&history.TimerFiredAttributes{At: fireAt},
		history.ScheduleEventID(1),
		history.VisibleAt(fireAt),
	)

	executed := markSequence(task.NewEvents, 1)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateActive, executed, nil, []*history.Event{timerEvent}, nil))

	// Cancel the timer in a second task before it fires
	cancelEvent := history.NewHistoryEvent(
		3, time.Now(), history.EventType_TimerCanceled, &history.TimerCanceledAttributes{}, history.ScheduleEventID(1))

	require.NoError(t, b.SignalWorkflow(ctx, task.WorkflowInstance.InstanceID,
		history.NewPendingEvent(time.Now(), history.EventType_SignalReceived, &history.SignalReceivedAttributes{Name: "wake"})))

	task2 := getTask(t, b, defaultQueues)
	executed2 := append(markSequence(task2.NewEvents, 2), cancelEvent)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task2, core.WorkflowInstanceStateActive, executed2, nil, nil, nil))

	// The fired event was dropped, the timer never fires
	time.Sleep(50 * time.Millisecond)

	task3, err := b.GetWorkflowTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, task3)
}

func Test_MemoryBackend_SubWorkflowLifecycle(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	parent := createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	// Parent schedules a sub-workflow
	sub := core.NewSubWorkflowInstance(uuid.NewString(), uuid.NewString(), parent, 1)
	subStart := &history.WorkflowEvent{
		WorkflowInstance: sub,
		HistoryEvent:     startEvent(core.QueueDefault),
	}

	executed := markSequence(task.NewEvents, 1)
	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateActive, executed, nil, nil, []*history.WorkflowEvent{subStart}))

	subTask := getTask(t, b, defaultQueues)
	require.Equal(t, sub, subTask.WorkflowInstance)

	require.NoError(t, b.CompleteWorkflowTask(
		ctx, subTask, core.WorkflowInstanceStateActive, markSequence(subTask.NewEvents, 1), nil, nil, nil))

	// Canceling the parent also delivers a cancellation to the sub-workflow.
	// Both instances now have a pending cancellation event.
	require.NoError(t, b.CancelWorkflowInstance(ctx, parent, history.NewWorkflowCancellationEvent(time.Now())))

	tasks := map[string]*backend.WorkflowTask{}
	for i := 0; i < 2; i++ {
		tk := getTask(t, b, defaultQueues)
		tasks[tk.WorkflowInstance.InstanceID] = tk
	}

	subTask2, ok := tasks[sub.InstanceID]
	require.True(t, ok)
	require.Len(t, subTask2.NewEvents, 1)
	require.Equal(t, history.EventType_WorkflowExecutionCanceled, subTask2.NewEvents[0].Type)
}

func Test_MemoryBackend_SignalWorkflow_InstanceNotFound(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	event := history.NewPendingEvent(time.Now(), history.EventType_SignalReceived, &history.SignalReceivedAttributes{Name: "signal"})

	err := b.SignalWorkflow(ctx, uuid.NewString(), event)
	require.ErrorIs(t, err, backend.ErrInstanceNotFound)
}

func Test_MemoryBackend_RemoveWorkflowInstance_RequiresFinished(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)

	err := b.RemoveWorkflowInstance(ctx, instance)
	require.ErrorIs(t, err, backend.ErrInstanceNotFinished)
}

func Test_MemoryBackend_RemoveWorkflowInstances(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)
	task := getTask(t, b, defaultQueues)

	require.NoError(t, b.CompleteWorkflowTask(
		ctx, task, core.WorkflowInstanceStateFinished, markSequence(task.NewEvents, 1), nil, nil, nil))

	require.NoError(t, b.RemoveWorkflowInstances(ctx, backend.RemoveFinishedBefore(time.Now().Add(time.Minute))))

	_, err := b.GetWorkflowInstanceState(ctx, instance)
	require.ErrorIs(t, err, backend.ErrInstanceNotFound)
}

func Test_MemoryBackend_TerminateWorkflowInstance(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := createInstance(t, b, core.QueueDefault)

	require.NoError(t, b.TerminateWorkflowInstance(
		ctx, instance, history.NewWorkflowTerminationEvent(time.Now(), "stuck")))

	state, err := b.GetWorkflowInstanceState(ctx, instance)
	require.NoError(t, err)
	require.Equal(t, core.WorkflowInstanceStateFinished, state)

	// Terminated event is the last history entry, pending events are dropped
	h, err := b.GetWorkflowInstanceHistory(ctx, instance, nil)
	require.NoError(t, err)
	require.NotEmpty(t, h)
	require.Equal(t, history.EventType_WorkflowExecutionTerminated, h[len(h)-1].Type)

	// No more tasks for the instance
	task, err := b.GetWorkflowTask(ctx, defaultQueues)
	require.NoError(t, err)
	require.Nil(t, task)
}

func Test_MemoryBackend_TerminateWorkflowInstance_NotFound(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	instance := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())
	err := b.TerminateWorkflowInstance(
		ctx, instance, history.NewWorkflowTerminationEvent(time.Now(), ""))
	require.ErrorIs(t, err, backend.ErrInstanceNotFound)
}

func Test_MemoryBackend_PrepareQueues_RejectsInvalidNames(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	require.NoError(t, b.PrepareWorkflowQueues(ctx, defaultQueues))
	require.Error(t, b.PrepareWorkflowQueues(ctx, []workflow.Queue{""}))
}

func Test_MemoryBackend_GetStats(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()

	stats, err := b.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.ActiveWorkflowInstances)
	require.Equal(t, int64(0), stats.PendingWorkflowTasks)
	require.Equal(t, int64(0), stats.PendingActivities)

	createInstance(t, b, core.QueueDefault)

	stats, err = b.GetStats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.ActiveWorkflowInstances)
	require.Equal(t, int64(1), stats.PendingWorkflowTasks)
}

// markSequence assigns history positions to the given pending events, the way
// the executor does when checkpointing a task.
func markSequence(events []*history.Event, start int64) []*history.Event {
	for i, e := range events {
		e.SequenceID = start + int64(i)
	}

	return events
}
