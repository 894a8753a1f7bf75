package monoprocess

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend/memory"
	"github.com/everflowhq/everflow/client"
	"github.com/everflowhq/everflow/worker"
	"github.com/everflowhq/everflow/workflow"
)

// setup starts a worker with a polling interval much larger than the test
// timeout. Tasks only complete in time when the wake-up signals work.
func setup(t *testing.T, register func(w *worker.Worker)) *client.Client {
	t.Helper()

	b := NewMonoprocessBackend(memory.NewMemoryBackend(), 10, time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	options := worker.DefaultOptions
	options.WorkflowPollingInterval = time.Minute
	options.ActivityPollingInterval = time.Minute

	w := worker.New(b, &options)
	register(w)

	require.NoError(t, w.Start(ctx))

	t.Cleanup(func() {
		cancel()
		require.NoError(t, w.WaitForCompletion())
		require.NoError(t, b.Close())
	})

	return client.New(b)
}

func Test_MonoprocessBackend_DispatchesWithoutPolling(t *testing.T) {
	activity := func(ctx context.Context, x, y int) (int, error) {
		return x + y, nil
	}

	wf := func(ctx workflow.Context, x, y int) (int, error) {
		return workflow.ExecuteActivity[int](ctx, workflow.DefaultActivityOptions, activity, x, y).Get(ctx)
	}

	c := setup(t, func(w *worker.Worker) {
		require.NoError(t, w.RegisterWorkflow(wf))
		require.NoError(t, w.RegisterActivity(activity))
	})

	ctx := context.Background()

	start := time.Now()

	instance, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, wf, 19, 23)
	require.NoError(t, err)

	result, err := client.GetWorkflowResult[int](ctx, c, instance, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, 42, result)

	// Both the workflow and the activity task were handed off by signal, not
	// by the minute-long polling interval
	require.Less(t, time.Since(start), 5*time.Second)
}

func Test_MonoprocessBackend_SignalWakesWorker(t *testing.T) {
	wf := func(ctx workflow.Context) (string, error) {
		msg, _ := workflow.NewSignalChannel[string](ctx, "greeting").Receive(ctx)
		return msg, nil
	}

	c := setup(t, func(w *worker.Worker) {
		require.NoError(t, w.RegisterWorkflow(wf))
	})

	ctx := context.Background()

	instance, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, wf)
	require.NoError(t, err)

	require.NoError(t, c.SignalWorkflow(ctx, instance.InstanceID, "greeting", "hello"))

	result, err := client.GetWorkflowResult[string](ctx, c, instance, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, "hello", result)
}

func Test_MonoprocessBackend_TimerWakesWorker(t *testing.T) {
	wf := func(ctx workflow.Context) (bool, error) {
		if err := workflow.Sleep(ctx, 50*time.Millisecond); err != nil {
			return false, err
		}

		return true, nil
	}

	c := setup(t, func(w *worker.Worker) {
		require.NoError(t, w.RegisterWorkflow(wf))
	})

	ctx := context.Background()

	start := time.Now()

	instance, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, wf)
	require.NoError(t, err)

	result, err := client.GetWorkflowResult[bool](ctx, c, instance, 10*time.Second)
	require.NoError(t, err)
	require.True(t, result)

	require.Less(t, time.Since(start), 5*time.Second)
}
