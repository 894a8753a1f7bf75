package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/client"
	"github.com/everflowhq/everflow/samples"
	"github.com/everflowhq/everflow/worker"
	"github.com/everflowhq/everflow/workflow"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	b := samples.GetBackend()

	w := runWorker(ctx, b)

	c := client.New(b)

	wf, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, Workflow1)
	if err != nil {
		log.Fatal("could not start workflow:", err)
	}

	result, err := client.GetWorkflowResult[string](ctx, c, wf, time.Minute)
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Workflow finished. Result:", result)

	cancel()

	if err := w.WaitForCompletion(); err != nil {
		log.Fatal("could not stop worker:", err)
	}
}

func runWorker(ctx context.Context, b backend.Backend) *worker.Worker {
	w := worker.New(b, nil)

	w.RegisterWorkflow(Workflow1)
	w.RegisterActivity(FlakyActivity)

	if err := w.Start(ctx); err != nil {
		panic("could not start worker")
	}

	return w
}

func Workflow1(ctx workflow.Context) (string, error) {
	logger := workflow.Logger(ctx)

	// The activity fails its first two attempts, the retry policy schedules
	// new attempts with exponential backoff until one succeeds.
	r, err := workflow.ExecuteActivity[string](ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Second * 10,
		RetryPolicy: workflow.RetryPolicy{
			MaxAttempts:        4,
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaxInterval:        time.Second * 8,
		},
	}, FlakyActivity).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.Debug("Activity succeeded", "result", r)

	return r, nil
}

var attempts int

func FlakyActivity(ctx context.Context) (string, error) {
	attempts++
	if attempts < 3 {
		log.Println("FlakyActivity failing, attempt", attempts)
		return "", errors.New("transient failure")
	}

	return "done after retries", nil
}
