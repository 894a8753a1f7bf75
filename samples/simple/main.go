package main

import (
	"context"
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
	}, Workflow1, "Hello world", 42)
	if err != nil {
		log.Fatal("could not start workflow:", err)
	}

	log.Println("Started workflow", wf.InstanceID)

	result, err := client.GetWorkflowResult[int](ctx, c, wf, time.Second*30)
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
	w.RegisterActivity(Activity1)
	w.RegisterActivity(Activity2)

	if err := w.Start(ctx); err != nil {
		panic("could not start worker")
	}

	return w
}

func Workflow1(ctx workflow.Context, msg string, times int) (int, error) {
	logger := workflow.Logger(ctx)
	logger.Debug("Entering Workflow1", "msg", msg, "times", times)
	defer logger.Debug("Leaving Workflow1")

	r1, err := workflow.ExecuteActivity[int](ctx, workflow.DefaultActivityOptions, Activity1, 35, 12).Get(ctx)
	if err != nil {
		return 0, err
	}
	logger.Debug("A1 result", "r1", r1)

	r2, err := workflow.ExecuteActivity[int](ctx, workflow.DefaultActivityOptions, Activity2).Get(ctx)
	if err != nil {
		return 0, err
	}
	logger.Debug("A2 result", "r2", r2)

	return r1 + r2, nil
}

func Activity1(ctx context.Context, a, b int) (int, error) {
	log.Println("Entering Activity1")
	defer log.Println("Leaving Activity1")

	return a + b, nil
}

func Activity2(ctx context.Context) (int, error) {
	log.Println("Entering Activity2")
	defer log.Println("Leaving Activity2")

	time.Sleep(time.Second)

	return 12, nil
}
