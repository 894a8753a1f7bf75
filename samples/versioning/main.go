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

// Demonstrates gated workflow changes. Instances started before the patch was
// introduced keep replaying the old code path, new instances record the
// marker and take the new one.
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	b := samples.GetBackend()

	w := runWorker(ctx, b)

	c := client.New(b)

	wf, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, OrderWorkflow)
	if err != nil {
		log.Fatal("could not start workflow:", err)
	}

	result, err := client.GetWorkflowResult[string](ctx, c, wf, time.Second*30)
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

	w.RegisterWorkflow(OrderWorkflow)
	w.RegisterActivity(ChargeV1)
	w.RegisterActivity(ChargeV2)

	if err := w.Start(ctx); err != nil {
		panic("could not start worker")
	}

	return w
}

func OrderWorkflow(ctx workflow.Context) (string, error) {
	logger := workflow.Logger(ctx)

	var charge workflow.Activity

	if workflow.Patched(ctx, "charge-v2") {
		logger.Debug("Using ChargeV2")
		charge = ChargeV2
	} else {
		logger.Debug("Using ChargeV1")
		charge = ChargeV1
	}

	return workflow.ExecuteActivity[string](ctx, workflow.DefaultActivityOptions, charge).Get(ctx)
}

func ChargeV1(ctx context.Context) (string, error) {
	return "charged (v1)", nil
}

func ChargeV2(ctx context.Context) (string, error) {
	return "charged (v2)", nil
}
