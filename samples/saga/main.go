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

// A booking saga: each completed step registers a compensation which runs in
// reverse order when a later step fails permanently.
func main() {
	ctx, cancel := context.WithCancel(context.Background())

	b := samples.GetBackend()

	w := runWorker(ctx, b)

	c := client.New(b)

	wf, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, BookTripWorkflow, "trip-123")
	if err != nil {
		log.Fatal("could not start workflow:", err)
	}

	_, err = client.GetWorkflowResult[any](ctx, c, wf, time.Second*30)
	log.Println("Workflow finished, error:", err)

	cancel()

	if err := w.WaitForCompletion(); err != nil {
		log.Fatal("could not stop worker:", err)
	}
}

func runWorker(ctx context.Context, b backend.Backend) *worker.Worker {
	w := worker.New(b, nil)

	w.RegisterWorkflow(BookTripWorkflow)
	w.RegisterActivity(BookFlight)
	w.RegisterActivity(CancelFlight)
	w.RegisterActivity(BookHotel)
	w.RegisterActivity(CancelHotel)
	w.RegisterActivity(BookCar)

	if err := w.Start(ctx); err != nil {
		panic("could not start worker")
	}

	return w
}

var noRetries = workflow.ActivityOptions{
	StartToCloseTimeout: time.Second * 10,
	RetryPolicy: workflow.RetryPolicy{
		MaxAttempts: 1,
	},
}

func BookTripWorkflow(ctx workflow.Context, tripID string) error {
	logger := workflow.Logger(ctx)

	var compensations []workflow.Activity

	compensate := func() {
		for i := len(compensations) - 1; i >= 0; i-- {
			if _, err := workflow.ExecuteActivity[any](ctx, noRetries, compensations[i], tripID).Get(ctx); err != nil {
				logger.Error("compensation failed", "error", err)
			}
		}
	}

	if _, err := workflow.ExecuteActivity[any](ctx, noRetries, BookFlight, tripID).Get(ctx); err != nil {
		return err
	}
	compensations = append(compensations, CancelFlight)

	if _, err := workflow.ExecuteActivity[any](ctx, noRetries, BookHotel, tripID).Get(ctx); err != nil {
		compensate()
		return err
	}
	compensations = append(compensations, CancelHotel)

	if _, err := workflow.ExecuteActivity[any](ctx, noRetries, BookCar, tripID).Get(ctx); err != nil {
		compensate()
		return err
	}

	return nil
}

func BookFlight(ctx context.Context, tripID string) (any, error) {
	log.Println("Booked flight for", tripID)
	return nil, nil
}

func CancelFlight(ctx context.Context, tripID string) (any, error) {
	log.Println("Canceled flight for", tripID)
	return nil, nil
}

func BookHotel(ctx context.Context, tripID string) (any, error) {
	log.Println("Booked hotel for", tripID)
	return nil, nil
}

func CancelHotel(ctx context.Context, tripID string) (any, error) {
	log.Println("Canceled hotel for", tripID)
	return nil, nil
}

func BookCar(ctx context.Context, tripID string) (any, error) {
	return nil, workflow.NewPermanentError(errors.New("no cars available"))
}
