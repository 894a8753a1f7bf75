package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/client"
	"github.com/everflowhq/everflow/samples"
	"github.com/everflowhq/everflow/worker"
	"github.com/everflowhq/everflow/workflow"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	r := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("everflow sample"),
		semconv.ServiceVersionKey.String("v0.1.0"),
		attribute.String("environment", "sample"),
	)

	stdoutexp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		panic(err)
	}

	oclient := otlptracehttp.NewClient(otlptracehttp.WithEndpoint("localhost:4318"), otlptracehttp.WithInsecure())
	exp, err := otlptrace.New(ctx, oclient)
	if err != nil {
		panic(err)
	}

	tp := trace.NewTracerProvider(
		trace.WithSyncer(stdoutexp),
		trace.WithBatcher(exp),
		trace.WithResource(r),
	)

	otel.SetTracerProvider(tp)

	b := samples.GetBackend(backend.WithTracerProvider(tp))

	w := runWorker(ctx, b)

	c := client.New(b)

	wf, err := c.CreateWorkflowInstance(ctx, client.WorkflowInstanceOptions{
		InstanceID: uuid.NewString(),
	}, TracedWorkflow, "Hello world")
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

	tp.Shutdown(context.Background())
}

func runWorker(ctx context.Context, b backend.Backend) *worker.Worker {
	w := worker.New(b, nil)

	w.RegisterWorkflow(TracedWorkflow)
	w.RegisterActivity(Activity1)

	if err := w.Start(ctx); err != nil {
		panic("could not start worker")
	}

	return w
}

func TracedWorkflow(ctx workflow.Context, msg string) (string, error) {
	logger := workflow.Logger(ctx)
	logger.Debug("Entering TracedWorkflow", "msg", msg)

	if err := workflow.Sleep(ctx, time.Millisecond*100); err != nil {
		return "", err
	}

	return workflow.ExecuteActivity[string](ctx, workflow.DefaultActivityOptions, Activity1, msg).Get(ctx)
}

func Activity1(ctx context.Context, msg string) (string, error) {
	return msg + "!", nil
}
