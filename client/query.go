package client

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	a "github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/log"
	"github.com/everflowhq/everflow/registry"
	"github.com/everflowhq/everflow/workflow"
	"github.com/everflowhq/everflow/workflow/executor"
)

// QueryWorkflow runs the named query handler of a workflow instance and
// returns its result.
//
// The query does not dispatch a task to a worker, it replays the recorded
// history locally against the workflow registered in r and then runs the
// handler in read-only mode. Query handlers must not modify workflow state.
func QueryWorkflow[T any](ctx context.Context, c *Client, r *registry.Registry, instance *workflow.Instance, name string, args ...any) (T, error) {
	b := c.backend

	ctx, span := b.Tracer().Start(ctx, fmt.Sprintf("QueryWorkflow: %s", name), trace.WithAttributes(
		attribute.String(log.InstanceIDKey, instance.InstanceID),
		attribute.String(log.QueryNameKey, name),
	))
	defer span.End()

	options := b.Options()

	inputs, err := a.ArgsToInputs(options.Converter, args...)
	if err != nil {
		return *new(T), fmt.Errorf("converting arguments: %w", err)
	}

	e, err := executor.NewExecutor(
		options.Logger,
		b.Tracer(),
		r,
		options.Converter,
		b,
		instance,
		clock.New(),
		options.SuggestContinueAsNewAt,
		options.MaxHistorySize,
	)
	if err != nil {
		return *new(T), fmt.Errorf("creating workflow executor: %w", err)
	}
	defer e.Close()

	result, err := e.ExecuteQuery(ctx, name, inputs)
	if err != nil {
		span.RecordError(err)
		return *new(T), err
	}

	var r_ T
	if err := options.Converter.From(result, &r_); err != nil {
		return *new(T), fmt.Errorf("converting query result: %w", err)
	}

	return r_, nil
}
