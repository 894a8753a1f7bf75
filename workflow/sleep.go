package workflow

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/everflowhq/everflow/internal/log"
	"github.com/everflowhq/everflow/internal/workflowtracer"
)

// Sleep pauses the workflow for the given duration using a durable timer.
func Sleep(ctx Context, d time.Duration) error {
	ctx, span := workflowtracer.Tracer(ctx).Start(ctx, "Sleep",
		trace.WithAttributes(attribute.Int64(log.DurationKey, int64(d/time.Millisecond))))
	defer span.End()

	_, err := ScheduleTimer(ctx, d).Get(ctx)

	return err
}
