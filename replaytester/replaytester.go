// Package replaytester validates workflow code against previously recorded
// histories. Run recorded histories through the current workflow code before
// deploying a change to catch non-deterministic modifications.
package replaytester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/workflowerrors"
	"github.com/everflowhq/everflow/registry"
	"github.com/everflowhq/everflow/workflow"
	"github.com/everflowhq/everflow/workflow/executor"
)

// Replayer replays recorded workflow histories against the workflows
// registered with it.
type Replayer struct {
	registry *registry.Registry
}

func NewReplayer() *Replayer {
	return &Replayer{
		registry: registry.New(),
	}
}

// RegisterWorkflow registers a workflow to be available for replay.
func (r *Replayer) RegisterWorkflow(wf workflow.Workflow, opts ...registry.RegisterOption) error {
	return r.registry.RegisterWorkflow(wf, opts...)
}

// ReplayHistory replays the given history against the registered workflow
// code. It returns an error if the commands produced by the current code
// diverge from the recorded events.
func (r *Replayer) ReplayHistory(ctx context.Context, instance *core.WorkflowInstance, h []*history.Event) error {
	if len(h) == 0 {
		return fmt.Errorf("history is empty")
	}

	// Recorded histories interleave WorkflowTaskStarted events with the
	// events each task produced, the first of those precedes the start event
	started := false
	for _, event := range h {
		if event.Type == history.EventType_WorkflowTaskStarted {
			continue
		}

		started = event.Type == history.EventType_WorkflowExecutionStarted
		break
	}

	if !started {
		return fmt.Errorf("history does not start with a WorkflowExecutionStarted event")
	}

	// Sequence IDs might not be set on exported histories
	for i, event := range h {
		if event.SequenceID == 0 {
			event.SequenceID = int64(i + 1)
		}
	}

	options := backend.DefaultOptions

	e, err := executor.NewExecutor(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		noop.NewTracerProvider().Tracer(backend.TracerName),
		r.registry,
		options.Converter,
		&staticHistoryProvider{history: h},
		instance,
		clock.New(),
		options.SuggestContinueAsNewAt,
		options.MaxHistorySize,
	)
	if err != nil {
		return fmt.Errorf("creating workflow executor: %w", err)
	}
	defer e.Close()

	task := &backend.WorkflowTask{
		ID:               "replay",
		Queue:            core.QueueDefault,
		WorkflowInstance: instance,
		LastSequenceID:   h[len(h)-1].SequenceID,
	}

	result, err := e.ExecuteTask(ctx, task)
	if err != nil {
		return fmt.Errorf("replaying workflow: %w", err)
	}

	// A replay divergence fails the workflow instead of the task, surface it
	for _, event := range result.Executed {
		if event.Type != history.EventType_WorkflowExecutionFinished {
			continue
		}

		if a, ok := event.Attributes.(*history.ExecutionCompletedAttributes); ok && a.Error != nil {
			return fmt.Errorf("replaying workflow: %w", workflowerrors.ToError(a.Error))
		}
	}

	return nil
}

// ReplayHistoryFromFile reads a JSON-encoded history from the given file and
// replays it.
func (r *Replayer) ReplayHistoryFromFile(ctx context.Context, instance *core.WorkflowInstance, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading history file: %w", err)
	}

	var h []*history.Event
	if err := json.Unmarshal(b, &h); err != nil {
		return fmt.Errorf("unmarshaling history: %w", err)
	}

	return r.ReplayHistory(ctx, instance, h)
}

type staticHistoryProvider struct {
	history []*history.Event
}

func (p *staticHistoryProvider) GetWorkflowInstanceHistory(ctx context.Context, instance *core.WorkflowInstance, lastSequenceID *int64) ([]*history.Event, error) {
	if lastSequenceID == nil {
		return p.history, nil
	}

	var h []*history.Event
	for _, event := range p.history {
		if event.SequenceID > *lastSequenceID {
			h = append(h, event)
		}
	}

	return h, nil
}
