package workflow

import (
	"fmt"
	"time"

	a "github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/fn"
	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

type SubWorkflowOptions struct {
	// InstanceID of the sub-workflow. Generated if empty.
	InstanceID string

	// Queue overrides the queue the sub-workflow runs on. By default it
	// inherits the parent's queue.
	Queue Queue

	RetryPolicy RetryPolicy
}

var DefaultSubWorkflowOptions = SubWorkflowOptions{
	RetryPolicy: RetryPolicy{
		MaxAttempts: 1,
	},
}

// CreateSubWorkflowInstance starts a workflow as a child of the current one.
// The future resolves with the sub-workflow's result once it finishes.
func CreateSubWorkflowInstance[TResult any](ctx Context, options SubWorkflowOptions, workflow Workflow, args ...interface{}) Future[TResult] {
	return withRetries(ctx, options.RetryPolicy, time.Time{}, func(ctx Context, attempt int) Future[TResult] {
		return createSubWorkflowInstance[TResult](ctx, options, workflow, args...)
	})
}

func createSubWorkflowInstance[TResult any](ctx Context, options SubWorkflowOptions, workflow Workflow, args ...interface{}) Future[TResult] {
	f := sync.NewFuture[TResult]()

	var zero TResult

	if ctx.Err() != nil {
		f.Set(zero, ctx.Err())
		return f
	}

	// Check return type
	if err := a.ReturnTypeMatch[TResult](workflow); err != nil {
		f.Set(zero, err)
		return f
	}

	// Check arguments
	if err := a.ParamsMatch(workflow, args...); err != nil {
		f.Set(zero, err)
		return f
	}

	cv := GetConverter(ctx)
	inputs, err := a.ArgsToInputs(cv, args...)
	if err != nil {
		f.Set(zero, fmt.Errorf("converting workflow input: %w", err))
		return f
	}

	wfState := workflowstate.WorkflowState(ctx)
	scheduleEventID := wfState.GetNextScheduleEventID()

	name := fn.Name(workflow)

	cmd := command.NewScheduleSubWorkflowCommand(
		scheduleEventID, wfState.Instance(), options.Queue, options.InstanceID, name, inputs, nil)
	wfState.AddCommand(cmd)
	wfState.TrackFuture(scheduleEventID, workflowstate.AsDecodingSettable(cv, f))

	// Handle cancellation
	if d := ctx.Done(); d != nil {
		if c, ok := d.(sync.CancelChannel); ok {
			if _, _, received := c.ReceiveNonblocking(); received {
				// Workflow has been canceled. If the sub-workflow has not been
				// scheduled yet there is no need to schedule it at all.
				if cmd.State() == command.CommandState_Pending {
					cmd.Cancel()
					wfState.RemoveCommand(cmd)
					wfState.RemoveFuture(scheduleEventID)
					f.Set(zero, sync.Canceled)
				}
			} else {
				c.AddReceiveCallback(func(v struct{}, ok bool) {
					switch cmd.State() {
					case command.CommandState_Pending:
						// Not scheduled yet, resolve the future right away
						cmd.Cancel()
						wfState.RemoveCommand(cmd)
						wfState.RemoveFuture(scheduleEventID)
						f.Set(zero, sync.Canceled)

					case command.CommandState_Committed:
						// Request cancellation of the running sub-workflow. The
						// future resolves once the sub-workflow finishes.
						cmd.Cancel()
					}
				})
			}
		}
	}

	return f
}
