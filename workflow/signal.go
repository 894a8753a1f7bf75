package workflow

import (
	"fmt"

	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// NewSignalChannel returns the channel for the given signal name. Signals
// received before this call are buffered and delivered in order.
func NewSignalChannel[T any](ctx Context, name string) Channel[T] {
	wfState := workflowstate.WorkflowState(ctx)
	return workflowstate.GetSignalChannel[T](ctx, wfState, name)
}

// SignalWorkflow delivers a signal to another workflow instance from within
// workflow code.
func SignalWorkflow[T any](ctx Context, instanceID string, name string, arg T) error {
	cv := GetConverter(ctx)

	argPayload, err := cv.To(arg)
	if err != nil {
		return fmt.Errorf("converting signal argument: %w", err)
	}

	wfState := workflowstate.WorkflowState(ctx)
	scheduleEventID := wfState.GetNextScheduleEventID()

	cmd := command.NewSignalWorkflowCommand(scheduleEventID, instanceID, name, argPayload)
	wfState.AddCommand(cmd)

	return nil
}
