package command

import (
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
)

type ContinueAsNewCommand struct {
	command

	Instance *core.WorkflowInstance
	Queue    core.Queue
	Name     string
	Metadata *metadata.WorkflowMetadata
	Inputs   []payload.Payload
	Result   payload.Payload

	// ContinuedExecution is set after the command was executed
	ContinuedExecution *core.WorkflowInstance
}

var _ Command = (*ContinueAsNewCommand)(nil)

func NewContinueAsNewCommand(
	id int64, instance *core.WorkflowInstance, result payload.Payload, queue core.Queue, name string,
	metadata *metadata.WorkflowMetadata, inputs []payload.Payload,
) *ContinueAsNewCommand {
	return &ContinueAsNewCommand{
		command: command{
			id:    id,
			name:  "ContinueAsNew",
			state: CommandState_Pending,
		},
		Instance: instance,
		Queue:    queue,
		Name:     name,
		Metadata: metadata,
		Inputs:   inputs,
		Result:   result,
	}
}

func (c *ContinueAsNewCommand) Execute(clock clock.Clock) *CommandResult {
	switch c.state {
	case CommandState_Pending:
		c.state = CommandState_Committed

		continuedExecutionID := uuid.NewString()

		var continuedInstance *core.WorkflowInstance
		if c.Instance.SubWorkflow() {
			// If the current execution was a sub-workflow, the new execution is
			// one as well, so its finished event reaches the same parent.
			continuedInstance = core.NewSubWorkflowInstance(
				c.Instance.InstanceID, continuedExecutionID, c.Instance.Parent, c.Instance.ParentEventID)
		} else {
			continuedInstance = core.NewWorkflowInstance(c.Instance.InstanceID, continuedExecutionID)
		}

		c.ContinuedExecution = continuedInstance

		return &CommandResult{
			State: core.WorkflowInstanceStateContinuedAsNew,
			Events: []*history.Event{
				// End the current workflow execution
				history.NewPendingEvent(
					clock.Now(),
					history.EventType_WorkflowExecutionContinuedAsNew,
					&history.ExecutionContinuedAsNewAttributes{
						Result:               c.Result,
						ContinuedExecutionID: continuedExecutionID,
					},
				),
			},
			WorkflowEvents: []*history.WorkflowEvent{
				// Start a new workflow execution with a fresh history
				{
					WorkflowInstance: continuedInstance,
					HistoryEvent: history.NewPendingEvent(
						clock.Now(),
						history.EventType_WorkflowExecutionStarted,
						&history.ExecutionStartedAttributes{
							Queue:    c.Queue,
							Name:     c.Name,
							Metadata: c.Metadata,
							Inputs:   c.Inputs,
						},
					),
				},
			},
		}
	}

	return nil
}
