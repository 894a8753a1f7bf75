package command

import (
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
)

type ScheduleSubWorkflowCommand struct {
	cancelableCommand

	Queue    core.Queue
	Instance *core.WorkflowInstance
	Metadata *metadata.WorkflowMetadata

	Name   string
	Inputs []payload.Payload
}

var _ CancelableCommand = (*ScheduleSubWorkflowCommand)(nil)

func NewScheduleSubWorkflowCommand(
	id int64, parentInstance *core.WorkflowInstance, subWorkflowQueue core.Queue, subWorkflowInstanceID,
	name string, inputs []payload.Payload, metadata *metadata.WorkflowMetadata,
) *ScheduleSubWorkflowCommand {
	if subWorkflowInstanceID == "" {
		subWorkflowInstanceID = uuid.NewString()
	}

	return &ScheduleSubWorkflowCommand{
		cancelableCommand: cancelableCommand{
			command: command{
				id:    id,
				name:  "ScheduleSubWorkflow",
				state: CommandState_Pending,
			},
		},

		Queue:    subWorkflowQueue,
		Instance: core.NewSubWorkflowInstance(subWorkflowInstanceID, uuid.NewString(), parentInstance, id),
		Metadata: metadata,

		Name:   name,
		Inputs: inputs,
	}
}

func (c *ScheduleSubWorkflowCommand) Execute(clock clock.Clock) *CommandResult {
	switch c.state {
	case CommandState_Pending:
		c.state = CommandState_Committed

		return &CommandResult{
			// Record scheduled sub-workflow for the parent workflow instance
			Events: []*history.Event{
				history.NewPendingEvent(
					clock.Now(),
					history.EventType_SubWorkflowScheduled,
					&history.SubWorkflowScheduledAttributes{
						SubWorkflowInstance: c.Instance,
						Name:                c.Name,
						Queue:               c.Queue,
						Metadata:            c.Metadata,
						Inputs:              c.Inputs,
					},
					history.ScheduleEventID(c.id),
				),
			},
			// Start the new workflow instance
			WorkflowEvents: []*history.WorkflowEvent{
				{
					WorkflowInstance: c.Instance,
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

	case CommandState_CancelPending:
		c.state = CommandState_Canceled

		return &CommandResult{
			// Record that cancellation was requested
			Events: []*history.Event{
				history.NewPendingEvent(
					clock.Now(),
					history.EventType_SubWorkflowCancellationRequested,
					&history.SubWorkflowCancellationRequestedAttributes{
						SubWorkflowInstance: c.Instance,
					},
					history.ScheduleEventID(c.id),
				),
			},

			// Send cancellation event to the sub-workflow
			WorkflowEvents: []*history.WorkflowEvent{
				{
					WorkflowInstance: c.Instance,
					HistoryEvent:     history.NewWorkflowCancellationEvent(clock.Now()),
				},
			},
		}
	}

	return nil
}
