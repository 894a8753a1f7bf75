package command

import (
	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/workflowerrors"
)

type CompleteWorkflowCommand struct {
	command

	Instance *core.WorkflowInstance
	Result   payload.Payload
	Error    *workflowerrors.Error
}

var _ Command = (*CompleteWorkflowCommand)(nil)

func NewCompleteWorkflowCommand(id int64, instance *core.WorkflowInstance, result payload.Payload, err *workflowerrors.Error) *CompleteWorkflowCommand {
	return &CompleteWorkflowCommand{
		command: command{
			id:    id,
			name:  "CompleteWorkflow",
			state: CommandState_Pending,
		},
		Instance: instance,
		Result:   result,
		Error:    err,
	}
}

func (c *CompleteWorkflowCommand) Execute(clock clock.Clock) *CommandResult {
	switch c.state {
	case CommandState_Pending:
		c.state = CommandState_Committed

		r := &CommandResult{
			State: core.WorkflowInstanceStateFinished,
			Events: []*history.Event{
				history.NewPendingEvent(
					clock.Now(),
					history.EventType_WorkflowExecutionFinished,
					&history.ExecutionCompletedAttributes{
						Result: c.Result,
						Error:  c.Error,
					},
				),
			},
		}

		if c.Instance.SubWorkflow() {
			// Send completion message back to the parent workflow instance
			var historyEvent *history.Event

			if c.Error != nil {
				historyEvent = history.NewPendingEvent(
					clock.Now(),
					history.EventType_SubWorkflowFailed,
					&history.SubWorkflowFailedAttributes{
						Error: c.Error,
					},
					// Deliver to the parent under the schedule event that created us
					history.ScheduleEventID(c.Instance.ParentEventID),
				)
			} else {
				historyEvent = history.NewPendingEvent(
					clock.Now(),
					history.EventType_SubWorkflowCompleted,
					&history.SubWorkflowCompletedAttributes{
						Result: c.Result,
					},
					history.ScheduleEventID(c.Instance.ParentEventID),
				)
			}

			r.WorkflowEvents = []*history.WorkflowEvent{
				{
					WorkflowInstance: c.Instance.Parent,
					HistoryEvent:     historyEvent,
				},
			}
		}

		return r
	}

	return nil
}
