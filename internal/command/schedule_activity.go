package command

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
)

type ScheduleActivityCommand struct {
	cancelableCommand

	Queue    core.Queue
	Name     string
	Attempt  int
	Inputs   []payload.Payload
	Metadata *metadata.WorkflowMetadata

	StartToCloseTimeout    time.Duration
	ScheduleToStartTimeout time.Duration
	HeartbeatTimeout       time.Duration
}

var _ CancelableCommand = (*ScheduleActivityCommand)(nil)

func NewScheduleActivityCommand(
	id int64, queue core.Queue, name string, attempt int, inputs []payload.Payload, metadata *metadata.WorkflowMetadata,
	startToCloseTimeout, scheduleToStartTimeout, heartbeatTimeout time.Duration,
) *ScheduleActivityCommand {
	return &ScheduleActivityCommand{
		cancelableCommand: cancelableCommand{
			command: command{
				id:    id,
				name:  "ScheduleActivity",
				state: CommandState_Pending,
			},
		},

		Queue:    queue,
		Name:     name,
		Attempt:  attempt,
		Inputs:   inputs,
		Metadata: metadata,

		StartToCloseTimeout:    startToCloseTimeout,
		ScheduleToStartTimeout: scheduleToStartTimeout,
		HeartbeatTimeout:       heartbeatTimeout,
	}
}

func (c *ScheduleActivityCommand) Execute(clock clock.Clock) *CommandResult {
	switch c.state {
	case CommandState_Pending:
		c.state = CommandState_Committed

		var queue *core.Queue
		if c.Queue != "" {
			queue = &c.Queue
		}

		event := history.NewPendingEvent(
			clock.Now(),
			history.EventType_ActivityScheduled,
			&history.ActivityScheduledAttributes{
				Name:     c.Name,
				Attempt:  c.Attempt,
				Inputs:   c.Inputs,
				Metadata: c.Metadata,
				Queue:    queue,

				StartToCloseTimeout:    c.StartToCloseTimeout,
				ScheduleToStartTimeout: c.ScheduleToStartTimeout,
				HeartbeatTimeout:       c.HeartbeatTimeout,
			},
			history.ScheduleEventID(c.id),
		)

		return &CommandResult{
			Events:         []*history.Event{event},
			ActivityEvents: []*history.Event{event},
		}
	}

	return nil
}
