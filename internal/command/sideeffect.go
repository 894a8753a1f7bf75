package command

import (
	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
)

type SideEffectCommand struct {
	command

	result payload.Payload
}

var _ Command = (*SideEffectCommand)(nil)

func NewSideEffectCommand(id int64) *SideEffectCommand {
	return &SideEffectCommand{
		command: command{
			id:    id,
			name:  "SideEffect",
			state: CommandState_Pending,
		},
	}
}

// SetResult records the side effect result before the command is committed.
func (c *SideEffectCommand) SetResult(result payload.Payload) {
	if c.state != CommandState_Pending {
		c.invalidStateTransition(CommandState_Committed)
	}

	c.result = result
}

func (c *SideEffectCommand) Execute(clock clock.Clock) *CommandResult {
	switch c.state {
	case CommandState_Pending:
		c.state = CommandState_Committed

		return &CommandResult{
			Events: []*history.Event{
				history.NewPendingEvent(
					clock.Now(),
					history.EventType_SideEffectResult,
					&history.SideEffectResultAttributes{
						Result: c.result,
					},
					history.ScheduleEventID(c.id),
				),
			},
		}
	}

	return nil
}
