package command

import (
	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend/history"
)

// RecordVersionMarkerCommand records the outcome of a patch check. Once a
// marker is in the history, the decision is fixed for the lifetime of the
// instance.
type RecordVersionMarkerCommand struct {
	command

	PatchID    string
	Deprecated bool
}

var _ Command = (*RecordVersionMarkerCommand)(nil)

func NewRecordVersionMarkerCommand(id int64, patchID string, deprecated bool) *RecordVersionMarkerCommand {
	return &RecordVersionMarkerCommand{
		command: command{
			id:    id,
			name:  "RecordVersionMarker",
			state: CommandState_Pending,
		},
		PatchID:    patchID,
		Deprecated: deprecated,
	}
}

func (c *RecordVersionMarkerCommand) Execute(clock clock.Clock) *CommandResult {
	switch c.state {
	case CommandState_Pending:
		c.state = CommandState_Committed

		return &CommandResult{
			Events: []*history.Event{
				history.NewPendingEvent(
					clock.Now(),
					history.EventType_VersionMarkerRecorded,
					&history.VersionMarkerRecordedAttributes{
						PatchID:    c.PatchID,
						Deprecated: c.Deprecated,
					},
					history.ScheduleEventID(c.id),
				),
			},
		}
	}

	return nil
}
