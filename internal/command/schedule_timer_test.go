package command

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend/history"
)

func TestScheduleTimerCommand_StateTransitions(t *testing.T) {
	tests := []struct {
		name string
		f    func(t *testing.T, c *ScheduleTimerCommand)
	}{
		{"Execute schedules timer", func(t *testing.T, c *ScheduleTimerCommand) {
			r := assertExecuteWithEvent(t, c, CommandState_Committed, history.EventType_TimerScheduled)

			// The fired event is delivered later, gated on its VisibleAt
			require.Len(t, r.TimerEvents, 1)
			require.Equal(t, history.EventType_TimerFired, r.TimerEvents[0].Type)
			require.NotNil(t, r.TimerEvents[0].VisibleAt)
		}},
		{"Cancel after schedule yields cancel event", func(t *testing.T, c *ScheduleTimerCommand) {
			assertExecuteWithEvent(t, c, CommandState_Committed, history.EventType_TimerScheduled)

			c.Cancel()
			require.Equal(t, CommandState_CancelPending, c.State())

			assertExecuteWithEvent(t, c, CommandState_Canceled, history.EventType_TimerCanceled)
		}},
		{"Cancel after commit yields cancel event", func(t *testing.T, c *ScheduleTimerCommand) {
			c.Commit()

			c.Cancel()
			require.Equal(t, CommandState_CancelPending, c.State())

			assertExecuteWithEvent(t, c, CommandState_Canceled, history.EventType_TimerCanceled)
		}},
		{"Commit", func(t *testing.T, c *ScheduleTimerCommand) {
			require.Equal(t, CommandState_Pending, c.State())

			c.Commit()
			require.Equal(t, CommandState_Committed, c.State())

			assertExecuteNoEvent(t, c, CommandState_Committed)
		}},
		{"Cancel_MultipleTimes", func(t *testing.T, c *ScheduleTimerCommand) {
			c.Cancel()
			require.Equal(t, CommandState_Canceled, c.State())

			c.Cancel()
			require.Equal(t, CommandState_Canceled, c.State())
		}},
		{"HandleCancel", func(t *testing.T, c *ScheduleTimerCommand) {
			c.Commit()

			c.HandleCancel()
			require.Equal(t, CommandState_Canceled, c.State())

			assertExecuteNoEvent(t, c, CommandState_Canceled)
		}},
		{"Done_after_commit", func(t *testing.T, c *ScheduleTimerCommand) {
			c.Commit()

			c.Done()
			require.Equal(t, CommandState_Done, c.State())
		}},
		{"Done_after_cancel", func(t *testing.T, c *ScheduleTimerCommand) {
			c.Commit()
			c.Cancel()
			c.HandleCancel()

			c.Done()
			require.Equal(t, CommandState_Done, c.State())
		}},
		{"Invalid_HandleCancel", func(t *testing.T, c *ScheduleTimerCommand) {
			require.PanicsWithValue(t, "invalid state transition for command ScheduleTimer: Pending -> Canceled", func() {
				c.HandleCancel()
			})
		}},
		{"Invalid_Commit", func(t *testing.T, c *ScheduleTimerCommand) {
			c.Cancel()

			require.PanicsWithValue(t, "invalid state transition for command ScheduleTimer: Canceled -> Committed", func() {
				c.Commit()
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clock.NewMock()
			cmd := NewScheduleTimerCommand(1, c.Now().Add(time.Second), "")

			tt.f(t, cmd)
		})
	}
}
