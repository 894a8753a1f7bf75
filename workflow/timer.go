package workflow

import (
	"time"

	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// ScheduleTimer schedules a durable timer which fires after the given delay.
// The returned future resolves with sync.Canceled if the workflow context is
// canceled before the timer fires.
func ScheduleTimer(ctx Context, delay time.Duration) Future[struct{}] {
	wfState := workflowstate.WorkflowState(ctx)

	scheduleEventID := wfState.GetNextScheduleEventID()
	at := Now(ctx).Add(delay)

	timerCmd := command.NewScheduleTimerCommand(scheduleEventID, at, "")
	wfState.AddCommand(timerCmd)

	f := sync.NewFuture[struct{}]()
	cv := GetConverter(ctx)
	wfState.TrackFuture(scheduleEventID, workflowstate.AsDecodingSettable(cv, f))

	// Check if the context is cancelable
	if d := ctx.Done(); d != nil {
		if c, cancelable := d.(sync.CancelChannel); cancelable {
			if _, _, received := c.ReceiveNonblocking(); received {
				// Context is already canceled, no need to schedule the timer
				wfState.RemoveCommand(timerCmd)
				wfState.RemoveFuture(scheduleEventID)
				f.Set(struct{}{}, sync.Canceled)
			} else {
				// Register a callback for when the context is canceled. The
				// only operation on the Done channel is that it is closed when
				// the context is canceled.
				c.AddReceiveCallback(func(v struct{}, ok bool) {
					switch timerCmd.State() {
					case command.CommandState_Committed:
						// The timer command was already committed, create a
						// cancel command so the backend can clean up the
						// scheduled timer message
						cancelScheduleEventID := wfState.GetNextScheduleEventID()
						wfState.AddCommand(command.NewCancelTimerCommand(cancelScheduleEventID, scheduleEventID))

					case command.CommandState_Pending:
						timerCmd.Cancel()
						wfState.RemoveCommand(timerCmd)
					}

					// Mark the future as canceled if the timer has not fired yet
					if !f.Ready() {
						wfState.RemoveFuture(scheduleEventID)
						f.Set(struct{}{}, sync.Canceled)
					}
				})
			}
		}
	}

	return f
}
