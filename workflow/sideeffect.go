package workflow

import (
	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// SideEffect executes the given function exactly once and records its result
// in the history. During replay the recorded result is returned instead of
// executing the function again. Use it for small non-deterministic values
// like random IDs; anything that can fail belongs in an activity.
func SideEffect[TResult any](ctx Context, f func(ctx Context) TResult) Future[TResult] {
	future := sync.NewFuture[TResult]()

	var zero TResult

	if ctx.Err() != nil {
		future.Set(zero, ctx.Err())
		return future
	}

	wfState := workflowstate.WorkflowState(ctx)
	scheduleEventID := wfState.GetNextScheduleEventID()
	cv := GetConverter(ctx)

	cmd := command.NewSideEffectCommand(scheduleEventID)
	wfState.AddCommand(cmd)

	if Replaying(ctx) {
		// The history contains the recorded result, block on it
		wfState.TrackFuture(scheduleEventID, workflowstate.AsDecodingSettable(cv, future))
		return future
	}

	// Execute the side effect
	r := f(ctx)

	payload, err := cv.To(r)
	if err != nil {
		future.Set(zero, err)
		return future
	}

	cmd.SetResult(payload)
	future.Set(r, nil)

	return future
}
