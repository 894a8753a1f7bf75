package workflow

import (
	"time"

	"github.com/everflowhq/everflow/internal/workflowstate"
)

// Now returns the deterministic workflow time. It only advances when a new
// workflow task is handled and returns the same values during replay as
// during the original execution. Never use time.Now in workflow code.
func Now(ctx Context) time.Time {
	wfState := workflowstate.WorkflowState(ctx)
	return wfState.Time()
}
