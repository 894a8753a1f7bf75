package workflow

import (
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// Replaying returns true while the workflow is replaying recorded history.
func Replaying(ctx Context) bool {
	wfState := workflowstate.WorkflowState(ctx)
	return wfState.Replaying()
}
