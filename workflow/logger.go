package workflow

import (
	"log/slog"

	"github.com/everflowhq/everflow/internal/workflowstate"
)

// Logger returns a logger scoped to the current workflow instance. Log
// records emitted during replay are dropped, so each logical log statement
// appears exactly once.
func Logger(ctx Context) *slog.Logger {
	wfState := workflowstate.WorkflowState(ctx)
	return wfState.Logger()
}
