package workflow

import (
	"math/rand"

	"github.com/everflowhq/everflow/internal/workflowstate"
)

// Random returns a deterministic random source for workflow code. It is
// seeded from the execution ID, so replays draw the same sequence of values.
// Never use the global math/rand functions in workflow code.
func Random(ctx Context) *rand.Rand {
	wfState := workflowstate.WorkflowState(ctx)
	return wfState.Rand()
}

// NewSequenceID returns a new identifier drawn from the deterministic random
// source. Use it instead of uuid generation or counters shared across
// instances when workflow code needs a unique id.
func NewSequenceID(ctx Context) int64 {
	wfState := workflowstate.WorkflowState(ctx)
	return wfState.Rand().Int63()
}
