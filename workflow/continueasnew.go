package workflow

import (
	"fmt"

	a "github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/continueasnew"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// ContinueAsNew ends the current workflow execution and restarts it with the
// given arguments and a fresh, empty history. Return the result of this call
// from the workflow function.
func ContinueAsNew(ctx Context, args ...interface{}) error {
	cv := GetConverter(ctx)
	inputs, err := a.ArgsToInputs(cv, args...)
	if err != nil {
		return fmt.Errorf("converting inputs for continuing workflow execution: %w", err)
	}

	return continueasnew.NewError(nil, inputs)
}

// ContinueAsNewSuggested reports whether the history of this instance has
// grown past the configured threshold. Long-running workflows should check
// it at loop boundaries and restart via ContinueAsNew before the history
// reaches the hard limit.
func ContinueAsNewSuggested(ctx Context) bool {
	wfState := workflowstate.WorkflowState(ctx)
	return wfState.SuggestContinueAsNew()
}
