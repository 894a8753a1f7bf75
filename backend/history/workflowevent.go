package history

import "github.com/everflowhq/everflow/core"

// WorkflowEvent is an event addressed to a specific workflow instance, for
// example a sub-workflow result or the started event of a continued
// execution.
type WorkflowEvent struct {
	WorkflowInstance *core.WorkflowInstance `json:"workflow_instance,omitempty"`

	HistoryEvent *Event `json:"history_event,omitempty"`
}
