package backend

import (
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/core"
)

// WorkflowTask represents one slice of work for a workflow execution: the new
// events to apply since the last checkpoint.
type WorkflowTask struct {
	// ID is an identifier for this task. It's set by the backend
	ID string

	// Queue this task was received from
	Queue core.Queue

	// WorkflowInstance is the workflow instance that this task is for
	WorkflowInstance *core.WorkflowInstance

	WorkflowInstanceState core.WorkflowInstanceState

	Metadata *metadata.WorkflowMetadata

	// LastSequenceID is the sequence ID of the newest event in the workflow instance's history
	LastSequenceID int64

	// NewEvents are new events since the last task execution
	NewEvents []*history.Event

	// Backend specific data, only the producer of the task should rely on this
	CustomData any
}

// ActivityTask represents one activity execution attempt.
type ActivityTask struct {
	ID string

	Queue core.Queue

	WorkflowInstance *core.WorkflowInstance

	Event *history.Event
}
