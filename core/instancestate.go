package core

// WorkflowInstanceState is the coarse lifecycle state of a workflow instance
// as tracked by the backend. The precise outcome (completed, failed, canceled,
// terminated) is carried by the final history event.
type WorkflowInstanceState int

const (
	WorkflowInstanceStateActive WorkflowInstanceState = iota
	WorkflowInstanceStateContinuedAsNew
	WorkflowInstanceStateFinished
)

func (s WorkflowInstanceState) String() string {
	switch s {
	case WorkflowInstanceStateActive:
		return "Active"
	case WorkflowInstanceStateContinuedAsNew:
		return "ContinuedAsNew"
	case WorkflowInstanceStateFinished:
		return "Finished"
	default:
		return "Unknown"
	}
}
