package continueasnew

import (
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
)

// Error is returned from workflow code to request restarting the workflow
// with a fresh history and the given inputs. It travels as an error so it
// unwinds the workflow function like a regular completion.
type Error struct {
	Metadata *metadata.WorkflowMetadata
	Inputs   []payload.Payload
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	return "ContinueAsNew"
}

func NewError(metadata *metadata.WorkflowMetadata, inputs []payload.Payload) error {
	return &Error{
		Metadata: metadata,
		Inputs:   inputs,
	}
}
