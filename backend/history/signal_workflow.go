package history

import "github.com/everflowhq/everflow/backend/payload"

// SignalWorkflowAttributes records that this instance requested a signal to
// be delivered to another workflow instance.
type SignalWorkflowAttributes struct {
	Name string `json:"name,omitempty"`

	Arg payload.Payload `json:"arg,omitempty"`
}
