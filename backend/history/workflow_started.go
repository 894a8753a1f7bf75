package history

import (
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
)

type ExecutionStartedAttributes struct {
	Name string `json:"name,omitempty"`

	Queue core.Queue `json:"queue,omitempty"`

	Metadata *metadata.WorkflowMetadata `json:"metadata,omitempty"`

	Inputs []payload.Payload `json:"inputs,omitempty"`
}
