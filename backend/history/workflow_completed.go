package history

import (
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/internal/workflowerrors"
)

type ExecutionCompletedAttributes struct {
	Result payload.Payload `json:"result,omitempty"`

	Error *workflowerrors.Error `json:"error,omitempty"`
}
