package history

import "github.com/everflowhq/everflow/backend/payload"

type ActivityCompletedAttributes struct {
	Result payload.Payload `json:"result,omitempty"`
}
