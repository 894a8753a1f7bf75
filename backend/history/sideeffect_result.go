package history

import "github.com/everflowhq/everflow/backend/payload"

type SideEffectResultAttributes struct {
	Result payload.Payload `json:"result,omitempty"`
}
