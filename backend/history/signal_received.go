package history

import "github.com/everflowhq/everflow/backend/payload"

type SignalReceivedAttributes struct {
	Name string `json:"name,omitempty"`

	Arg payload.Payload `json:"arg,omitempty"`
}
