package converter

import (
	"github.com/everflowhq/everflow/backend/payload"
)

// Converter serializes and deserializes workflow and activity inputs and
// results.
type Converter interface {
	// To converts the given value to a payload
	To(v any) (payload.Payload, error)

	// From converts the given payload to a value
	From(data payload.Payload, vptr any) error
}

var DefaultConverter Converter = &jsonConverter{}
