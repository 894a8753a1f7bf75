package payload

// Payload is a serialized input or result. The engine treats payloads as
// opaque; only the configured converter knows how to interpret them.
type Payload []byte
