package history

// VersionMarkerRecordedAttributes records that a named code branch ("patch")
// executed for this instance. Presence or absence of a marker for a given
// patch id is permanent for the life of the instance.
type VersionMarkerRecordedAttributes struct {
	PatchID string `json:"patch_id,omitempty"`

	// Deprecated is set once the patch id has been deprecated; fresh
	// executions keep emitting the marker for forward-compatibility
	// bookkeeping, but the old branch no longer exists in code.
	Deprecated bool `json:"deprecated,omitempty"`
}
