package workflowstate

// RecordVersionMarker notes that the history contains a version marker for
// the given patch ID. Markers are collected in a prescan before replay, so a
// patch check sees its marker regardless of where in the history it occurs.
func (wf *WfState) RecordVersionMarker(patchID string, deprecated bool) {
	wf.versionMarkers[patchID] = deprecated
}

// HasVersionMarker returns whether the recorded history contains a marker for
// the given patch ID.
func (wf *WfState) HasVersionMarker(patchID string) bool {
	_, ok := wf.versionMarkers[patchID]
	return ok
}

// SetPatchDecision fixes the outcome of a patch check for this instance.
func (wf *WfState) SetPatchDecision(patchID string, patched bool) {
	wf.patchDecisions[patchID] = patched
}

// PatchDecision returns the previously made outcome for the given patch ID.
func (wf *WfState) PatchDecision(patchID string) (patched bool, ok bool) {
	patched, ok = wf.patchDecisions[patchID]
	return
}
