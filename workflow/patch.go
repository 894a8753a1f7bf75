package workflow

import (
	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// Patched guards a code change in workflow logic. It returns true when the
// new code path may be taken and false when the instance has to stay on the
// old path because its recorded history predates the patch.
//
// The first time Patched returns true for an instance, a version marker is
// recorded in its history. The decision is permanent for the lifetime of the
// instance: every later call with the same patch ID returns the same value,
// during replay and across workflow tasks.
//
// Evolve patched code in three phases: ship both paths guarded by Patched,
// replace the guard with DeprecatePatch once no pre-patch instances remain,
// then remove the call entirely once no marker-carrying instances remain.
func Patched(ctx Context, patchID string) bool {
	wfState := workflowstate.WorkflowState(ctx)

	if patched, ok := wfState.PatchDecision(patchID); ok {
		return patched
	}

	if wfState.Replaying() && !wfState.HasVersionMarker(patchID) {
		// The recorded history was produced by code without this patch, stay
		// on the old path
		wfState.SetPatchDecision(patchID, false)
		return false
	}

	// Fresh execution, or the history carries the marker: take the new path.
	// The command either appends the marker or reconciles against it.
	scheduleEventID := wfState.GetNextScheduleEventID()
	cmd := command.NewRecordVersionMarkerCommand(scheduleEventID, patchID, false)
	wfState.AddCommand(cmd)

	wfState.SetPatchDecision(patchID, true)

	return true
}

// DeprecatePatch marks the given patch as deprecated. Call it in place of
// Patched once the old code path has been removed; it keeps histories which
// carry the version marker replayable without branching.
func DeprecatePatch(ctx Context, patchID string) {
	wfState := workflowstate.WorkflowState(ctx)

	if _, ok := wfState.PatchDecision(patchID); ok {
		return
	}

	wfState.SetPatchDecision(patchID, true)

	if wfState.Replaying() && !wfState.HasVersionMarker(patchID) {
		// History predates the patch and carries no marker, nothing to record
		return
	}

	scheduleEventID := wfState.GetNextScheduleEventID()
	cmd := command.NewRecordVersionMarkerCommand(scheduleEventID, patchID, true)
	wfState.AddCommand(cmd)
}
