package backend

// Stats is a point-in-time snapshot of backend load.
type Stats struct {
	// ActiveWorkflowInstances is the number of instances that have not yet
	// reached a terminal state
	ActiveWorkflowInstances int64

	// PendingWorkflowTasks is the number of workflow tasks waiting to be
	// picked up by a worker
	PendingWorkflowTasks int64

	// PendingActivities is the number of activity tasks waiting to be picked
	// up by a worker
	PendingActivities int64
}
