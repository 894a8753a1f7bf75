package backend

import (
	"time"
)

// RemovalOptions restrict which finished instances RemoveWorkflowInstances
// deletes.
type RemovalOptions struct {
	FinishedBefore time.Time
}

type RemovalOption func(o *RemovalOptions)

// RemoveFinishedBefore limits removal to instances that finished before the
// given point in time.
func RemoveFinishedBefore(t time.Time) RemovalOption {
	return func(o *RemovalOptions) {
		o.FinishedBefore = t
	}
}
