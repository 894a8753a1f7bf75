package registry

// ErrInvalidWorkflow is returned when a workflow function does not have a
// valid signature.
type ErrInvalidWorkflow struct {
	msg string
}

func (e *ErrInvalidWorkflow) Error() string {
	return e.msg
}

// ErrWorkflowAlreadyRegistered is returned when a workflow name is already
// taken.
type ErrWorkflowAlreadyRegistered struct {
	msg string
}

func (e *ErrWorkflowAlreadyRegistered) Error() string {
	return e.msg
}

// ErrInvalidActivity is returned when an activity function does not have a
// valid signature.
type ErrInvalidActivity struct {
	msg string
}

func (e *ErrInvalidActivity) Error() string {
	return e.msg
}

// ErrActivityAlreadyRegistered is returned when an activity name is already
// taken.
type ErrActivityAlreadyRegistered struct {
	msg string
}

func (e *ErrActivityAlreadyRegistered) Error() string {
	return e.msg
}
