package workflow

import "github.com/everflowhq/everflow/internal/workflowerrors"

type (
	Error      = workflowerrors.Error
	PanicError = workflowerrors.PanicError
)

// NewError wraps the given error into a workflow error which can be retried.
func NewError(err error) error {
	return workflowerrors.FromError(err)
}

// NewPermanentError wraps the given error into a workflow error which will
// not be automatically retried.
func NewPermanentError(err error) error {
	return workflowerrors.NewPermanentError(err)
}

// CanRetry returns true if the given error is retryable.
func CanRetry(err error) bool {
	return workflowerrors.CanRetry(err)
}

// ErrorType returns the persisted type name of the given error. Use it to
// branch on the original error kind of a failed activity.
func ErrorType(err error) string {
	return workflowerrors.ErrorType(err)
}
