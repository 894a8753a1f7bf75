package workflow

// Future is a value that becomes available at some point in the future,
// usually the result of an activity, timer, or sub-workflow.
type Future[T any] interface {
	// Get returns the value if set, blocks otherwise
	Get(ctx Context) (T, error)
}
