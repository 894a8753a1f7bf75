package metadata

// WorkflowMetadata is a set of key-value pairs propagated with a workflow
// instance, for example tracing context injected by context propagators.
type WorkflowMetadata map[string]string

func (wm WorkflowMetadata) Get(key string) string {
	return wm[key]
}

func (wm WorkflowMetadata) Set(key, value string) {
	wm[key] = value
}
