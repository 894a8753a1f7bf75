package workflowstate

import "fmt"

// RegisterQueryHandler registers a handler for the given query name.
// Registering the same name twice replaces the previous handler.
func (wf *WfState) RegisterQueryHandler(name string, handler QueryHandler) {
	wf.queryHandlers[name] = handler
}

// QueryHandlerByName returns the handler registered for the given query name.
func (wf *WfState) QueryHandlerByName(name string) (QueryHandler, error) {
	handler, ok := wf.queryHandlers[name]
	if !ok {
		return nil, fmt.Errorf("no query handler registered for %q", name)
	}

	return handler, nil
}
