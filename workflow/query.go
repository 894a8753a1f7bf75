package workflow

import (
	"fmt"
	"reflect"

	"github.com/everflowhq/everflow/backend/payload"
	a "github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/workflowstate"
)

// HandleQuery registers a handler for the given query name. Queries execute
// against replayed workflow state in read-only mode: a handler that attempts
// to schedule activities, timers, or any other command fails the query.
//
// The handler is a function which may take the workflow Context as its first
// parameter, followed by query arguments, and returns a result and an error.
func HandleQuery(ctx Context, name string, handler interface{}) error {
	hv := reflect.ValueOf(handler)
	ht := hv.Type()

	if ht.Kind() != reflect.Func {
		return fmt.Errorf("query handler for %q is not a function", name)
	}

	if ht.NumOut() == 0 || ht.NumOut() > 2 {
		return fmt.Errorf("query handler for %q must return a result and/or an error", name)
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !ht.Out(ht.NumOut() - 1).Implements(errType) {
		return fmt.Errorf("query handler for %q must return error as last return value", name)
	}

	wfState := workflowstate.WorkflowState(ctx)
	cv := GetConverter(ctx)

	wfState.RegisterQueryHandler(name, func(argPayloads []payload.Payload) (payload.Payload, error) {
		callArgs, addContext, err := a.InputsToArgs(cv, hv, argPayloads)
		if err != nil {
			return nil, fmt.Errorf("converting query arguments: %w", err)
		}

		if addContext {
			callArgs[0] = reflect.ValueOf(ctx)
		}

		results := hv.Call(callArgs)

		if errValue := results[len(results)-1]; !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}

		if len(results) == 1 {
			return nil, nil
		}

		result, err := cv.To(results[0].Interface())
		if err != nil {
			return nil, fmt.Errorf("converting query result: %w", err)
		}

		return result, nil
	})

	return nil
}
