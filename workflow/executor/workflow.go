package executor

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/internal/args"
	"github.com/everflowhq/everflow/internal/contextvalue"
	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowerrors"
)

// workflow drives the workflow function as a coroutine. The function runs
// until it finishes or until every coroutine is blocked waiting on a future
// or channel.
type workflow struct {
	s      *sync.Scheduler
	fn     reflect.Value
	result payload.Payload
	err    error
}

func newWorkflow(workflowFn reflect.Value) *workflow {
	return &workflow{
		s:  sync.NewScheduler(),
		fn: workflowFn,
	}
}

func (w *workflow) Execute(ctx sync.Context, inputs []payload.Payload) error {
	w.s.NewCoroutine(ctx, func(ctx sync.Context) error {
		converter := contextvalue.Converter(ctx)
		callArgs, addContext, err := args.InputsToArgs(converter, w.fn, inputs)
		if err != nil {
			return fmt.Errorf("converting workflow inputs: %w", err)
		}

		if !addContext {
			return errors.New("workflow must accept workflow.Context as first argument")
		}

		callArgs[0] = reflect.ValueOf(ctx)

		// Handle panics in workflow code
		defer func() {
			if r := recover(); r != nil {
				w.err = workflowerrors.NewPanicError(fmt.Sprintf("panic in workflow: %v", r))
			}
		}()

		r := w.fn.Call(callArgs)

		if len(r) < 1 || len(r) > 2 {
			return errors.New("workflow has to return either (error) or (result, error)")
		}

		var result payload.Payload

		if len(r) > 1 {
			var err error
			result, err = converter.To(r[0].Interface())
			if err != nil {
				return fmt.Errorf("converting workflow result: %w", err)
			}
		} else {
			result, err = converter.To(nil)
			if err != nil {
				return fmt.Errorf("converting workflow result: %w", err)
			}
		}

		w.result = result

		errResult := r[len(r)-1]
		if !errResult.IsNil() {
			errInterface, ok := errResult.Interface().(error)
			if !ok {
				return fmt.Errorf("workflow error result does not satisfy error interface (%T): %v", errResult, errResult)
			}

			w.err = errInterface
		}

		return nil
	})

	return w.s.Execute()
}

// Continue resumes all unblocked coroutines after new events were applied.
func (w *workflow) Continue() error {
	return w.s.Execute()
}

func (w *workflow) Completed() bool {
	return w.s.RunningCoroutines() == 0
}

// Result returns the return value of a finished workflow as a payload
func (w *workflow) Result() payload.Payload {
	return w.result
}

// Error returns the error of a finished workflow, can be nil
func (w *workflow) Error() error {
	return w.err
}

func (w *workflow) Close() {
	// End coroutine execution to prevent goroutine leaks
	w.s.Exit()
}
