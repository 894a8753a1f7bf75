package args

import (
	"context"
	"fmt"
	"reflect"

	"github.com/everflowhq/everflow/backend/converter"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/internal/sync"
)

// ArgsToInputs converts the given arguments into payloads using the given
// converter.
func ArgsToInputs(c converter.Converter, args ...interface{}) ([]payload.Payload, error) {
	inputs := make([]payload.Payload, 0)

	for _, arg := range args {
		input, err := c.To(arg)
		if err != nil {
			return nil, fmt.Errorf("converting args to inputs: %w", err)
		}
		inputs = append(inputs, input)
	}

	return inputs, nil
}

// InputsToArgs converts the given payloads back into reflect values for
// calling the given workflow or activity function. If the function takes a
// context as its first argument, addContext is true and the caller has to
// prepend the context value.
func InputsToArgs(c converter.Converter, fn reflect.Value, inputs []payload.Payload) ([]reflect.Value, bool, error) {
	addContext := false

	fnT := fn.Type()

	numArgs := fnT.NumIn()
	args := make([]reflect.Value, numArgs)

	input := 0
	for i := 0; i < numArgs; i++ {
		argT := fnT.In(i)

		// Insert context if requested
		if i == 0 && (IsOwnContext(argT) || IsContext(argT)) {
			addContext = true
			continue
		}

		if input >= len(inputs) {
			return nil, false, fmt.Errorf("mismatched argument count: expected %d, got %d", numArgs, len(inputs))
		}

		arg := reflect.New(argT).Interface()
		if err := c.From(inputs[input], arg); err != nil {
			return nil, false, fmt.Errorf("converting inputs: %w", err)
		}

		args[i] = reflect.ValueOf(arg).Elem()

		input++
	}

	return args, addContext, nil
}

// IsOwnContext reports whether the given type is a workflow Context.
func IsOwnContext(inType reflect.Type) bool {
	contextElem := reflect.TypeOf((*sync.Context)(nil)).Elem()
	return inType != nil && inType.Implements(contextElem)
}

// IsContext reports whether the given type is a standard library Context.
func IsContext(inType reflect.Type) bool {
	contextElem := reflect.TypeOf((*context.Context)(nil)).Elem()
	return inType != nil && inType.Implements(contextElem)
}
