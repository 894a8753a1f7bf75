package args

import (
	"fmt"
	"reflect"
)

// ReturnTypeMatch checks that the given function returns a value assignable
// to TResult. Functions returning only an error match any TResult.
func ReturnTypeMatch[TResult any](fn interface{}) error {
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("not a function")
	}

	if fnType.NumOut() < 2 {
		// Only an error is returned, nothing to check
		return nil
	}

	resultType := reflect.TypeOf((*TResult)(nil)).Elem()
	returnType := fnType.Out(0)

	if resultType.Kind() == reflect.Interface && returnType.Implements(resultType) {
		return nil
	}

	if !returnType.AssignableTo(resultType) {
		return fmt.Errorf("mismatched result types: expected %s, got %s", resultType, returnType)
	}

	return nil
}

// ParamsMatch checks that the given arguments can be passed to the given
// function, skipping a leading context parameter.
func ParamsMatch(fn interface{}, args ...interface{}) error {
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("not a function")
	}

	numIn := fnType.NumIn()
	skip := 0
	if numIn > 0 && (IsOwnContext(fnType.In(0)) || IsContext(fnType.In(0))) {
		skip = 1
	}

	if numIn-skip != len(args) {
		return fmt.Errorf("mismatched argument count: expected %d, got %d", numIn-skip, len(args))
	}

	for i, arg := range args {
		argType := reflect.TypeOf(arg)
		paramType := fnType.In(i + skip)

		if argType == nil {
			// Untyped nil matches any nilable parameter
			switch paramType.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
				continue
			default:
				return fmt.Errorf("mismatched argument type: argument %d is nil, expected %s", i, paramType)
			}
		}

		if paramType.Kind() == reflect.Interface && argType.Implements(paramType) {
			continue
		}

		if !argType.AssignableTo(paramType) {
			return fmt.Errorf("mismatched argument type: argument %d is %s, expected %s", i, argType, paramType)
		}
	}

	return nil
}
