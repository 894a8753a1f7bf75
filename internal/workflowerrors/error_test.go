package workflowerrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type CustomError struct {
	msg string
}

func (e *CustomError) Error() string {
	return e.msg
}

func Test_FromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	e := FromError(errors.New("simple"))
	require.Equal(t, "", e.Type)
	require.Equal(t, "simple", e.Message)
	require.False(t, e.Permanent)

	e = FromError(&CustomError{msg: "custom"})
	require.Equal(t, "CustomError", e.Type)
	require.Equal(t, "custom", e.Message)
}

func Test_FromError_DoesNotWrapTwice(t *testing.T) {
	e := FromError(errors.New("simple"))

	require.Same(t, e, FromError(e))
}

func Test_FromError_KeepsCauseChain(t *testing.T) {
	cause := &CustomError{msg: "root cause"}
	e := FromError(fmt.Errorf("wrapped: %w", cause))

	require.Equal(t, "wrapped: root cause", e.Message)
	require.NotNil(t, e.Cause)

	var ce *Error
	require.ErrorAs(t, e.Unwrap(), &ce)
	require.Equal(t, "CustomError", ce.Type)
}

func Test_Error_SurvivesJSONRoundTrip(t *testing.T) {
	e := FromError(fmt.Errorf("outer: %w", &CustomError{msg: "inner"}))

	b, err := json.Marshal(e)
	require.NoError(t, err)

	var restored Error
	require.NoError(t, json.Unmarshal(b, &restored))

	require.Equal(t, e.Message, restored.Message)
	require.NotNil(t, restored.Cause)

	var cause *Error
	require.ErrorAs(t, restored.Unwrap(), &cause)
	require.Equal(t, "CustomError", cause.Type)
	require.Equal(t, "inner", cause.Message)
}

func Test_ToError(t *testing.T) {
	require.Nil(t, ToError(nil))

	e := FromError(&CustomError{msg: "custom"})
	restored := ToError(e)

	var we *Error
	require.ErrorAs(t, restored, &we)
	require.Equal(t, "CustomError", we.Type)
}

func Test_ToError_RestoresPanicError(t *testing.T) {
	pe := NewPanicError("boom")
	restored := ToError(FromError(pe))

	var rpe *PanicError
	require.ErrorAs(t, restored, &rpe)
	require.Equal(t, "boom", rpe.Error())
	require.NotEmpty(t, rpe.Stack())
}

func Test_CanRetry(t *testing.T) {
	require.True(t, CanRetry(errors.New("plain")))
	require.True(t, CanRetry(FromError(errors.New("transient"))))
	require.False(t, CanRetry(NewPermanentError(errors.New("fatal"))))
	require.False(t, CanRetry(fmt.Errorf("wrapped: %w", NewPermanentError(errors.New("fatal")))))
}

func Test_ErrorType(t *testing.T) {
	require.Equal(t, "", ErrorType(errors.New("plain")))
	require.Equal(t, "CustomError", ErrorType(&CustomError{msg: "custom"}))
	require.Equal(t, "CustomError", ErrorType(FromError(&CustomError{msg: "custom"})))
}
