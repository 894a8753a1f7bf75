package sync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type ctxKey int

func Test_Context_WithValue(t *testing.T) {
	ctx := WithValue(Background(), ctxKey(42), "foo")
	require.Equal(t, "foo", ctx.Value(ctxKey(42)))
	require.Nil(t, ctx.Value(ctxKey(23)))
}

func Test_Context_WithCancel(t *testing.T) {
	c2, cancel := WithCancel(Background())
	require.NotNil(t, c2.Done())
	require.NoError(t, c2.Err())

	canceled := false

	cr := NewCoroutine(c2, func(ctx Context) error {
		// Child context is canceled when the parent is canceled
		ctx, _ = WithCancel(ctx)

		Select(
			ctx,
			Receive(ctx.Done(), func(ctx Context, _ struct{}, _ bool) {
				canceled = true
			}),
		)

		return nil
	})

	cr.Execute()
	require.False(t, cr.Finished())

	cancel()

	cr.Execute()
	require.True(t, cr.Finished())

	require.True(t, canceled)
	require.Equal(t, Canceled, c2.Err())
}

func Test_Context_Cause(t *testing.T) {
	ctx, cancel := WithCancelCause(Background())

	require.Nil(t, Cause(ctx))

	cause := errors.New("gave up")
	cancel(cause)

	require.Equal(t, cause, Cause(ctx))
	require.Equal(t, Canceled, ctx.Err())
}

func Test_Context_DisconnectedContextSurvivesCancel(t *testing.T) {
	ctx, cancel := WithCancel(Background())

	dctx := NewDisconnectedContext(ctx)

	cancel()

	require.Equal(t, Canceled, ctx.Err())
	require.NoError(t, dctx.Err())
}
