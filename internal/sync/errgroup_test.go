package sync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ErrGroup_Success(t *testing.T) {
	s := NewScheduler()

	s.NewCoroutine(Background(), func(ctx Context) error {
		gctx, g := WithErrGroup(ctx)

		g.Go(func(ctx Context) error { return nil })
		g.Go(func(ctx Context) error { return nil })

		err := g.Wait(gctx)
		require.NoError(t, err)

		return nil
	})

	require.NoError(t, s.Execute())
	require.Equal(t, 0, s.RunningCoroutines())
}

func Test_ErrGroup_FirstErrorWins(t *testing.T) {
	s := NewScheduler()

	e1 := errors.New("first")
	e2 := errors.New("second")

	s.NewCoroutine(Background(), func(ctx Context) error {
		gctx, g := WithErrGroup(ctx)

		g.Go(func(ctx Context) error { return e1 })
		g.Go(func(ctx Context) error { return e2 })

		err := g.Wait(gctx)
		require.Equal(t, e1, err)

		return nil
	})

	require.NoError(t, s.Execute())
}

func Test_ErrGroup_CancelsContextOnError(t *testing.T) {
	s := NewScheduler()

	s.NewCoroutine(Background(), func(ctx Context) error {
		gctx, g := WithErrGroup(ctx)

		g.Go(func(ctx Context) error { return errors.New("boom") })

		err := g.Wait(gctx)
		require.EqualError(t, err, "boom")
		require.Equal(t, Canceled, gctx.Err())

		return nil
	})

	require.NoError(t, s.Execute())
}
