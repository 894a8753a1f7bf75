package sync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Go(t *testing.T) {
	s := NewScheduler()

	called := false

	s.NewCoroutine(Background(), func(ctx Context) error {
		Go(ctx, func(ctx Context) {
			called = true
		})

		return nil
	})

	require.NoError(t, s.Execute())
	require.True(t, called)
}

func Test_Go_MultipleCoroutines(t *testing.T) {
	s := NewScheduler()

	called := 0

	s.NewCoroutine(Background(), func(ctx Context) error {
		Go(ctx, func(ctx Context) {
			called++
		})

		Go(ctx, func(ctx Context) {
			called++
		})

		return nil
	})

	require.NoError(t, s.Execute())
	require.Equal(t, 2, called)
}
