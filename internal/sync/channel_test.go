package sync

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Channel_Unbuffered(t *testing.T) {
	tests := []struct {
		name string
		fn   func(t *testing.T, c *channel[int])
	}{
		{
			name: "Send_Blocks",
			fn: func(t *testing.T, c *channel[int]) {
				cr := NewCoroutine(Background(), func(ctx Context) error {
					c.Send(ctx, 42)

					return nil
				})

				cr.Execute()

				require.False(t, cr.Finished())
				require.True(t, cr.Blocked())

				cr.Exit()
			},
		},
		{
			name: "Receive_Blocks",
			fn: func(t *testing.T, c *channel[int]) {
				cr := NewCoroutine(Background(), func(ctx Context) error {
					c.Receive(ctx)

					return nil
				})

				cr.Execute()

				require.False(t, cr.Finished())
				require.True(t, cr.Blocked())

				cr.Exit()
			},
		},
		{
			name: "Receive_BlocksUntilSend",
			fn: func(t *testing.T, c *channel[int]) {
				var r int

				cr := NewCoroutine(Background(), func(ctx Context) error {
					var ok bool
					r, ok = c.Receive(ctx)
					require.True(t, ok)

					return nil
				})
				cr.Execute()

				require.True(t, cr.Blocked(), "coroutine should be blocked")

				// A waiting receiver accepts the value directly, no blocking
				ok := c.SendNonblocking(42)
				require.True(t, ok)

				cr.Execute()

				require.True(t, cr.Progress())
				require.True(t, cr.Finished())
				require.False(t, cr.Blocked())

				require.Equal(t, 42, r)
			},
		},
		{
			name: "Receive_Closed",
			fn: func(t *testing.T, c *channel[int]) {
				r := 42

				cr := NewCoroutine(Background(), func(ctx Context) error {
					var ok bool
					r, ok = c.Receive(ctx)
					require.False(t, ok, "expected zero element")

					return nil
				})
				cr.Execute()

				require.True(t, cr.Blocked(), "coroutine should be blocked")

				c.Close()

				cr.Execute()

				require.True(t, cr.Finished())
				require.False(t, cr.Blocked())

				require.Zero(t, r)
			},
		},
		{
			name: "Send_BlocksUntilReceive",
			fn: func(t *testing.T, c *channel[int]) {
				crSend := NewCoroutine(Background(), func(ctx Context) error {
					c.Send(ctx, 42)

					return nil
				})
				crSend.Execute()

				require.True(t, crSend.Blocked(), "coroutine should be blocked")

				var r int
				crReceive := NewCoroutine(Background(), func(ctx Context) error {
					var ok bool
					r, ok = c.Receive(ctx)
					require.True(t, ok)

					return nil
				})
				crReceive.Execute()

				require.True(t, crReceive.Finished())

				crSend.Execute()

				require.True(t, crSend.Finished())
				require.False(t, crSend.Blocked())

				require.Equal(t, 42, r)
			},
		},
		{
			name: "SendNonblocking_NoReceiver",
			fn: func(t *testing.T, c *channel[int]) {
				// Unbuffered and no waiting receiver, value is not accepted
				ok := c.SendNonblocking(42)

				require.False(t, ok)
			},
		},
		{
			name: "ReceiveNonblocking_Empty",
			fn: func(t *testing.T, c *channel[int]) {
				_, _, received := c.ReceiveNonblocking()

				require.False(t, received)
			},
		},
		{
			name: "ReceiveNonblocking_Closed",
			fn: func(t *testing.T, c *channel[int]) {
				c.Close()

				v, ok, received := c.ReceiveNonblocking()

				require.True(t, received)
				require.False(t, ok)
				require.Zero(t, v)
			},
		},
		{
			name: "MultipleReceivesSends",
			fn: func(t *testing.T, c *channel[int]) {
				ctx := Background()
				s := NewScheduler()

				var r int

				for i := 0; i < 10; i++ {
					s.NewCoroutine(ctx, func(ctx Context) error {
						c.Receive(ctx)
						r++

						return nil
					})
				}

				require.NoError(t, s.Execute())
				require.Equal(t, 0, r)

				for i := 0; i < 10; i++ {
					s.NewCoroutine(ctx, func(ctx Context) error {
						c.Send(ctx, 42)

						return nil
					})
				}

				for i := 0; s.RunningCoroutines() > 0; i++ {
					require.Less(t, i, 100, "channel operations did not converge")
					require.NoError(t, s.Execute())
				}

				require.Equal(t, 10, r)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChannel[int]()
			tt.fn(t, c.(*channel[int]))
		})
	}
}

func Test_Channel_Buffered(t *testing.T) {
	tests := []struct {
		name string
		size int
		fn   func(t *testing.T, c *channel[int])
	}{
		{
			name: "Send_BlocksWhenFull",
			size: 1,
			fn: func(t *testing.T, c *channel[int]) {
				ctx := Background()

				sentValue := false

				cr := NewCoroutine(ctx, func(ctx Context) error {
					c.Send(ctx, 42)
					sentValue = true
					c.Send(ctx, 23)

					return nil
				})

				cr.Execute()

				// First send is buffered, second blocks
				require.True(t, cr.Blocked())
				require.True(t, sentValue)

				var r int
				crReceive := NewCoroutine(ctx, func(ctx Context) error {
					for {
						r, _ = c.Receive(ctx)
						getCoState(ctx).Yield()
					}
				})

				crReceive.Execute()
				require.Equal(t, 42, r)

				cr.Execute()
				require.True(t, cr.Finished())

				crReceive.Execute()
				require.Equal(t, 23, r)

				crReceive.Exit()
			},
		},
		{
			name: "SendNonblocking_UsesCapacity",
			size: 2,
			fn: func(t *testing.T, c *channel[int]) {
				require.True(t, c.SendNonblocking(1))
				require.True(t, c.SendNonblocking(2))
				require.False(t, c.SendNonblocking(3))

				v, ok, received := c.ReceiveNonblocking()
				require.True(t, received)
				require.True(t, ok)
				require.Equal(t, 1, v)
			},
		},
		{
			name: "CanReceiveAfterClose",
			size: 3,
			fn: func(t *testing.T, c *channel[int]) {
				cr := NewCoroutine(Background(), func(ctx Context) error {
					c.Send(ctx, 1)
					c.Send(ctx, 2)
					c.Send(ctx, 3)

					c.Close()

					for i := 0; i < 3; i++ {
						r, ok := c.Receive(ctx)
						require.True(t, ok)
						require.Equal(t, i+1, r)
					}

					// Receive zero element once channel is drained
					r, ok := c.Receive(ctx)
					require.Zero(t, r)
					require.False(t, ok)

					return nil
				})
				cr.Execute()

				require.NoError(t, cr.Error())
				require.True(t, cr.Finished())
			},
		},
		{
			name: "CannotSendAfterClose",
			size: 3,
			fn: func(t *testing.T, c *channel[int]) {
				cr := NewCoroutine(Background(), func(ctx Context) error {
					c.Close()

					c.Send(ctx, 1)

					return nil
				})
				cr.Execute()

				require.EqualError(t, cr.Error(), "panic: channel closed")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBufferedChannel[int](tt.size)
			tt.fn(t, c.(*channel[int]))
		})
	}
}

func Test_Channel_AddReceiveCallback(t *testing.T) {
	c := NewChannel[string]().(*channel[string])

	var got string
	c.AddReceiveCallback(func(v string, ok bool) {
		got = v
	})

	require.True(t, c.SendNonblocking("hello"))
	require.Equal(t, "hello", got)
}
