package command

import (
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend/history"
)

func assertExecuteNoEvent(t *testing.T, c Command, expectedState CommandState) {
	t.Helper()

	r := c.Execute(clock.New())

	require.Nil(t, r)
	require.Equal(t, expectedState, c.State())
}

func assertExecuteWithEvent(t *testing.T, c Command, expectedState CommandState, expectedEventType history.EventType) *CommandResult {
	t.Helper()

	r := c.Execute(clock.New())

	require.NotNil(t, r)
	require.Equal(t, expectedState, c.State())
	require.Len(t, r.Events, 1)
	require.Equal(t, expectedEventType, r.Events[0].Type)

	return r
}

func Test_Command_CommitIsIdempotent(t *testing.T) {
	c := NewSideEffectCommand(1)

	c.Commit()
	require.Equal(t, CommandState_Committed, c.State())

	c.Commit()
	require.Equal(t, CommandState_Committed, c.State())
}

func Test_Command_CannotCommitWhenDone(t *testing.T) {
	c := NewSideEffectCommand(1)

	c.Done()
	require.Equal(t, CommandState_Done, c.State())

	require.PanicsWithValue(t, "invalid state transition for command SideEffect: Done -> Committed", func() {
		c.Commit()
	})
}
