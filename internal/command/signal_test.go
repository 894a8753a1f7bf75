package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
)

func TestSignalWorkflowCommand_StateTransitions(t *testing.T) {
	tests := []struct {
		name string
		f    func(t *testing.T, c *SignalWorkflowCommand)
	}{
		{"Execute records signal", func(t *testing.T, c *SignalWorkflowCommand) {
			r := assertExecuteWithEvent(t, c, CommandState_Done, history.EventType_SignalWorkflow)

			// The signal is delivered to the target instance
			require.Len(t, r.WorkflowEvents, 1)
			require.Equal(t, history.EventType_SignalReceived, r.WorkflowEvents[0].HistoryEvent.Type)
			require.Equal(t, "target", r.WorkflowEvents[0].WorkflowInstance.InstanceID)
		}},
		{"Done_while_pending", func(t *testing.T, c *SignalWorkflowCommand) {
			c.Done()
			require.Equal(t, CommandState_Done, c.State())

			assertExecuteNoEvent(t, c, CommandState_Done)
		}},
		{"Done_after_commit", func(t *testing.T, c *SignalWorkflowCommand) {
			c.Commit()

			c.Done()
			require.Equal(t, CommandState_Done, c.State())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewSignalWorkflowCommand(1, "target", "signal", payload.Payload{})

			tt.f(t, cmd)
		})
	}
}
