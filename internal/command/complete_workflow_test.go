package command

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/workflowerrors"
)

func TestCompleteWorkflowCommand_TopLevelInstance(t *testing.T) {
	cmd := NewCompleteWorkflowCommand(1, core.NewWorkflowInstance(uuid.NewString(), uuid.NewString()), payload.Payload{}, nil)

	r := assertExecuteWithEvent(t, cmd, CommandState_Committed, history.EventType_WorkflowExecutionFinished)

	require.Equal(t, core.WorkflowInstanceStateFinished, r.State)
	require.Empty(t, r.WorkflowEvents)
}

func TestCompleteWorkflowCommand_SubWorkflowReportsToParent(t *testing.T) {
	parent := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())
	instance := core.NewSubWorkflowInstance(uuid.NewString(), uuid.NewString(), parent, 42)

	tests := []struct {
		name              string
		err               *workflowerrors.Error
		expectedEventType history.EventType
	}{
		{"success reports completion", nil, history.EventType_SubWorkflowCompleted},
		{"failure reports error", workflowerrors.FromError(errors.New("failed")), history.EventType_SubWorkflowFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewCompleteWorkflowCommand(1, instance, payload.Payload{}, tt.err)

			r := assertExecuteWithEvent(t, cmd, CommandState_Committed, history.EventType_WorkflowExecutionFinished)

			require.Len(t, r.WorkflowEvents, 1)
			require.Equal(t, parent, r.WorkflowEvents[0].WorkflowInstance)
			require.Equal(t, tt.expectedEventType, r.WorkflowEvents[0].HistoryEvent.Type)

			// The parent correlates the result via the event that scheduled us
			require.Equal(t, int64(42), r.WorkflowEvents[0].HistoryEvent.ScheduleEventID)
		})
	}
}

func TestCompleteWorkflowCommand_Commit(t *testing.T) {
	cmd := NewCompleteWorkflowCommand(1, core.NewWorkflowInstance(uuid.NewString(), uuid.NewString()), payload.Payload{}, nil)

	cmd.Commit()
	require.Equal(t, CommandState_Committed, cmd.State())

	assertExecuteNoEvent(t, cmd, CommandState_Committed)
}
