package command

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
)

func TestContinueAsNewCommand_StartsNewExecution(t *testing.T) {
	instance := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())

	cmd := NewContinueAsNewCommand(
		1, instance, payload.Payload{}, "", "Workflow", &metadata.WorkflowMetadata{}, []payload.Payload{})

	r := assertExecuteWithEvent(t, cmd, CommandState_Committed, history.EventType_WorkflowExecutionContinuedAsNew)

	require.Equal(t, core.WorkflowInstanceStateContinuedAsNew, r.State)

	// A fresh execution of the same instance is started
	require.Len(t, r.WorkflowEvents, 1)
	require.Equal(t, history.EventType_WorkflowExecutionStarted, r.WorkflowEvents[0].HistoryEvent.Type)

	continued := r.WorkflowEvents[0].WorkflowInstance
	require.Equal(t, instance.InstanceID, continued.InstanceID)
	require.NotEqual(t, instance.ExecutionID, continued.ExecutionID)
	require.Equal(t, continued, cmd.ContinuedExecution)

	a := r.Events[0].Attributes.(*history.ExecutionContinuedAsNewAttributes)
	require.Equal(t, continued.ExecutionID, a.ContinuedExecutionID)
}

func TestContinueAsNewCommand_KeepsParentForSubWorkflows(t *testing.T) {
	parent := core.NewWorkflowInstance(uuid.NewString(), uuid.NewString())
	instance := core.NewSubWorkflowInstance(uuid.NewString(), uuid.NewString(), parent, 23)

	cmd := NewContinueAsNewCommand(
		1, instance, payload.Payload{}, "", "Workflow", &metadata.WorkflowMetadata{}, []payload.Payload{})

	r := assertExecuteWithEvent(t, cmd, CommandState_Committed, history.EventType_WorkflowExecutionContinuedAsNew)

	continued := r.WorkflowEvents[0].WorkflowInstance
	require.True(t, continued.SubWorkflow())
	require.Equal(t, parent, continued.Parent)
	require.Equal(t, int64(23), continued.ParentEventID)
}
