package workflow

import (
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/core"
)

type (
	Instance = core.WorkflowInstance
	Metadata = metadata.WorkflowMetadata
	Queue    = core.Queue

	// Workflow is the type of a workflow function, func(Context, args...) (result, error)
	Workflow = interface{}

	// Activity is the type of an activity function, func(context.Context, args...) (result, error)
	Activity = interface{}
)

const (
	QueueDefault = core.QueueDefault
	QueueSystem  = core.QueueSystem
)
