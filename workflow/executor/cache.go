package executor

import (
	"context"

	"github.com/everflowhq/everflow/core"
)

// Cache holds executors with live workflow state between tasks so an instance
// does not have to be replayed from the beginning on every task.
type Cache interface {
	Store(ctx context.Context, instance *core.WorkflowInstance, executor WorkflowExecutor) error
	Evict(ctx context.Context, instance *core.WorkflowInstance) error
	Get(ctx context.Context, instance *core.WorkflowInstance) (WorkflowExecutor, bool, error)
	StartEviction(ctx context.Context)
}
