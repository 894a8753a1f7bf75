package contextvalue

import (
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/sync"
)

type queueKey struct{}

// WithQueue stores the queue the current task was received from.
func WithQueue(ctx sync.Context, queue core.Queue) sync.Context {
	return sync.WithValue(ctx, queueKey{}, queue)
}

func Queue(ctx sync.Context) core.Queue {
	if q, ok := ctx.Value(queueKey{}).(core.Queue); ok {
		return q
	}

	return core.QueueDefault
}
