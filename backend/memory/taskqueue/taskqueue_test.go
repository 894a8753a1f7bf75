package taskqueue

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/everflowhq/everflow/core"
)

func Test_Queue_DequeueEmpty(t *testing.T) {
	q := New[string](clock.NewMock(), time.Minute)

	require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
}

func Test_Queue_EnqueueDequeue(t *testing.T) {
	q := New[string](clock.NewMock(), time.Minute)

	q.Enqueue(core.QueueDefault, "t1", "data")

	item := q.Dequeue([]core.Queue{core.QueueDefault})
	require.NotNil(t, item)
	require.Equal(t, "t1", item.ID)
	require.Equal(t, core.QueueDefault, item.Queue)
	require.Equal(t, "data", item.Data)

	// Leased, not delivered again while the lock is held
	require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
}

func Test_Queue_FIFOPerQueue(t *testing.T) {
	q := New[int](clock.NewMock(), time.Minute)

	q.Enqueue(core.QueueDefault, "t1", 1)
	q.Enqueue(core.QueueDefault, "t2", 2)
	q.Enqueue(core.QueueDefault, "t3", 3)

	for i := 1; i <= 3; i++ {
		item := q.Dequeue([]core.Queue{core.QueueDefault})
		require.NotNil(t, item)
		require.Equal(t, i, item.Data)
	}
}

func Test_Queue_PartitionedByQueue(t *testing.T) {
	q := New[string](clock.NewMock(), time.Minute)

	q.Enqueue("compute", "t1", "compute-task")

	// A consumer of the default queue does not see tasks for other queues
	require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))

	item := q.Dequeue([]core.Queue{"compute"})
	require.NotNil(t, item)
	require.Equal(t, "compute-task", item.Data)
}

func Test_Queue_RedeliversAbandonedTask(t *testing.T) {
	c := clock.NewMock()
	q := New[string](c, time.Minute)

	q.Enqueue(core.QueueDefault, "t1", "data")

	item := q.Dequeue([]core.Queue{core.QueueDefault})
	require.NotNil(t, item)

	// Not yet expired
	c.Add(time.Second * 30)
	require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))

	// Lock expired, task is handed out again
	c.Add(time.Minute)
	item = q.Dequeue([]core.Queue{core.QueueDefault})
	require.NotNil(t, item)
	require.Equal(t, "t1", item.ID)
}

func Test_Queue_LeaseTimeoutBoundsLock(t *testing.T) {
	c := clock.NewMock()
	q := New[string](c, time.Minute)

	// The task's own lease window is shorter than the queue lock timeout
	q.EnqueueWithLease(core.QueueDefault, "t1", "data", time.Second*10)

	item := q.Dequeue([]core.Queue{core.QueueDefault})
	require.NotNil(t, item)

	// Redelivered once the short lease expired, well before the lock timeout
	c.Add(time.Second * 11)
	item = q.Dequeue([]core.Queue{core.QueueDefault})
	require.NotNil(t, item)
	require.Equal(t, "t1", item.ID)
}

func Test_Queue_ExtendRenewsLeaseWindow(t *testing.T) {
	c := clock.NewMock()
	q := New[string](c, time.Minute)

	q.EnqueueWithLease(core.QueueDefault, "t1", "data", time.Second*10)
	require.NotNil(t, q.Dequeue([]core.Queue{core.QueueDefault}))

	// Regular extensions keep the task leased across its short window
	for i := 0; i < 5; i++ {
		c.Add(time.Second * 8)
		require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
		require.NoError(t, q.Extend("t1"))
	}

	// Once extensions stop, the lease window applies again
	c.Add(time.Second * 11)
	require.NotNil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
}

func Test_Queue_ExtendKeepsLease(t *testing.T) {
	c := clock.NewMock()
	q := New[string](c, time.Minute)

	q.Enqueue(core.QueueDefault, "t1", "data")
	require.NotNil(t, q.Dequeue([]core.Queue{core.QueueDefault}))

	c.Add(time.Second * 45)
	require.NoError(t, q.Extend("t1"))

	// Original lock would have expired by now, the extension keeps it leased
	c.Add(time.Second * 30)
	require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
}

func Test_Queue_ExtendUnknownTask(t *testing.T) {
	q := New[string](clock.NewMock(), time.Minute)

	require.ErrorIs(t, q.Extend("unknown"), ErrTaskNotFound)
}

func Test_Queue_Complete(t *testing.T) {
	c := clock.NewMock()
	q := New[string](c, time.Minute)

	q.Enqueue(core.QueueDefault, "t1", "data")
	require.NotNil(t, q.Dequeue([]core.Queue{core.QueueDefault}))

	item, err := q.Complete("t1")
	require.NoError(t, err)
	require.Equal(t, "data", item.Data)

	// Completed tasks are not redelivered after the lock would have expired
	c.Add(time.Hour)
	require.Nil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
}

func Test_Queue_CompleteUnknownTask(t *testing.T) {
	q := New[string](clock.NewMock(), time.Minute)

	_, err := q.Complete("unknown")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func Test_Queue_Size(t *testing.T) {
	q := New[string](clock.NewMock(), time.Minute)

	require.Equal(t, int64(0), q.Size())

	q.Enqueue(core.QueueDefault, "t1", "a")
	q.Enqueue("compute", "t2", "b")
	require.Equal(t, int64(2), q.Size())

	// Leased tasks still count towards the size
	require.NotNil(t, q.Dequeue([]core.Queue{core.QueueDefault}))
	require.Equal(t, int64(2), q.Size())

	_, err := q.Complete("t1")
	require.NoError(t, err)
	require.Equal(t, int64(1), q.Size())
}
