package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/memory/taskqueue"
	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/metrics"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/diag"
	"github.com/everflowhq/everflow/workflow"
)

// instanceState is the per-execution bookkeeping of a workflow instance:
// its history, undelivered pending events, and the task lock.
type instanceState struct {
	instance *core.WorkflowInstance
	metadata *metadata.WorkflowMetadata
	queue    core.Queue

	state       core.WorkflowInstanceState
	createdAt   time.Time
	completedAt *time.Time

	history       []*history.Event
	pendingEvents []*history.Event

	// Task lock. While lockedUntil is in the future, the instance is claimed
	// by worker and no other poller may pick it up.
	lockedUntil *time.Time

	// Stickiness. Until stickyUntil passes, only the last worker that
	// processed this instance may claim it, so its cached executor state can
	// be reused.
	stickyUntil *time.Time

	worker string
}

type activityData struct {
	instance *core.WorkflowInstance
	event    *history.Event
}

type memoryBackend struct {
	mu sync.Mutex

	// instanceID -> executionID -> state
	instances map[string]map[string]*instanceState

	activities *taskqueue.Queue[activityData]

	workerName string

	options *backend.Options
	tracer  trace.Tracer
	clock   clock.Clock
}

var _ backend.Backend = (*memoryBackend)(nil)
var _ diag.Backend = (*memoryBackend)(nil)

// NewMemoryBackend creates a backend that keeps all state in process memory.
// It supports the full backend contract including task locks, stickiness, and
// deferred event delivery, and is intended for tests and local development.
func NewMemoryBackend(opts ...backend.BackendOption) backend.Backend {
	options := backend.ApplyOptions(opts...)

	return &memoryBackend{
		instances:  map[string]map[string]*instanceState{},
		activities: taskqueue.New[activityData](clock.New(), options.ActivityLockTimeout),

		workerName: fmt.Sprintf("worker-%v", uuid.NewString()),

		options: &options,
		tracer:  options.TracerProvider.Tracer(backend.TracerName),
		clock:   clock.New(),
	}
}

func (mb *memoryBackend) Tracer() trace.Tracer {
	return mb.tracer
}

func (mb *memoryBackend) Metrics() metrics.Client {
	return mb.options.Metrics
}

func (mb *memoryBackend) Options() *backend.Options {
	return mb.options
}

func (mb *memoryBackend) Close() error {
	return nil
}

func (mb *memoryBackend) CreateWorkflowInstance(ctx context.Context, instance *workflow.Instance, event *history.Event) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.createInstance(instance, event, false)
}

// createInstance must be called while holding mb.mu.
func (mb *memoryBackend) createInstance(instance *workflow.Instance, event *history.Event, ignoreDuplicate bool) error {
	executions, ok := mb.instances[instance.InstanceID]
	if !ok {
		executions = map[string]*instanceState{}
		mb.instances[instance.InstanceID] = executions
	}

	// Only one execution of an instance may be active at a time
	for _, s := range executions {
		if s.completedAt == nil {
			if ignoreDuplicate {
				return nil
			}

			return backend.ErrInstanceAlreadyExists
		}
	}

	a, ok := event.Attributes.(*history.ExecutionStartedAttributes)
	if !ok {
		return errors.New("event is not a WorkflowExecutionStarted event")
	}

	queue := a.Queue
	if queue == "" {
		queue = core.QueueDefault
	}

	executions[instance.ExecutionID] = &instanceState{
		instance:  instance,
		metadata:  a.Metadata,
		queue:     queue,
		state:     core.WorkflowInstanceStateActive,
		createdAt: mb.clock.Now(),

		pendingEvents: []*history.Event{event},
	}

	return nil
}

func (mb *memoryBackend) CancelWorkflowInstance(ctx context.Context, instance *workflow.Instance, cancelEvent *history.Event) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s := mb.findExecution(instance)
	if s == nil {
		return backend.ErrInstanceNotFound
	}

	s.pendingEvents = append(s.pendingEvents, cancelEvent)

	// Cancel any active sub-workflow instances as well
	mb.cancelSubWorkflows(instance.InstanceID)

	return nil
}

func (mb *memoryBackend) TerminateWorkflowInstance(ctx context.Context, instance *workflow.Instance, terminateEvent *history.Event) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s := mb.findExecution(instance)
	if s == nil {
		return backend.ErrInstanceNotFound
	}

	// Forced transition: append the terminated event directly and drop
	// everything still pending, no workflow code runs for it
	var lastSequenceID int64
	if len(s.history) > 0 {
		lastSequenceID = s.history[len(s.history)-1].SequenceID
	}
	terminateEvent.SequenceID = lastSequenceID + 1

	s.history = append(s.history, terminateEvent)
	s.pendingEvents = nil

	now := mb.clock.Now()
	s.state = core.WorkflowInstanceStateFinished
	s.completedAt = &now
	s.lockedUntil = nil
	s.stickyUntil = nil

	// Children are not terminated with their parent, they get a cooperative
	// cancellation request instead
	mb.cancelSubWorkflows(instance.InstanceID)

	return nil
}

// cancelSubWorkflows must be called while holding mb.mu.
func (mb *memoryBackend) cancelSubWorkflows(instanceID string) {
	for _, executions := range mb.instances {
		for _, s := range executions {
			if s.completedAt != nil || s.instance.Parent == nil || s.instance.Parent.InstanceID != instanceID {
				continue
			}

			s.pendingEvents = append(s.pendingEvents, history.NewWorkflowCancellationEvent(mb.clock.Now()))
			mb.cancelSubWorkflows(s.instance.InstanceID)
		}
	}
}

func (mb *memoryBackend) RemoveWorkflowInstance(ctx context.Context, instance *workflow.Instance) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	executions, ok := mb.instances[instance.InstanceID]
	if !ok {
		return backend.ErrInstanceNotFound
	}

	s, ok := executions[instance.ExecutionID]
	if !ok {
		return backend.ErrInstanceNotFound
	}

	if s.completedAt == nil {
		return backend.ErrInstanceNotFinished
	}

	delete(executions, instance.ExecutionID)
	if len(executions) == 0 {
		delete(mb.instances, instance.InstanceID)
	}

	return nil
}

func (mb *memoryBackend) RemoveWorkflowInstances(ctx context.Context, options ...backend.RemovalOption) error {
	ro := backend.RemovalOptions{
		FinishedBefore: mb.clock.Now(),
	}
	for _, opt := range options {
		opt(&ro)
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	for instanceID, executions := range mb.instances {
		for executionID, s := range executions {
			if s.completedAt != nil && s.completedAt.Before(ro.FinishedBefore) {
				delete(executions, executionID)
			}
		}

		if len(executions) == 0 {
			delete(mb.instances, instanceID)
		}
	}

	return nil
}

func (mb *memoryBackend) GetWorkflowInstanceState(ctx context.Context, instance *workflow.Instance) (core.WorkflowInstanceState, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s, ok := mb.instances[instance.InstanceID][instance.ExecutionID]
	if !ok {
		return core.WorkflowInstanceStateActive, backend.ErrInstanceNotFound
	}

	return s.state, nil
}

func (mb *memoryBackend) GetWorkflowInstanceHistory(ctx context.Context, instance *workflow.Instance, lastSequenceID *int64) ([]*history.Event, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s, ok := mb.instances[instance.InstanceID][instance.ExecutionID]
	if !ok {
		return nil, backend.ErrInstanceNotFound
	}

	var h []*history.Event
	for _, event := range s.history {
		if lastSequenceID != nil && event.SequenceID <= *lastSequenceID {
			continue
		}

		h = append(h, event)
	}

	return h, nil
}

func (mb *memoryBackend) SignalWorkflow(ctx context.Context, instanceID string, event *history.Event) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s := mb.findExecution(core.NewWorkflowInstance(instanceID, ""))
	if s == nil {
		return backend.ErrInstanceNotFound
	}

	s.pendingEvents = append(s.pendingEvents, event)

	return nil
}

func (mb *memoryBackend) PrepareWorkflowQueues(ctx context.Context, queues []workflow.Queue) error {
	return validateQueues(queues)
}

func (mb *memoryBackend) PrepareActivityQueues(ctx context.Context, queues []workflow.Queue) error {
	return validateQueues(queues)
}

func validateQueues(queues []workflow.Queue) error {
	for _, q := range queues {
		if err := core.ValidQueue(q); err != nil {
			return fmt.Errorf("invalid queue %q: %w", q, err)
		}
	}

	return nil
}

func (mb *memoryBackend) GetWorkflowTask(ctx context.Context, queues []workflow.Queue) (*backend.WorkflowTask, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	now := mb.clock.Now()

	accept := make(map[core.Queue]bool, len(queues))
	for _, queue := range queues {
		accept[queue] = true
	}

	for _, executions := range mb.instances {
		for _, s := range executions {
			if s.completedAt != nil || !accept[s.queue] {
				continue
			}

			// Locked by another worker?
			if s.lockedUntil != nil && s.lockedUntil.After(now) {
				continue
			}

			// Sticky to another worker? The identity is per backend instance
			// and a memory backend cannot be shared across processes, so with
			// a single backend every in-process worker shares it and this
			// check never rejects. It mirrors the contract durable backends
			// implement, where each process has its own backend instance.
			if s.stickyUntil != nil && s.stickyUntil.After(now) && s.worker != mb.workerName {
				continue
			}

			newEvents := visibleEvents(s.pendingEvents, now)
			if len(newEvents) == 0 {
				continue
			}

			lockedUntil := now.Add(mb.options.WorkflowLockTimeout)
			s.lockedUntil = &lockedUntil
			s.worker = mb.workerName

			var lastSequenceID int64
			if len(s.history) > 0 {
				lastSequenceID = s.history[len(s.history)-1].SequenceID
			}

			return &backend.WorkflowTask{
				ID:                    uuid.NewString(),
				Queue:                 s.queue,
				WorkflowInstance:      s.instance,
				WorkflowInstanceState: s.state,
				Metadata:              s.metadata,
				LastSequenceID:        lastSequenceID,
				NewEvents:             newEvents,
			}, nil
		}
	}

	return nil, nil
}

func visibleEvents(events []*history.Event, now time.Time) []*history.Event {
	var visible []*history.Event

	for _, event := range events {
		if event.VisibleAt != nil && event.VisibleAt.After(now) {
			continue
		}

		visible = append(visible, event)
	}

	return visible
}

func (mb *memoryBackend) ExtendWorkflowTask(ctx context.Context, task *backend.WorkflowTask) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s, ok := mb.instances[task.WorkflowInstance.InstanceID][task.WorkflowInstance.ExecutionID]
	if !ok {
		return backend.ErrInstanceNotFound
	}

	if s.lockedUntil == nil || s.worker != mb.workerName {
		return errors.New("could not extend workflow task")
	}

	lockedUntil := mb.clock.Now().Add(mb.options.WorkflowLockTimeout)
	s.lockedUntil = &lockedUntil

	return nil
}

func (mb *memoryBackend) CompleteWorkflowTask(
	ctx context.Context, task *backend.WorkflowTask, state core.WorkflowInstanceState,
	executedEvents, activityEvents, timerEvents []*history.Event, workflowEvents []*history.WorkflowEvent,
) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	instance := task.WorkflowInstance

	s, ok := mb.instances[instance.InstanceID][instance.ExecutionID]
	if !ok {
		return backend.ErrInstanceNotFound
	}

	if s.lockedUntil == nil || s.worker != mb.workerName {
		return errors.New("could not find workflow task to complete")
	}

	now := mb.clock.Now()

	// Unlock the instance, but keep it sticky to this worker
	s.lockedUntil = nil
	stickyUntil := now.Add(mb.options.StickyTimeout)
	s.stickyUntil = &stickyUntil

	s.state = state
	if state != core.WorkflowInstanceStateActive {
		completedAt := now
		s.completedAt = &completedAt
	}

	// Remove handled events from the pending set
	handled := make(map[string]bool, len(executedEvents))
	for _, event := range executedEvents {
		handled[event.ID] = true
	}

	pending := s.pendingEvents[:0]
	for _, event := range s.pendingEvents {
		if !handled[event.ID] {
			pending = append(pending, event)
		}
	}
	s.pendingEvents = pending

	// Checkpoint executed events into the history
	s.history = append(s.history, executedEvents...)

	// A canceled timer removes its not-yet-visible fired event
	for _, event := range executedEvents {
		if event.Type == history.EventType_TimerCanceled {
			mb.removeFutureEvent(s, event.ScheduleEventID)
		}
	}

	// Schedule activities
	for _, event := range activityEvents {
		queue := s.queue

		// An activity with a heartbeat timeout has to report liveness within
		// that window, its lease is bounded by it instead of the lock timeout
		var leaseTimeout time.Duration
		if a, ok := event.Attributes.(*history.ActivityScheduledAttributes); ok {
			if a.Queue != nil {
				queue = *a.Queue
			}

			leaseTimeout = a.HeartbeatTimeout
		}

		mb.activities.EnqueueWithLease(queue, event.ID, activityData{
			instance: instance,
			event:    event,
		}, leaseTimeout)
	}

	// Timer events become visible to this instance in the future
	s.pendingEvents = append(s.pendingEvents, timerEvents...)

	// Deliver events to other workflow instances
	groupedEvents := history.EventsByWorkflowInstance(workflowEvents)

	for targetInstance, events := range groupedEvents {
		for _, m := range events {
			if m.HistoryEvent.Type == history.EventType_WorkflowExecutionStarted {
				// Creates a sub-workflow instance or the next execution of a
				// continued-as-new instance
				if err := mb.createInstance(m.WorkflowInstance, m.HistoryEvent, true); err != nil {
					return err
				}

				continue
			}

			ts := mb.instances[targetInstance.InstanceID][targetInstance.ExecutionID]
			if ts == nil {
				return fmt.Errorf("delivering event to instance %v: %w", targetInstance.InstanceID, backend.ErrInstanceNotFound)
			}

			ts.pendingEvents = append(ts.pendingEvents, m.HistoryEvent)
		}
	}

	return nil
}

// removeFutureEvent must be called while holding mb.mu.
func (mb *memoryBackend) removeFutureEvent(s *instanceState, scheduleEventID int64) {
	pending := s.pendingEvents[:0]
	for _, event := range s.pendingEvents {
		if event.VisibleAt != nil && event.ScheduleEventID == scheduleEventID {
			continue
		}

		pending = append(pending, event)
	}

	s.pendingEvents = pending
}

func (mb *memoryBackend) GetActivityTask(ctx context.Context, queues []workflow.Queue) (*backend.ActivityTask, error) {
	item := mb.activities.Dequeue(queues)
	if item == nil {
		return nil, nil
	}

	return &backend.ActivityTask{
		ID:               item.ID,
		Queue:            item.Queue,
		WorkflowInstance: item.Data.instance,
		Event:            item.Data.event,
	}, nil
}

func (mb *memoryBackend) ExtendActivityTask(ctx context.Context, task *backend.ActivityTask) error {
	if err := mb.activities.Extend(task.ID); err != nil {
		return fmt.Errorf("extending activity task: %w", err)
	}

	return nil
}

func (mb *memoryBackend) CompleteActivityTask(ctx context.Context, task *backend.ActivityTask, result *history.Event) error {
	if _, err := mb.activities.Complete(task.ID); err != nil {
		return fmt.Errorf("completing activity task: %w", err)
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	instance := task.WorkflowInstance

	s, ok := mb.instances[instance.InstanceID][instance.ExecutionID]
	if !ok {
		return backend.ErrInstanceNotFound
	}

	s.pendingEvents = append(s.pendingEvents, result)

	return nil
}

func (mb *memoryBackend) GetStats(ctx context.Context) (*backend.Stats, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	stats := &backend.Stats{
		PendingActivities: mb.activities.Size(),
	}

	now := mb.clock.Now()

	for _, executions := range mb.instances {
		for _, s := range executions {
			if s.completedAt != nil {
				continue
			}

			stats.ActiveWorkflowInstances++

			if len(visibleEvents(s.pendingEvents, now)) > 0 {
				stats.PendingWorkflowTasks++
			}
		}
	}

	return stats, nil
}

// GetWorkflowInstance returns a diagnostic summary of the given execution.
func (mb *memoryBackend) GetWorkflowInstance(ctx context.Context, instance *core.WorkflowInstance) (*diag.WorkflowInstanceRef, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	s, ok := mb.instances[instance.InstanceID][instance.ExecutionID]
	if !ok {
		return nil, backend.ErrInstanceNotFound
	}

	return instanceRef(s), nil
}

// GetWorkflowInstances lists executions ordered by creation time, newest
// first. Pagination continues after the given instance/execution pair.
func (mb *memoryBackend) GetWorkflowInstances(ctx context.Context, afterInstanceID, afterExecutionID string, count int) ([]*diag.WorkflowInstanceRef, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	var refs []*diag.WorkflowInstanceRef
	for _, executions := range mb.instances {
		for _, s := range executions {
			refs = append(refs, instanceRef(s))
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if !refs[i].CreatedAt.Equal(refs[j].CreatedAt) {
			return refs[i].CreatedAt.After(refs[j].CreatedAt)
		}

		return refs[i].Instance.InstanceID < refs[j].Instance.InstanceID
	})

	start := 0
	if afterInstanceID != "" {
		for i, ref := range refs {
			if ref.Instance.InstanceID == afterInstanceID && ref.Instance.ExecutionID == afterExecutionID {
				start = i + 1
				break
			}
		}
	}

	end := start + count
	if end > len(refs) {
		end = len(refs)
	}

	return refs[start:end], nil
}

func instanceRef(s *instanceState) *diag.WorkflowInstanceRef {
	return &diag.WorkflowInstanceRef{
		Instance:    s.instance,
		CreatedAt:   s.createdAt,
		CompletedAt: s.completedAt,
		State:       s.state,
		Queue:       string(s.queue),
	}
}

// findExecution returns the active execution of the given instance. When the
// instance carries an execution id, that execution has to match. Must be
// called while holding mb.mu.
func (mb *memoryBackend) findExecution(instance *core.WorkflowInstance) *instanceState {
	for _, s := range mb.instances[instance.InstanceID] {
		if s.completedAt != nil {
			continue
		}

		if instance.ExecutionID != "" && s.instance.ExecutionID != instance.ExecutionID {
			continue
		}

		return s
	}

	return nil
}
