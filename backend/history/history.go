package history

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type EventType uint

const (
	_ EventType = iota

	EventType_WorkflowExecutionStarted
	EventType_WorkflowExecutionFinished
	EventType_WorkflowExecutionContinuedAsNew
	EventType_WorkflowExecutionCanceled
	EventType_WorkflowExecutionTerminated

	EventType_WorkflowTaskStarted

	EventType_SubWorkflowScheduled
	EventType_SubWorkflowCancellationRequested
	EventType_SubWorkflowCompleted
	EventType_SubWorkflowFailed

	EventType_ActivityScheduled
	EventType_ActivityCompleted
	EventType_ActivityFailed

	EventType_TimerScheduled
	EventType_TimerFired
	EventType_TimerCanceled

	EventType_SignalReceived
	EventType_SignalWorkflow

	EventType_SideEffectResult

	EventType_VersionMarkerRecorded
)

func (et EventType) String() string {
	switch et {
	case EventType_WorkflowExecutionStarted:
		return "WorkflowExecutionStarted"
	case EventType_WorkflowExecutionFinished:
		return "WorkflowExecutionFinished"
	case EventType_WorkflowExecutionContinuedAsNew:
		return "WorkflowExecutionContinuedAsNew"
	case EventType_WorkflowExecutionCanceled:
		return "WorkflowExecutionCanceled"
	case EventType_WorkflowExecutionTerminated:
		return "WorkflowExecutionTerminated"

	case EventType_WorkflowTaskStarted:
		return "WorkflowTaskStarted"

	case EventType_SubWorkflowScheduled:
		return "SubWorkflowScheduled"
	case EventType_SubWorkflowCancellationRequested:
		return "SubWorkflowCancellationRequested"
	case EventType_SubWorkflowCompleted:
		return "SubWorkflowCompleted"
	case EventType_SubWorkflowFailed:
		return "SubWorkflowFailed"

	case EventType_ActivityScheduled:
		return "ActivityScheduled"
	case EventType_ActivityCompleted:
		return "ActivityCompleted"
	case EventType_ActivityFailed:
		return "ActivityFailed"

	case EventType_TimerScheduled:
		return "TimerScheduled"
	case EventType_TimerFired:
		return "TimerFired"
	case EventType_TimerCanceled:
		return "TimerCanceled"

	case EventType_SignalReceived:
		return "SignalReceived"
	case EventType_SignalWorkflow:
		return "SignalWorkflow"

	case EventType_SideEffectResult:
		return "SideEffectResult"

	case EventType_VersionMarkerRecorded:
		return "VersionMarkerRecorded"

	default:
		return "Unknown"
	}
}

// Event is one atomic, immutable fact about a workflow instance. Events are
// append-only; the ordered sequence of events is the sole source of truth for
// replay.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id,omitempty"`

	Type EventType `json:"type,omitempty"`

	// Timestamp is assigned when the event is created for appending, not when
	// the underlying fact happened, to keep replay deterministic.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// SequenceID is the position of this event in the instance history. It is
	// assigned by the executor when the event is appended.
	SequenceID int64 `json:"sequence_id,omitempty"`

	// ScheduleEventID correlates events belonging together. A scheduled
	// activity and its completion or failure share the same ScheduleEventID.
	ScheduleEventID int64 `json:"schedule_event_id,omitempty"`

	// Attributes are event type specific attributes.
	Attributes interface{} `json:"attr,omitempty"`

	// VisibleAt defers delivery of the event, used for timers and retries.
	VisibleAt *time.Time `json:"visible_at,omitempty"`
}

func (e *Event) String() string {
	return strconv.Itoa(int(e.Type))
}

type HistoryEventOption func(e *Event)

func ScheduleEventID(scheduleEventID int64) HistoryEventOption {
	return func(e *Event) {
		e.ScheduleEventID = scheduleEventID
	}
}

func VisibleAt(visibleAt time.Time) HistoryEventOption {
	return func(e *Event) {
		e.VisibleAt = &visibleAt
	}
}

// NewHistoryEvent creates an event with the given position in the instance
// history.
func NewHistoryEvent(sequenceID int64, timestamp time.Time, eventType EventType, attributes interface{}, opts ...HistoryEventOption) *Event {
	e := NewPendingEvent(timestamp, eventType, attributes, opts...)
	e.SequenceID = sequenceID

	return e
}

// NewPendingEvent creates a new event which has not been appended to any
// history yet, its SequenceID is unset.
func NewPendingEvent(timestamp time.Time, eventType EventType, attributes interface{}, opts ...HistoryEventOption) *Event {
	e := &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Timestamp:  timestamp,
		Attributes: attributes,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func NewWorkflowCancellationEvent(timestamp time.Time) *Event {
	return NewPendingEvent(timestamp, EventType_WorkflowExecutionCanceled, &ExecutionCanceledAttributes{})
}

func NewWorkflowTerminationEvent(timestamp time.Time, reason string) *Event {
	return NewPendingEvent(timestamp, EventType_WorkflowExecutionTerminated, &ExecutionTerminatedAttributes{
		Reason: reason,
	})
}
