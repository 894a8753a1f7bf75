// Package log defines the structured logging keys used across the engine.
// Logs are keyed by instance, execution, and event sequence so one workflow's
// records can be correlated end to end.
package log

const (
	InstanceIDKey  = "instance_id"
	ExecutionIDKey = "execution_id"

	WorkflowNameKey = "workflow"
	ActivityNameKey = "activity"
	SignalNameKey   = "signal"
	QueryNameKey    = "query"
	QueueKey        = "queue"

	ActivityIDKey = "activity_id"

	TaskIDKey             = "task_id"
	TaskLastSequenceIDKey = "task_last_sequence_id"
	TaskSequenceIDKey     = "task_sequence_id"
	LocalSequenceIDKey    = "local_sequence_id"

	EventIDKey          = "event_id"
	EventTypeKey        = "event_type"
	SeqIDKey            = "sequence_id"
	ScheduleEventIDKey  = "schedule_event_id"
	IsReplayingKey      = "is_replaying"
	ExecutedEventsKey   = "executed_events"
	HistorySizeKey      = "history_size"
	PatchIDKey          = "patch_id"
	AttemptKey          = "attempt"
	DurationKey         = "duration_ms"
	NowKey              = "now"
	AtKey               = "at"
	ErrorKey            = "error"
	ReasonKey           = "reason"

	ContinuedExecutionIDKey  = "continued_execution_id"
	WorkflowInstanceStateKey = "workflow_instance_state"
)
