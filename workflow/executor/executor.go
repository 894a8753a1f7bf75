package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/backend/converter"
	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/contextvalue"
	"github.com/everflowhq/everflow/internal/continueasnew"
	"github.com/everflowhq/everflow/internal/log"
	"github.com/everflowhq/everflow/internal/sync"
	"github.com/everflowhq/everflow/internal/workflowerrors"
	"github.com/everflowhq/everflow/internal/workflowstate"
	"github.com/everflowhq/everflow/internal/workflowtracer"
	"github.com/everflowhq/everflow/registry"
)

// ErrNonDeterministicWorkflow indicates that the commands produced by the
// workflow code no longer line up with the recorded history. This is fatal
// for the instance; the history cannot be replayed by the current code.
var ErrNonDeterministicWorkflow = errors.New("workflow execution is non-deterministic")

type ExecutionResult struct {
	// New state of the workflow instance
	State core.WorkflowInstanceState

	// Events executed during the task execution
	Executed []*history.Event

	// Activities that were scheduled
	ActivityEvents []*history.Event

	// Timers that were scheduled
	TimerEvents []*history.Event

	// Events for other workflow instances
	WorkflowEvents []*history.WorkflowEvent
}

type WorkflowHistoryProvider interface {
	GetWorkflowInstanceHistory(ctx context.Context, instance *core.WorkflowInstance, lastSequenceID *int64) ([]*history.Event, error)
}

type WorkflowExecutor interface {
	ExecuteTask(ctx context.Context, t *backend.WorkflowTask) (*ExecutionResult, error)

	// ExecuteQuery replays the instance history if needed and then runs the
	// named query handler against the resulting workflow state in read-only
	// mode.
	ExecuteQuery(ctx context.Context, name string, args []payload.Payload) (payload.Payload, error)

	Close()
}

type executor struct {
	registry          *registry.Registry
	historyProvider   WorkflowHistoryProvider
	workflow          *workflow
	workflowName      string
	startedAttributes *history.ExecutionStartedAttributes
	workflowState     *workflowstate.WfState
	workflowCtx       sync.Context
	workflowCtxCancel sync.CancelFunc
	cv                converter.Converter
	clock             clock.Clock
	logger            *slog.Logger
	tracer            trace.Tracer
	lastSequenceID    int64

	workflowSpan trace.Span

	suggestContinueAsNewAt int64
	maxHistorySize         int64

	// Set once a completion or continue-as-new command was added, the
	// instance must not finish twice.
	completionAdded bool
}

func NewExecutor(
	logger *slog.Logger,
	tracer trace.Tracer,
	r *registry.Registry,
	cv converter.Converter,
	historyProvider WorkflowHistoryProvider,
	instance *core.WorkflowInstance,
	clock clock.Clock,
	suggestContinueAsNewAt int64,
	maxHistorySize int64,
) (WorkflowExecutor, error) {
	logger = logger.With(
		log.InstanceIDKey, instance.InstanceID,
		log.ExecutionIDKey, instance.ExecutionID,
	)

	s := workflowstate.NewWorkflowState(instance, logger, clock)

	wfCtx := sync.Background()
	wfCtx = contextvalue.WithConverter(wfCtx, cv)
	wfCtx = workflowstate.WithWorkflowState(wfCtx, s)
	wfCtx = workflowtracer.WithWorkflowTracer(wfCtx, workflowtracer.New(tracer))

	wfCtx, cancel := sync.WithCancel(wfCtx)

	return &executor{
		registry:          r,
		historyProvider:   historyProvider,
		workflowState:     s,
		workflowCtx:       wfCtx,
		workflowCtxCancel: cancel,
		cv:                cv,
		clock:             clock,
		logger:            logger,
		tracer:            tracer,

		suggestContinueAsNewAt: suggestContinueAsNewAt,
		maxHistorySize:         maxHistorySize,
	}, nil
}

func (e *executor) ExecuteTask(ctx context.Context, t *backend.WorkflowTask) (*ExecutionResult, error) {
	logger := e.logger.With(
		log.TaskIDKey, t.ID,
	)

	logger.Debug("Executing workflow task", slog.Int64(log.TaskLastSequenceIDKey, t.LastSequenceID))

	if t.WorkflowInstanceState == core.WorkflowInstanceStateFinished {
		// This could happen if signals are delivered after the workflow is finished
		logger.Error("Received workflow task for finished workflow instance, discarding events")

		for _, event := range t.NewEvents {
			logger.Debug("Discarded event:",
				log.EventIDKey, event.ID,
				log.EventTypeKey, event.Type.String(),
				log.ScheduleEventIDKey, event.ScheduleEventID)
		}

		return &ExecutionResult{
			State: core.WorkflowInstanceStateFinished,
		}, nil
	}

	// Patch checks need to see every marker in the history before any workflow
	// code runs, regardless of where in the history the marker occurs.
	e.prescanVersionMarkers(t.NewEvents)

	skipNewEvents, err := e.catchupOnHistory(ctx, t, logger)
	if err != nil {
		return nil, err
	}

	// Always add a WorkflowTaskStarted event before executing new tasks
	toExecute := []*history.Event{e.createTaskStartedEvent()}
	executedEvents := toExecute

	toExecute = append(toExecute, t.NewEvents...)

	// Execute new events received from the backend
	if !skipNewEvents {
		var err error
		executedEvents, err = e.executeNewEvents(toExecute)
		if err != nil {
			logger.Error("Error while executing new events", log.ErrorKey, err)

			// Transition workflow to error state
			e.workflowCompleted(nil, err)
		}
	}

	// Enforce max history size limit
	if e.maxHistorySize > 0 && e.lastSequenceID+int64(len(executedEvents)) >= e.maxHistorySize {
		e.workflowCompleted(nil, fmt.Errorf("workflow history size exceeded %d events", e.maxHistorySize))
	}

	// Process any commands added while executing new events
	state := core.WorkflowInstanceStateActive
	newCommandEvents := make([]*history.Event, 0)
	activityEvents := make([]*history.Event, 0)
	timerEvents := make([]*history.Event, 0)
	workflowEvents := make([]*history.WorkflowEvent, 0)

	for _, c := range e.workflowState.Commands() {
		if c.State() == command.CommandState_Done {
			continue
		}

		r := c.Execute(e.clock)
		if r == nil {
			continue
		}

		if r.State > state {
			state = r.State
		}
		newCommandEvents = append(newCommandEvents, r.Events...)
		activityEvents = append(activityEvents, r.ActivityEvents...)
		timerEvents = append(timerEvents, r.TimerEvents...)
		workflowEvents = append(workflowEvents, r.WorkflowEvents...)
	}

	// Events from commands don't have to be executed again, add them to the executed events.
	executedEvents = append(executedEvents, newCommandEvents...)

	// Set SequenceIDs for all executed events
	for i := range executedEvents {
		executedEvents[i].SequenceID = e.nextSequenceID()
	}

	e.workflowState.SetHistoryLength(e.lastSequenceID)

	logger.Debug("Finished workflow task",
		log.ExecutedEventsKey, len(executedEvents),
		log.TaskLastSequenceIDKey, e.lastSequenceID,
		log.WorkflowInstanceStateKey, state,
	)

	return &ExecutionResult{
		State:          state,
		Executed:       executedEvents,
		ActivityEvents: activityEvents,
		TimerEvents:    timerEvents,
		WorkflowEvents: workflowEvents,
	}, nil
}

func (e *executor) ExecuteQuery(ctx context.Context, name string, args []payload.Payload) (payload.Payload, error) {
	// Bring the workflow state up to date with the recorded history
	h, err := e.historyProvider.GetWorkflowInstanceHistory(ctx, e.workflowState.Instance(), &e.lastSequenceID)
	if err != nil {
		return nil, fmt.Errorf("getting workflow history: %w", err)
	}

	e.prescanVersionMarkers(h)

	if err := e.replayHistory(h); err != nil {
		return nil, fmt.Errorf("replaying history: %w", err)
	}

	qh, err := e.workflowState.QueryHandlerByName(name)
	if err != nil {
		return nil, err
	}

	// Queries must not modify workflow state; producing a command while the
	// state is read-only panics.
	e.workflowState.SetReadOnly(true)
	defer e.workflowState.SetReadOnly(false)

	return runQueryHandler(qh, args)
}

func runQueryHandler(qh workflowstate.QueryHandler, args []payload.Payload) (result payload.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok && errors.Is(rerr, workflowstate.ErrReadOnly) {
				err = fmt.Errorf("query handler attempted to modify workflow state: %w", rerr)
				return
			}

			err = workflowerrors.NewPanicError(fmt.Sprintf("panic in query handler: %v", r))
		}
	}()

	return qh(args)
}

func (e *executor) catchupOnHistory(ctx context.Context, t *backend.WorkflowTask, logger *slog.Logger) (bool, error) {
	if t.LastSequenceID < e.lastSequenceID {
		return false, fmt.Errorf("task has older history than current state, cannot execute")
	}

	if t.LastSequenceID > e.lastSequenceID {
		logger.Debug("Task has newer history than current state, fetching and replaying history",
			log.TaskSequenceIDKey, t.LastSequenceID,
			log.LocalSequenceIDKey, e.lastSequenceID)

		h, err := e.historyProvider.GetWorkflowInstanceHistory(ctx, t.WorkflowInstance, &e.lastSequenceID)
		if err != nil {
			return false, fmt.Errorf("getting workflow history: %w", err)
		}

		e.prescanVersionMarkers(h)

		if err := e.replayHistory(h); err != nil {
			logger.Error("Error while replaying history", log.ErrorKey, err)

			// Fail workflow with an error. Skip executing new events, but still go through the commands
			e.workflowCompleted(nil, err)

			// With an error occurred during replay, we need to ensure new events don't get duplicate sequence ids
			e.lastSequenceID = t.LastSequenceID

			return true, nil
		} else if t.LastSequenceID != e.lastSequenceID {
			logger.Error("After replaying history, task still has newer history than current state",
				log.TaskSequenceIDKey, t.LastSequenceID,
				log.LocalSequenceIDKey, e.lastSequenceID)

			return false, errors.New("even after fetching and replaying history executor state does not match task")
		}
	}

	return false, nil
}

// prescanVersionMarkers records every version marker found in the given events
// before they are executed, so a patch check sees its marker even when the
// marker occurs later in the history than the check.
func (e *executor) prescanVersionMarkers(events []*history.Event) {
	for _, event := range events {
		if event.Type == history.EventType_VersionMarkerRecorded {
			a := event.Attributes.(*history.VersionMarkerRecordedAttributes)
			e.workflowState.RecordVersionMarker(a.PatchID, a.Deprecated)
		}
	}
}

func (e *executor) replayHistory(h []*history.Event) error {
	e.workflowState.SetReplaying(true)
	for _, event := range h {
		if event.SequenceID < e.lastSequenceID {
			e.logger.Error("history has older events than current state")
			return errors.New("history has older events than current state")
		}

		// Note: lastSequenceID is updated below after successful event execution.
		// For consistent history length reporting (e.g., for workflow code), we intentionally set historyLength here before executing the event.
		e.workflowState.SetHistoryLength(e.lastSequenceID + 1)

		if err := e.executeEvent(event); err != nil {
			return err
		}
		e.lastSequenceID = event.SequenceID
	}

	return nil
}

func (e *executor) executeNewEvents(newEvents []*history.Event) ([]*history.Event, error) {
	e.workflowState.SetReplaying(false)

	for i, event := range newEvents {
		// Update history length BEFORE executing the event to reflect the event about to be added
		e.workflowState.SetHistoryLength(e.lastSequenceID + int64(i) + 1)

		if err := e.executeEvent(event); err != nil {
			return newEvents[:i], err
		}
	}

	if e.workflow.Completed() {
		if e.workflowSpan != nil {
			defer e.workflowSpan.End()
		}

		if e.workflowState.HasPendingFutures() {
			return newEvents, errors.New("workflow completed, but there are still pending futures")
		}

		if canErr, ok := e.workflow.Error().(*continueasnew.Error); ok {
			e.workflowRestarted(e.workflow.Result(), canErr)
		} else {
			e.workflowCompleted(e.workflow.Result(), e.workflow.Error())
		}
	}

	return newEvents, nil
}

func (e *executor) Close() {
	if e.workflow != nil {
		e.logger.Debug("Stopping workflow executor")

		// End workflow if running to prevent leaking goroutines
		e.workflow.Close()
	}
}

func (e *executor) executeEvent(event *history.Event) error {
	fields := []any{
		log.EventIDKey, event.ID,
		log.SeqIDKey, event.SequenceID,
		log.EventTypeKey, event.Type,
		log.ScheduleEventIDKey, event.ScheduleEventID,
		log.IsReplayingKey, e.workflowState.Replaying(),
	}

	attributesFields := getAttributesLoggingFields(event)
	if attributesFields != nil {
		fields = append(fields, attributesFields...)
	}

	e.logger.Debug("Executing event", fields...)

	var err error

	switch event.Type {
	case history.EventType_WorkflowExecutionStarted:
		err = e.handleWorkflowExecutionStarted(event, event.Attributes.(*history.ExecutionStartedAttributes))

	case history.EventType_WorkflowExecutionFinished:
	// Ignore

	case history.EventType_WorkflowExecutionContinuedAsNew:
	// Ignore

	case history.EventType_WorkflowExecutionCanceled:
		err = e.handleWorkflowCanceled()

	case history.EventType_WorkflowTaskStarted:
		err = e.handleWorkflowTaskStarted(event, event.Attributes.(*history.WorkflowTaskStartedAttributes))

	case history.EventType_ActivityScheduled:
		err = e.handleActivityScheduled(event, event.Attributes.(*history.ActivityScheduledAttributes))

	case history.EventType_ActivityFailed:
		err = e.handleActivityFailed(event, event.Attributes.(*history.ActivityFailedAttributes))

	case history.EventType_ActivityCompleted:
		err = e.handleActivityCompleted(event, event.Attributes.(*history.ActivityCompletedAttributes))

	case history.EventType_TimerScheduled:
		err = e.handleTimerScheduled(event, event.Attributes.(*history.TimerScheduledAttributes))

	case history.EventType_TimerFired:
		err = e.handleTimerFired(event, event.Attributes.(*history.TimerFiredAttributes))

	case history.EventType_TimerCanceled:
		err = e.handleTimerCanceled(event, event.Attributes.(*history.TimerCanceledAttributes))

	case history.EventType_SignalReceived:
		err = e.handleSignalReceived(event, event.Attributes.(*history.SignalReceivedAttributes))

	case history.EventType_SignalWorkflow:
		err = e.handleSignalWorkflow(event, event.Attributes.(*history.SignalWorkflowAttributes))

	case history.EventType_SideEffectResult:
		err = e.handleSideEffectResult(event, event.Attributes.(*history.SideEffectResultAttributes))

	case history.EventType_VersionMarkerRecorded:
		err = e.handleVersionMarker(event, event.Attributes.(*history.VersionMarkerRecordedAttributes))

	case history.EventType_SubWorkflowScheduled:
		err = e.handleSubWorkflowScheduled(event, event.Attributes.(*history.SubWorkflowScheduledAttributes))
	case history.EventType_SubWorkflowCancellationRequested:
		err = e.handleSubWorkflowCancellationRequest(event, event.Attributes.(*history.SubWorkflowCancellationRequestedAttributes))
	case history.EventType_SubWorkflowFailed:
		err = e.handleSubWorkflowFailed(event, event.Attributes.(*history.SubWorkflowFailedAttributes))
	case history.EventType_SubWorkflowCompleted:
		err = e.handleSubWorkflowCompleted(event, event.Attributes.(*history.SubWorkflowCompletedAttributes))

	default:
		return fmt.Errorf("unknown event type: %v", event.Type)
	}

	return err
}

func (e *executor) handleWorkflowExecutionStarted(event *history.Event, a *history.ExecutionStartedAttributes) error {
	e.workflowName = a.Name
	e.startedAttributes = a

	wfFn, err := e.registry.GetWorkflow(a.Name)
	if err != nil {
		return fmt.Errorf("workflow %s not found", a.Name)
	}

	queue := a.Queue
	if queue == "" {
		queue = core.QueueDefault
	}
	e.workflowCtx = contextvalue.WithQueue(e.workflowCtx, queue)

	_, span := e.tracer.Start(context.Background(),
		fmt.Sprintf("Workflow: %s", e.workflowName),
		trace.WithTimestamp(event.Timestamp),
		trace.WithAttributes(
			attribute.String(log.WorkflowNameKey, a.Name),
			attribute.String(log.InstanceIDKey, e.workflowState.Instance().InstanceID),
		))

	// Set in context for workflow execution
	e.workflowCtx = workflowtracer.ContextWithSpan(e.workflowCtx, span)
	e.workflowSpan = span

	e.workflow = newWorkflow(reflect.ValueOf(wfFn))
	return e.workflow.Execute(e.workflowCtx, a.Inputs)
}

func (e *executor) handleWorkflowCanceled() error {
	e.workflowCtxCancel()

	return e.workflow.Continue()
}

func (e *executor) handleWorkflowTaskStarted(event *history.Event, a *history.WorkflowTaskStartedAttributes) error {
	e.workflowState.SetTime(event.Timestamp)
	e.workflowState.SetSuggestContinueAsNew(a.SuggestContinueAsNew)

	return nil
}

func (e *executor) handleActivityScheduled(event *history.Event, a *history.ActivityScheduledAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution scheduled an activity, but none is scheduled now", ErrNonDeterministicWorkflow)
	}

	sac, ok := c.(*command.ScheduleActivityCommand)
	if !ok {
		return fmt.Errorf("%w: previous execution scheduled an activity, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	// Ensure the same activity was scheduled again
	if a.Name != sac.Name {
		return fmt.Errorf("%w: previous execution scheduled different type of activity: %s, %s", ErrNonDeterministicWorkflow, a.Name, sac.Name)
	}

	sac.Commit()

	return nil
}

func (e *executor) handleActivityCompleted(event *history.Event, a *history.ActivityCompletedAttributes) error {
	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		return fmt.Errorf("%w: could not find pending future for activity completion", ErrNonDeterministicWorkflow)
	}

	if err := f(a.Result, nil); err != nil {
		return fmt.Errorf("setting activity completed result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: no command for completed activity", ErrNonDeterministicWorkflow)
	}

	if _, ok := c.(*command.ScheduleActivityCommand); !ok {
		return fmt.Errorf("%w: previous execution scheduled an activity, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	c.Done()

	return e.workflow.Continue()
}

func (e *executor) handleActivityFailed(event *history.Event, a *history.ActivityFailedAttributes) error {
	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		return fmt.Errorf("%w: no pending future for activity failed event", ErrNonDeterministicWorkflow)
	}

	actErr := workflowerrors.ToError(a.Error)
	if err := f(nil, actErr); err != nil {
		return fmt.Errorf("setting activity failed result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: no command for failed activity", ErrNonDeterministicWorkflow)
	}

	if _, ok := c.(*command.ScheduleActivityCommand); !ok {
		return fmt.Errorf("%w: previous execution scheduled an activity, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	c.Done()

	return e.workflow.Continue()
}

func (e *executor) handleTimerScheduled(event *history.Event, a *history.TimerScheduledAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution scheduled a timer, but none is scheduled now", ErrNonDeterministicWorkflow)
	}

	if _, ok := c.(*command.ScheduleTimerCommand); !ok {
		return fmt.Errorf("%w: previous execution scheduled a timer, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	c.Commit()

	return nil
}

func (e *executor) handleTimerFired(event *history.Event, a *history.TimerFiredAttributes) error {
	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		// Timer already canceled, ignore
		return nil
	}

	if err := f(nil, nil); err != nil {
		return fmt.Errorf("setting timer fired result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: no command found for timer fired event", ErrNonDeterministicWorkflow)
	}

	if _, ok := c.(*command.ScheduleTimerCommand); !ok {
		return fmt.Errorf("%w: schedule timer command not found, instead: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	c.Done()

	return e.workflow.Continue()
}

func (e *executor) handleTimerCanceled(event *history.Event, a *history.TimerCanceledAttributes) error {
	// The cancel request replayed by the workflow code is reconciled by this
	// recorded event, drop it so it is not committed again.
	for _, cmd := range e.workflowState.Commands() {
		if ctc, ok := cmd.(*command.CancelTimerCommand); ok &&
			ctc.TimerScheduleEventID == event.ScheduleEventID &&
			ctc.State() == command.CommandState_Pending {
			e.workflowState.RemoveCommand(cmd)
			break
		}
	}

	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution canceled a timer, but none is scheduled now", ErrNonDeterministicWorkflow)
	}

	stc, ok := c.(*command.ScheduleTimerCommand)
	if !ok {
		return fmt.Errorf("%w: previous execution canceled a timer, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	stc.HandleCancel()

	// Cancel the pending future
	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		// Timer already canceled, ignore
		return nil
	}

	if err := f(nil, sync.Canceled); err != nil {
		return fmt.Errorf("setting timer canceled result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	return e.workflow.Continue()
}

func (e *executor) handleSubWorkflowScheduled(event *history.Event, a *history.SubWorkflowScheduledAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution scheduled a sub-workflow, but none is scheduled now", ErrNonDeterministicWorkflow)
	}

	sswc, ok := c.(*command.ScheduleSubWorkflowCommand)
	if !ok {
		return fmt.Errorf("%w: previous execution scheduled a sub-workflow, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	if a.Name != sswc.Name {
		return fmt.Errorf("%w: previous execution scheduled different type of sub-workflow: %s, %s", ErrNonDeterministicWorkflow, a.Name, sswc.Name)
	}

	// If we are replaying this event, the command will have generated a new instance ID. Ensure we use the same one as
	// when the command was originally committed.
	sswc.Instance = a.SubWorkflowInstance

	c.Commit()

	return nil
}

func (e *executor) handleSubWorkflowCancellationRequest(event *history.Event, a *history.SubWorkflowCancellationRequestedAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution canceled a sub-workflow, but none is scheduled now", ErrNonDeterministicWorkflow)
	}

	sswc, ok := c.(*command.ScheduleSubWorkflowCommand)
	if !ok {
		return fmt.Errorf("%w: previous execution canceled a sub-workflow, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	sswc.HandleCancel()

	return e.workflow.Continue()
}

func (e *executor) handleSubWorkflowFailed(event *history.Event, a *history.SubWorkflowFailedAttributes) error {
	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		return fmt.Errorf("%w: no pending future found for sub-workflow failed event", ErrNonDeterministicWorkflow)
	}

	wfErr := workflowerrors.ToError(a.Error)

	if err := f(nil, wfErr); err != nil {
		return fmt.Errorf("setting sub-workflow failed result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: no command for failed sub-workflow", ErrNonDeterministicWorkflow)
	}

	if _, ok := c.(*command.ScheduleSubWorkflowCommand); !ok {
		return fmt.Errorf("%w: previous execution scheduled a sub-workflow, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	c.Done()

	return e.workflow.Continue()
}

func (e *executor) handleSubWorkflowCompleted(event *history.Event, a *history.SubWorkflowCompletedAttributes) error {
	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		return fmt.Errorf("%w: no pending future found for sub-workflow completed event", ErrNonDeterministicWorkflow)
	}

	if err := f(a.Result, nil); err != nil {
		return fmt.Errorf("setting sub-workflow completed result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: no command for completed sub-workflow", ErrNonDeterministicWorkflow)
	}

	if _, ok := c.(*command.ScheduleSubWorkflowCommand); !ok {
		return fmt.Errorf("%w: previous execution scheduled a sub-workflow, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	c.Done()

	return e.workflow.Continue()
}

func (e *executor) handleSignalReceived(event *history.Event, a *history.SignalReceivedAttributes) error {
	// Send signal to workflow channel
	workflowstate.ReceiveSignal(e.workflowState, a.Name, a.Arg)

	return e.workflow.Continue()
}

func (e *executor) handleSignalWorkflow(event *history.Event, a *history.SignalWorkflowAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution signaled a workflow, but no signal is requested now", ErrNonDeterministicWorkflow)
	}

	swc, ok := c.(*command.SignalWorkflowCommand)
	if !ok {
		return fmt.Errorf("%w: previous execution signaled a workflow, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	if a.Name != swc.Name {
		return fmt.Errorf("%w: previous execution sent a different signal: %s, %s", ErrNonDeterministicWorkflow, a.Name, swc.Name)
	}

	swc.Done()

	return nil
}

func (e *executor) handleSideEffectResult(event *history.Event, a *history.SideEffectResultAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: previous execution recorded a side effect, but none is recorded now", ErrNonDeterministicWorkflow)
	}

	sec, ok := c.(*command.SideEffectCommand)
	if !ok {
		return fmt.Errorf("%w: previous execution recorded a side effect, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	sec.Done()

	f, ok := e.workflowState.FutureByScheduleEventID(event.ScheduleEventID)
	if !ok {
		return fmt.Errorf("%w: no pending future found for side effect result event", ErrNonDeterministicWorkflow)
	}

	if err := f(a.Result, nil); err != nil {
		return fmt.Errorf("setting side effect result: %w", err)
	}

	e.workflowState.RemoveFuture(event.ScheduleEventID)

	return e.workflow.Continue()
}

func (e *executor) handleVersionMarker(event *history.Event, a *history.VersionMarkerRecordedAttributes) error {
	c := e.workflowState.CommandByScheduleEventID(event.ScheduleEventID)
	if c == nil {
		return fmt.Errorf("%w: history contains version marker %q, but the patch check did not run", ErrNonDeterministicWorkflow, a.PatchID)
	}

	vmc, ok := c.(*command.RecordVersionMarkerCommand)
	if !ok {
		return fmt.Errorf("%w: history contains a version marker, not: %v", ErrNonDeterministicWorkflow, c.Type())
	}

	if a.PatchID != vmc.PatchID {
		return fmt.Errorf("%w: history contains version marker %q, but the code checked %q", ErrNonDeterministicWorkflow, a.PatchID, vmc.PatchID)
	}

	vmc.Done()

	return nil
}

func (e *executor) workflowCompleted(result payload.Payload, wfErr error) {
	if e.completionAdded {
		return
	}
	e.completionAdded = true

	eventID := e.workflowState.GetNextScheduleEventID()

	cmd := command.NewCompleteWorkflowCommand(eventID, e.workflowState.Instance(), result, workflowerrors.FromError(wfErr))
	e.workflowState.AddCommand(cmd)
}

func (e *executor) workflowRestarted(result payload.Payload, continueAsNew *continueasnew.Error) {
	e.completionAdded = true

	eventID := e.workflowState.GetNextScheduleEventID()

	// Carry over the queue and, unless overridden, the metadata of the current
	// execution.
	var queue core.Queue
	md := continueAsNew.Metadata
	if e.startedAttributes != nil {
		queue = e.startedAttributes.Queue
		if md == nil {
			md = e.startedAttributes.Metadata
		}
	}

	cmd := command.NewContinueAsNewCommand(
		eventID, e.workflowState.Instance(), result, queue, e.workflowName, md, continueAsNew.Inputs)
	e.workflowState.AddCommand(cmd)

	if e.workflowSpan != nil {
		e.workflowSpan.SetAttributes(
			attribute.String(log.ContinuedExecutionIDKey, cmd.ContinuedExecution.ExecutionID),
		)
	}
}

func (e *executor) nextSequenceID() int64 {
	e.lastSequenceID++
	return e.lastSequenceID
}

func (e *executor) createTaskStartedEvent() *history.Event {
	suggest := e.suggestContinueAsNewAt > 0 && e.lastSequenceID >= e.suggestContinueAsNewAt

	attrs := &history.WorkflowTaskStartedAttributes{
		SuggestContinueAsNew: suggest,
	}
	if suggest {
		attrs.HistorySizeSuggestion = e.lastSequenceID
	}

	return history.NewPendingEvent(e.clock.Now(), history.EventType_WorkflowTaskStarted, attrs)
}

func getAttributesLoggingFields(event *history.Event) []any {
	switch event.Type {
	case history.EventType_WorkflowExecutionStarted:
		attributes := event.Attributes.(*history.ExecutionStartedAttributes)
		return []any{
			log.WorkflowNameKey, attributes.Name,
		}
	case history.EventType_SubWorkflowScheduled:
		attributes := event.Attributes.(*history.SubWorkflowScheduledAttributes)
		return []any{
			log.WorkflowNameKey, attributes.Name,
		}
	case history.EventType_SignalReceived:
		attributes := event.Attributes.(*history.SignalReceivedAttributes)
		return []any{
			log.SignalNameKey, attributes.Name,
		}
	case history.EventType_ActivityScheduled:
		attributes := event.Attributes.(*history.ActivityScheduledAttributes)
		return []any{
			log.ActivityNameKey, attributes.Name,
		}
	case history.EventType_VersionMarkerRecorded:
		attributes := event.Attributes.(*history.VersionMarkerRecordedAttributes)
		return []any{
			log.PatchIDKey, attributes.PatchID,
		}
	default:
		return nil
	}
}
