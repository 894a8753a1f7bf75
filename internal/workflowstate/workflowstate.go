package workflowstate

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend/converter"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
	"github.com/everflowhq/everflow/internal/command"
	"github.com/everflowhq/everflow/internal/sync"
)

type key int

var workflowCtxKey key

// ErrReadOnly is panicked when workflow code attempts to produce commands
// while it is executed in read-only mode, for example from a query handler.
var ErrReadOnly = errors.New("attempted to modify workflow state in read-only mode")

// DecodingSettable sets the result of a pending future, decoding the given
// payload into the future's type first.
type DecodingSettable func(v payload.Payload, err error) error

// AsDecodingSettable adapts a typed settable future to a payload-level
// settable that can be tracked by schedule event ID.
func AsDecodingSettable[T any](cv converter.Converter, f sync.SettableFuture[T]) DecodingSettable {
	return func(v payload.Payload, err error) error {
		if err != nil {
			var zero T
			f.Set(zero, err)
			return nil
		}

		var t T
		if v != nil {
			if err := cv.From(v, &t); err != nil {
				return err
			}
		}

		f.Set(t, nil)
		return nil
	}
}

// QueryHandler answers a query against the current workflow state at the
// payload level.
type QueryHandler func(args []payload.Payload) (payload.Payload, error)

// WfState is the private state of a single workflow execution. It correlates
// pending futures with history events and collects the commands produced by
// the workflow code during a task.
type WfState struct {
	instance        *core.WorkflowInstance
	scheduleEventID int64
	commands        []command.Command
	pendingFutures  map[int64]DecodingSettable
	signalChannels  map[string]*signalChannel
	pendingSignals  map[string][]payload.Payload
	queryHandlers   map[string]QueryHandler

	// versionMarkers are the patch markers found in the recorded history,
	// keyed by patch ID. true indicates the marker is deprecated.
	versionMarkers map[string]bool

	// patchDecisions are the patch outcomes for this execution. Once made,
	// a decision never changes for the lifetime of the instance.
	patchDecisions map[string]bool

	replaying bool
	readOnly  bool

	suggestContinueAsNew bool
	historyLength        int64

	clock  clock.Clock
	time   time.Time
	rand   *rand.Rand
	logger *slog.Logger
}

func NewWorkflowState(instance *core.WorkflowInstance, logger *slog.Logger, clock clock.Clock) *WfState {
	state := &WfState{
		instance:        instance,
		commands:        []command.Command{},
		scheduleEventID: 1,
		pendingFutures:  map[int64]DecodingSettable{},
		signalChannels:  make(map[string]*signalChannel),
		pendingSignals:  map[string][]payload.Payload{},
		queryHandlers:   map[string]QueryHandler{},
		versionMarkers:  map[string]bool{},
		patchDecisions:  map[string]bool{},
		clock:           clock,
	}

	state.logger = NewReplayLogger(state, logger)

	return state
}

func WorkflowState(ctx sync.Context) *WfState {
	return ctx.Value(workflowCtxKey).(*WfState)
}

func WithWorkflowState(ctx sync.Context, wfState *WfState) sync.Context {
	return sync.WithValue(ctx, workflowCtxKey, wfState)
}

func (wf *WfState) GetNextScheduleEventID() int64 {
	scheduleEventID := wf.scheduleEventID
	wf.scheduleEventID++
	return scheduleEventID
}

func (wf *WfState) TrackFuture(scheduleEventID int64, f DecodingSettable) {
	wf.pendingFutures[scheduleEventID] = f
}

func (wf *WfState) FutureByScheduleEventID(scheduleEventID int64) (DecodingSettable, bool) {
	f, ok := wf.pendingFutures[scheduleEventID]
	return f, ok
}

func (wf *WfState) RemoveFuture(scheduleEventID int64) {
	delete(wf.pendingFutures, scheduleEventID)
}

func (wf *WfState) HasPendingFutures() bool {
	return len(wf.pendingFutures) > 0
}

func (wf *WfState) Commands() []command.Command {
	return wf.commands
}

func (wf *WfState) AddCommand(cmd command.Command) {
	if wf.readOnly {
		panic(ErrReadOnly)
	}

	wf.commands = append(wf.commands, cmd)
}

func (wf *WfState) CommandByScheduleEventID(scheduleEventID int64) command.Command {
	for _, c := range wf.commands {
		if c.ID() == scheduleEventID {
			return c
		}
	}

	return nil
}

func (wf *WfState) RemoveCommandByScheduleEventID(scheduleEventID int64) command.Command {
	for i, c := range wf.commands {
		if c.ID() == scheduleEventID {
			wf.commands = append(wf.commands[:i], wf.commands[i+1:]...)
			return c
		}
	}

	return nil
}

func (wf *WfState) RemoveCommand(cmd command.Command) {
	for i, c := range wf.commands {
		if c == cmd {
			wf.commands = append(wf.commands[:i], wf.commands[i+1:]...)
			return
		}
	}
}

func (wf *WfState) ClearCommands() {
	wf.commands = []command.Command{}
}

func (wf *WfState) SetReplaying(replaying bool) {
	wf.replaying = replaying
}

func (wf *WfState) Replaying() bool {
	return wf.replaying
}

// SetReadOnly toggles read-only mode. In read-only mode adding commands
// panics, which keeps query handlers free of side effects.
func (wf *WfState) SetReadOnly(readOnly bool) {
	wf.readOnly = readOnly
}

func (wf *WfState) ReadOnly() bool {
	return wf.readOnly
}

func (wf *WfState) SetTime(t time.Time) {
	wf.time = t
}

// Time returns the deterministic workflow time, the timestamp of the last
// handled WorkflowTaskStarted event.
func (wf *WfState) Time() time.Time {
	return wf.time
}

func (wf *WfState) SetHistoryLength(length int64) {
	wf.historyLength = length
}

// HistoryLength is the number of events in the instance history at the
// current point of execution.
func (wf *WfState) HistoryLength() int64 {
	return wf.historyLength
}

func (wf *WfState) SetSuggestContinueAsNew(suggest bool) {
	wf.suggestContinueAsNew = suggest
}

func (wf *WfState) SuggestContinueAsNew() bool {
	return wf.suggestContinueAsNew
}

func (wf *WfState) Instance() *core.WorkflowInstance {
	return wf.instance
}

func (wf *WfState) Logger() *slog.Logger {
	return wf.logger
}
