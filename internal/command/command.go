package command

import (
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/everflowhq/everflow/backend/history"
	"github.com/everflowhq/everflow/core"
)

// Command is the workflow side of the event log contract. Workflow code does
// not append events directly, it produces commands. Executing a committed
// command yields the history events to append and the messages to deliver.
//
// During replay, commands produced by the workflow code are matched against
// the recorded events instead of being executed again.
type Command interface {
	ID() int64

	Type() string

	State() CommandState

	// Execute transitions the command and returns the events it produces in
	// its current state. Returns nil if the command has nothing to commit.
	Execute(clock clock.Clock) *CommandResult

	// Commit marks the command as committed without producing its events
	// again. Used during replay when the command was matched against its
	// recorded event.
	Commit()

	// Done marks the command as done. Its result has been applied to the
	// workflow state.
	Done()
}

type CommandResult struct {
	// State is set if executing this command ends the workflow execution
	State core.WorkflowInstanceState

	// Events to append to the history of the executing instance
	Events []*history.Event

	// ActivityEvents are activity tasks to hand to the dispatcher
	ActivityEvents []*history.Event

	// TimerEvents are future-visible events to deliver back to this instance
	TimerEvents []*history.Event

	// WorkflowEvents are events to deliver to other workflow instances
	WorkflowEvents []*history.WorkflowEvent
}

type command struct {
	state CommandState

	id   int64
	name string
}

func (c *command) ID() int64 {
	return c.id
}

func (c *command) Type() string {
	return c.name
}

func (c *command) State() CommandState {
	return c.state
}

func (c *command) Commit() {
	switch c.state {
	case CommandState_Pending, CommandState_Committed:
		c.state = CommandState_Committed
	default:
		c.invalidStateTransition(CommandState_Committed)
	}
}

func (c *command) Done() {
	switch c.state {
	case CommandState_Pending, CommandState_Committed:
		c.state = CommandState_Done
	default:
		c.invalidStateTransition(CommandState_Done)
	}
}

func (c *command) invalidStateTransition(to CommandState) {
	panic(fmt.Sprintf("invalid state transition for command %s: %s -> %s", c.name, c.state, to))
}
