package command

type CancelableCommand interface {
	Command

	// Cancel cancels the command
	Cancel()

	// HandleCancel handles a cancel event during replay
	HandleCancel()
}

type cancelableCommand struct {
	command

	whenDone func()
}

// WhenDone registers a callback which fires when the command reaches the Done
// state.
func (c *cancelableCommand) WhenDone(f func()) {
	c.whenDone = f
}

func (c *cancelableCommand) Cancel() {
	switch c.state {
	case CommandState_Pending, CommandState_Canceled:
		c.state = CommandState_Canceled
	case CommandState_Committed:
		c.state = CommandState_CancelPending
	default:
		c.invalidStateTransition(CommandState_Canceled)
	}
}

func (c *cancelableCommand) HandleCancel() {
	switch c.state {
	// Committed is allowed here: during replay the cancel request may be
	// recorded as a separate command, leaving this command committed when its
	// canceled event is reconciled.
	case CommandState_Committed, CommandState_CancelPending:
		c.state = CommandState_Canceled
	default:
		c.invalidStateTransition(CommandState_Canceled)
	}
}

func (c *cancelableCommand) Done() {
	switch c.state {
	case CommandState_Committed, CommandState_Canceled:
		c.state = CommandState_Done

		if c.whenDone != nil {
			c.whenDone()
		}

	default:
		c.invalidStateTransition(CommandState_Done)
	}
}
