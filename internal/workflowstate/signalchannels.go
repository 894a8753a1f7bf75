package workflowstate

import (
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/internal/contextvalue"
	"github.com/everflowhq/everflow/internal/sync"
)

type signalChannel struct {
	receive func(payload.Payload)
	channel interface{}
}

// ReceiveSignal delivers a received signal to the matching signal channel. If
// workflow code has not asked for the channel yet, the signal is buffered
// until it does.
func ReceiveSignal(wf *WfState, name string, arg payload.Payload) {
	sc, ok := wf.signalChannels[name]
	if ok {
		sc.receive(arg)
		return
	}

	wf.pendingSignals[name] = append(wf.pendingSignals[name], arg)
}

// GetSignalChannel returns the typed channel for the given signal name,
// creating it if necessary. Signals received before the channel was created
// are delivered in their original order.
func GetSignalChannel[T any](ctx sync.Context, wf *WfState, name string) sync.Channel[T] {
	// Check for an existing channel
	if sc, ok := wf.signalChannels[name]; ok {
		return sc.channel.(sync.Channel[T])
	}

	c := sync.NewBufferedChannel[T](10_000)

	cv := contextvalue.Converter(ctx)

	wf.signalChannels[name] = &signalChannel{
		receive: func(input payload.Payload) {
			var t T
			if err := cv.From(input, &t); err != nil {
				panic(err)
			}

			// Channel is buffered, so this does not block or yield
			c.SendNonblocking(t)
		},
		channel: c,
	}

	// Deliver any signals received before the channel existed
	if pendingSignals, ok := wf.pendingSignals[name]; ok {
		for _, p := range pendingSignals {
			var t T
			if err := cv.From(p, &t); err != nil {
				panic(err)
			}

			c.SendNonblocking(t)
		}

		delete(wf.pendingSignals, name)
	}

	return c
}
