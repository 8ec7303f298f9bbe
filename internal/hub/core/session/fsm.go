package session

import (
	"context"

	"github.com/looplab/fsm"
)

// Session lifecycle states and the events that move between them.
// A vehicle with no registry entry is implicitly "off"; the machine exists
// only while a session does, so "off" is entered exactly once, on the way
// out.
const (
	stateOff = "off"
	stateOn  = "on"

	// eventIgnitionOn creates the session (off -> on).
	eventIgnitionOn = "ignition-on"

	// eventIgnitionOff ends the session on an explicit OFF report.
	eventIgnitionOff = "ignition-off"

	// eventExpire ends the session when the heartbeat window elapses.
	eventExpire = "expire"
)

// newSessionMachine builds the per-session state machine. Side effects
// (event emission, timer arm/disarm, registry removal) live in the enter
// callbacks so every path out of "on" releases the timer exactly once.
func newSessionMachine(r *Registry) *fsm.FSM {
	return fsm.NewFSM(
		stateOff,
		fsm.Events{
			{Name: eventIgnitionOn, Src: []string{stateOff}, Dst: stateOn},
			{Name: eventIgnitionOff, Src: []string{stateOn}, Dst: stateOff},
			{Name: eventExpire, Src: []string{stateOn}, Dst: stateOff},
		},
		fsm.Callbacks{
			"enter_" + stateOn:  wrapEvent(r.onSessionStarted),
			"enter_" + stateOff: wrapEvent(r.onSessionEnded),
		},
	)
}

// wrapEvent adapts an error-returning callback to the fsm.Callback shape,
// propagating the error through the event.
func wrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}
