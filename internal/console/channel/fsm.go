package channel

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/fleetconsole/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/fleetconsole/internal/pkg/util/fsm"
	"github.com/autopeer-io/fleetconsole/pkg/log"
)

// Connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateClosed       = "closed"
)

const (
	// EventConnect starts the transport.
	EventConnect = "event_connect"
	// EventUp marks an established (or re-established) connection.
	EventUp = "event_up"
	// EventDown marks a lost connection; the transport keeps retrying.
	EventDown = "event_down"
	// EventFail marks a transport that could not be started.
	EventFail = "event_fail"
	// EventClose disposes the connection for good.
	EventClose = "event_close"
)

type connectionStateMachine struct {
	*fsm.FSM
}

func newConnectionStateMachine() *connectionStateMachine {
	c := &connectionStateMachine{}

	events := fsm.Events{
		{Name: EventConnect, Src: []string{StateDisconnected}, Dst: StateConnecting},
		{Name: EventUp, Src: []string{StateConnecting}, Dst: StateConnected},
		{Name: EventDown, Src: []string{StateConnected}, Dst: StateConnecting},
		{Name: EventFail, Src: []string{StateConnecting}, Dst: StateDisconnected},
		{Name: EventClose, Src: []string{StateDisconnected, StateConnecting, StateConnected}, Dst: StateClosed},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateConnected: fsmutil.WrapEvent(c.actionEnterConnected),
		"leave_" + StateConnected: fsmutil.WrapEvent(c.actionLeaveConnected),
		"enter_state": func(_ context.Context, e *fsm.Event) {
			log.Debug("Channel state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
		},
	}

	c.FSM = fsm.NewFSM(StateDisconnected, events, callbacks)
	return c
}

func (c *connectionStateMachine) actionEnterConnected(_ context.Context, _ *fsm.Event) error {
	metrics.ChannelConnected.Set(1)
	metrics.ChannelConnections.Inc()
	return nil
}

func (c *connectionStateMachine) actionLeaveConnected(_ context.Context, _ *fsm.Event) error {
	metrics.ChannelConnected.Set(0)
	return nil
}

// fire triggers event and reports whether the state actually changed.
// Benign rejections (event not valid in the current state) are logged at debug level.
func (c *connectionStateMachine) fire(ctx context.Context, event string, args ...any) bool {
	err := c.Event(ctx, event, args...)
	if err == nil {
		return true
	}
	if fsmutil.IsRealError(err) {
		log.Error(err, "Channel state transition failed", "event", event)
	} else {
		log.Debug("Channel event ignored", "event", event, "state", c.Current(), "reason", err.Error())
	}
	return false
}
