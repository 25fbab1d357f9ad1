package fluxer

import (
	"github.com/why-shiro/J4Fluxer/internal/app"
	"github.com/why-shiro/J4Fluxer/internal/gateway"
)

// State is the lifecycle state of a Client.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// StateHandler receives lifecycle transitions. It is called synchronously
// and should return quickly.
type StateHandler interface {
	OnStateChange(e StateChangeEvent)
}

// StateHandlerFunc adapts a function to StateHandler.
type StateHandlerFunc func(e StateChangeEvent)

// OnStateChange calls f(e).
func (f StateHandlerFunc) OnStateChange(e StateChangeEvent) { f(e) }

// stateEmitter adapts StateHandler to the internal emitter interface.
type stateEmitter struct {
	handler StateHandler
}

func (e *stateEmitter) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

// GatewayState is the connection state of the gateway session.
type GatewayState = gateway.State

// Gateway session states.
const (
	GatewayIdle         = gateway.StateIdle
	GatewayConnecting   = gateway.StateConnecting
	GatewayIdentifying  = gateway.StateIdentifying
	GatewayActive       = gateway.StateActive
	GatewayReconnecting = gateway.StateReconnecting
	GatewayClosed       = gateway.StateClosed
)
