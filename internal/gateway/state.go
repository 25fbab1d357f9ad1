package gateway

// State is the connection state of a Session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateIdentifying
	StateActive
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateIdentifying:
		return "Identifying"
	case StateActive:
		return "Active"
	case StateReconnecting:
		return "Reconnecting"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// StateClosed is terminal.
var sessionTransitions = map[State][]State{
	StateIdle:         {StateConnecting, StateClosed},
	StateConnecting:   {StateIdentifying, StateReconnecting, StateClosed},
	StateIdentifying:  {StateActive, StateReconnecting, StateClosed},
	StateActive:       {StateReconnecting, StateClosed},
	StateReconnecting: {StateConnecting, StateClosed},
}
