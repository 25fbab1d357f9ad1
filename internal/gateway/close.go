package gateway

import "fmt"

// Close codes sent by the client.
const (
	CloseNormal = 1000

	// CloseReconnect keeps the session resumable.
	CloseReconnect = 4000

	closeReasonStop    = "client shutting down"
	closeReasonZombie  = "heartbeat not acknowledged"
	closeReasonRestart = "reconnect requested"
	closeReasonDropped = "connection dropped"
)

// Close codes after which reconnecting cannot succeed.
var fatalCloseCodes = map[int]string{
	4004: "authentication failed",
	4010: "invalid shard",
	4011: "sharding required",
	4012: "invalid api version",
	4013: "invalid intents",
	4014: "disallowed intents",
}

// CloseError reports that the gateway closed the connection.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	if e.Reason == "" {
		if desc, ok := fatalCloseCodes[e.Code]; ok {
			return fmt.Sprintf("gateway closed: %d (%s)", e.Code, desc)
		}
		return fmt.Sprintf("gateway closed: %d", e.Code)
	}
	return fmt.Sprintf("gateway closed: %d %s", e.Code, e.Reason)
}

// CloseCode returns the websocket close code.
func (e *CloseError) CloseCode() int { return e.Code }

// Fatal reports whether the session must not reconnect after this close.
func (e *CloseError) Fatal() bool {
	_, ok := fatalCloseCodes[e.Code]
	return ok
}
