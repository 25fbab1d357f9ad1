package ports

import "context"

// Conn is one open gateway transport.
//
// ReadMessage is only ever called from the session's read goroutine.
// WriteMessage may be called concurrently (read loop, heartbeat goroutine,
// presence updates); implementations must serialise writes.
type Conn interface {
	// ReadMessage blocks until the next complete text message arrives.
	// It returns a *gateway.CloseError-compatible error (see CloseCoder)
	// when the peer closes the connection.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one complete text message.
	WriteMessage(data []byte) error

	// Close sends a close frame with the given code and reason, then
	// releases the underlying connection. Calling Close twice is safe.
	Close(code int, reason string) error
}

// CloseCoder is implemented by errors that carry a transport close code.
type CloseCoder interface {
	CloseCode() int
}

// Dialer opens gateway transports.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}
