package domain

import "errors"

// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running client.
	ErrAlreadyRunning = errors.New("fluxer: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped client.
	ErrNotRunning = errors.New("fluxer: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("fluxer: shutdown timeout")

	// ErrClosed is returned by Start() after Close().
	ErrClosed = errors.New("fluxer: client closed")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("fluxer: invalid configuration")

	// ErrNotConnected is returned by gateway commands issued while the
	// transport is not open.
	ErrNotConnected = errors.New("fluxer: gateway not connected")

	// ErrInvalidTransition is returned when a session state change is not
	// allowed from the current state.
	ErrInvalidTransition = errors.New("fluxer: invalid session state transition")
)
