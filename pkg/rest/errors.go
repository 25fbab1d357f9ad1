package rest

import (
	"errors"
	"fmt"
)

// ErrSchedulerStopped is returned by delayed actions whose scheduler was
// stopped before they fired.
var ErrSchedulerStopped = errors.New("fluxer: action scheduler stopped")

// ErrNoRequester is returned when an action has no requester to run on.
var ErrNoRequester = errors.New("fluxer: action has no requester")

// TransportError reports that no HTTP response was obtained.
type TransportError struct {
	Route string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fluxer: %s: transport: %v", e.Route, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response. Body holds the raw response body.
type StatusError struct {
	Route      string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("fluxer: %s: status %d", e.Route, e.StatusCode)
	}
	return fmt.Sprintf("fluxer: %s: status %d: %s", e.Route, e.StatusCode, e.Body)
}

// DecodeError reports a 2xx response whose body could not be parsed.
type DecodeError struct {
	Route string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fluxer: %s: decode response: %v", e.Route, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SerializeError reports a request body that failed validation or encoding.
type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return fmt.Sprintf("fluxer: serialize body: %v", e.Err)
}

func (e *SerializeError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
