package fluxer

import (
	"github.com/why-shiro/J4Fluxer/internal/domain"
	"github.com/why-shiro/J4Fluxer/internal/gateway"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// Lifecycle and configuration errors, checkable with errors.Is.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrClosed          = domain.ErrClosed
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrNotConnected    = domain.ErrNotConnected
)

// Errors returned by actions and the gateway, checkable with errors.As.
type (
	TransportError = rest.TransportError
	StatusError    = rest.StatusError
	DecodeError    = rest.DecodeError
	SerializeError = rest.SerializeError
	CloseError     = gateway.CloseError
)
