package fluxer

import (
	"github.com/why-shiro/J4Fluxer/internal/ports"
	"github.com/why-shiro/J4Fluxer/pkg/log"
)

// Logger is the structured logger used by the client.
type Logger = log.Logger

// HTTPClient performs REST requests. *http.Client satisfies it.
type HTTPClient = ports.HTTPClient

// Dialer opens gateway connections.
type Dialer = ports.Dialer

// Conn is one gateway connection.
type Conn = ports.Conn

// Option configures optional behavior of a Client.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       log.Logger
	dialer       ports.Dialer
	plugins      []Plugin
	stateHandler StateHandler
}

// WithHTTPClient sets the client used for REST calls.
// If not provided, an *http.Client with Config.HTTPTimeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithPlugin registers a plugin to be initialized when the client starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithStateHandler sets a handler for lifecycle transitions.
func WithStateHandler(h StateHandler) Option {
	return func(o *options) {
		o.stateHandler = h
	}
}
