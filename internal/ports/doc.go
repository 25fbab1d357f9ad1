// Package ports defines the interfaces that connect the gateway session and
// the REST requester to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Dialer]: opens a gateway transport for a URL
//   - [Conn]: one open gateway transport (message framed, write-serialised)
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//   - [Logger]: structured logging abstraction (alias of pkg/log.Logger)
//
// The session (internal/gateway) depends only on these interfaces.
// internal/adapters/ws implements them on gorilla/websocket; tests use
// in-memory fakes.
package ports
