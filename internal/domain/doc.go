// Package domain holds the sentinel errors shared by the gateway session
// and the public client facade.
//
// It has no dependencies on transport, logging or serialization, so both
// internal/gateway and pkg/fluxer can return the same values and callers
// can match them with errors.Is regardless of which layer produced them.
package domain
