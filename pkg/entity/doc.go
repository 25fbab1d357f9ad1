// Package entity holds the Fluxer domain objects: guilds, channels, roles,
// members, users and messages.
//
// Entities are built from gateway or REST payloads (the *Data types) and
// are immutable snapshots; a changed guild is a new *Guild value. Every
// entity keeps a *rest.Requester so it can issue commands about itself,
// returned as unexecuted *rest.Action values. A stub is an id-only entity
// that can still issue commands; see StubGuild and StubChannel.
package entity
