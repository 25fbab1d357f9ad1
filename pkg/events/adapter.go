package events

import "fmt"

// Adapter is a Listener that routes each event variant to its own hook.
// Nil hooks ignore their events.
type Adapter struct {
	// Any runs before the variant hook for every event.
	Any func(Event) error

	Ready              func(*Ready) error
	MessageCreated     func(*MessageCreated) error
	MessageUpdated     func(*MessageUpdated) error
	MessageDeleted     func(*MessageDeleted) error
	MessageBulkDeleted func(*MessageBulkDeleted) error
	ReactionAdded      func(*ReactionAdded) error
	ReactionRemoved    func(*ReactionRemoved) error
	GuildJoined        func(*GuildJoined) error
	GuildLeft          func(*GuildLeft) error
	MemberJoined       func(*MemberJoined) error
	MemberLeft         func(*MemberLeft) error
	MemberUpdated      func(*MemberUpdated) error
	Banned             func(*Banned) error
	Unbanned           func(*Unbanned) error
	RoleCreated        func(*RoleCreated) error
	RoleDeleted        func(*RoleDeleted) error
	TypingStarted      func(*TypingStarted) error
}

// OnEvent implements Listener.
func (a *Adapter) OnEvent(e Event) error {
	if a.Any != nil {
		if err := a.Any(e); err != nil {
			return err
		}
	}

	switch e := e.(type) {
	case *Ready:
		return call(a.Ready, e)
	case *MessageCreated:
		return call(a.MessageCreated, e)
	case *MessageUpdated:
		return call(a.MessageUpdated, e)
	case *MessageDeleted:
		return call(a.MessageDeleted, e)
	case *MessageBulkDeleted:
		return call(a.MessageBulkDeleted, e)
	case *ReactionAdded:
		return call(a.ReactionAdded, e)
	case *ReactionRemoved:
		return call(a.ReactionRemoved, e)
	case *GuildJoined:
		return call(a.GuildJoined, e)
	case *GuildLeft:
		return call(a.GuildLeft, e)
	case *MemberJoined:
		return call(a.MemberJoined, e)
	case *MemberLeft:
		return call(a.MemberLeft, e)
	case *MemberUpdated:
		return call(a.MemberUpdated, e)
	case *Banned:
		return call(a.Banned, e)
	case *Unbanned:
		return call(a.Unbanned, e)
	case *RoleCreated:
		return call(a.RoleCreated, e)
	case *RoleDeleted:
		return call(a.RoleDeleted, e)
	case *TypingStarted:
		return call(a.TypingStarted, e)
	default:
		return fmt.Errorf("unhandled event %T", e)
	}
}

func call[E Event](hook func(E) error, e E) error {
	if hook == nil {
		return nil
	}
	return hook(e)
}
