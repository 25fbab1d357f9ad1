package events

import "github.com/why-shiro/J4Fluxer/pkg/entity"

// Dispatch types as sent in the frame's "t" field.
const (
	TypeReady             = "READY"
	TypeResumed           = "RESUMED"
	TypeMessageCreate     = "MESSAGE_CREATE"
	TypeMessageUpdate     = "MESSAGE_UPDATE"
	TypeMessageDelete     = "MESSAGE_DELETE"
	TypeMessageDeleteBulk = "MESSAGE_DELETE_BULK"
	TypeReactionAdd       = "MESSAGE_REACTION_ADD"
	TypeReactionRemove    = "MESSAGE_REACTION_REMOVE"
	TypeChannelCreate     = "CHANNEL_CREATE"
	TypeChannelUpdate     = "CHANNEL_UPDATE"
	TypeChannelDelete     = "CHANNEL_DELETE"
	TypeGuildCreate       = "GUILD_CREATE"
	TypeGuildDelete       = "GUILD_DELETE"
	TypeMemberAdd         = "GUILD_MEMBER_ADD"
	TypeMemberRemove      = "GUILD_MEMBER_REMOVE"
	TypeMemberUpdate      = "GUILD_MEMBER_UPDATE"
	TypeBanAdd            = "GUILD_BAN_ADD"
	TypeBanRemove         = "GUILD_BAN_REMOVE"
	TypeRoleCreate        = "GUILD_ROLE_CREATE"
	TypeRoleUpdate        = "GUILD_ROLE_UPDATE"
	TypeRoleDelete        = "GUILD_ROLE_DELETE"
	TypeTypingStart       = "TYPING_START"
)

// Event is a domain event. The set of implementations is closed.
type Event interface {
	// Type returns the dispatch type the event was built from.
	Type() string

	event()
}

// Ready is emitted once the session is identified.
type Ready struct {
	UserID    string
	Username  string
	SessionID string
}

// MessageCreated is emitted for every new message. Message.Guild() is nil
// for private messages and never nil otherwise.
type MessageCreated struct {
	Message *entity.Message
}

// Guild returns the message's guild, or nil for private messages.
func (e *MessageCreated) Guild() *entity.Guild { return e.Message.Guild() }

// IsPrivate reports whether the message was sent outside a guild.
func (e *MessageCreated) IsPrivate() bool { return e.Message.IsPrivate() }

// Channel returns the channel the message was sent in.
func (e *MessageCreated) Channel() *entity.Channel { return e.Message.Channel() }

// MessageUpdated is emitted when a message is edited.
type MessageUpdated struct {
	MessageID string
	ChannelID string
	GuildID   string
	Message   *entity.Message
	Guild     *entity.Guild
}

// MessageDeleted is emitted when a message is deleted.
type MessageDeleted struct {
	MessageID string
	ChannelID string
	GuildID   string
	Guild     *entity.Guild
}

// Channel returns the channel, or nil for private messages.
func (e *MessageDeleted) Channel() *entity.Channel { return channelOf(e.Guild, e.ChannelID) }

// MessageBulkDeleted is emitted when several messages are deleted at once.
type MessageBulkDeleted struct {
	MessageIDs []string
	ChannelID  string
	GuildID    string
	Guild      *entity.Guild
}

// Channel returns the channel, or nil for private messages.
func (e *MessageBulkDeleted) Channel() *entity.Channel { return channelOf(e.Guild, e.ChannelID) }

// Reaction holds the fields shared by reaction events.
type Reaction struct {
	UserID    string
	ChannelID string
	MessageID string
	GuildID   string
	EmojiName string

	// Member is set for guild reactions when the payload carries it.
	Member *entity.Member
	Guild  *entity.Guild
}

// Channel returns the channel, or nil for private messages.
func (r *Reaction) Channel() *entity.Channel { return channelOf(r.Guild, r.ChannelID) }

// ReactionAdded is emitted when a reaction is added to a message.
type ReactionAdded struct{ Reaction }

// ReactionRemoved is emitted when a reaction is removed from a message.
type ReactionRemoved struct{ Reaction }

// GuildJoined is emitted when a guild becomes available, including on
// startup. The snapshot has already been cached.
type GuildJoined struct {
	Guild *entity.Guild
}

// GuildLeft is emitted when the client leaves or is removed from a guild.
// Outages (unavailable guilds) do not produce it.
type GuildLeft struct {
	GuildID string
}

// MemberJoined is emitted when a user joins a guild.
type MemberJoined struct {
	GuildID string
	Member  *entity.Member
	Guild   *entity.Guild
}

// MemberLeft is emitted when a user leaves or is removed from a guild.
type MemberLeft struct {
	GuildID string
	UserID  string
	Guild   *entity.Guild
}

// MemberUpdated is emitted when a member's roles or nickname change.
type MemberUpdated struct {
	GuildID string
	UserID  string
	Nick    string
	Member  *entity.Member
	Guild   *entity.Guild
}

// Banned is emitted when a user is banned.
type Banned struct {
	GuildID string
	UserID  string
	Guild   *entity.Guild
}

// Unbanned is emitted when a ban is lifted.
type Unbanned struct {
	GuildID string
	UserID  string
	Guild   *entity.Guild
}

// RoleCreated is emitted when a role is created.
type RoleCreated struct {
	GuildID string
	Role    *entity.Role
	Guild   *entity.Guild
}

// RoleDeleted is emitted when a role is deleted.
type RoleDeleted struct {
	GuildID string
	RoleID  string
	Guild   *entity.Guild
}

// TypingStarted is emitted when a user starts typing.
type TypingStarted struct {
	UserID    string
	ChannelID string
	GuildID   string
}

func (*Ready) Type() string              { return TypeReady }
func (*MessageCreated) Type() string     { return TypeMessageCreate }
func (*MessageUpdated) Type() string     { return TypeMessageUpdate }
func (*MessageDeleted) Type() string     { return TypeMessageDelete }
func (*MessageBulkDeleted) Type() string { return TypeMessageDeleteBulk }
func (*ReactionAdded) Type() string      { return TypeReactionAdd }
func (*ReactionRemoved) Type() string    { return TypeReactionRemove }
func (*GuildJoined) Type() string        { return TypeGuildCreate }
func (*GuildLeft) Type() string          { return TypeGuildDelete }
func (*MemberJoined) Type() string       { return TypeMemberAdd }
func (*MemberLeft) Type() string         { return TypeMemberRemove }
func (*MemberUpdated) Type() string      { return TypeMemberUpdate }
func (*Banned) Type() string             { return TypeBanAdd }
func (*Unbanned) Type() string           { return TypeBanRemove }
func (*RoleCreated) Type() string        { return TypeRoleCreate }
func (*RoleDeleted) Type() string        { return TypeRoleDelete }
func (*TypingStarted) Type() string      { return TypeTypingStart }

func (*Ready) event()              {}
func (*MessageCreated) event()     {}
func (*MessageUpdated) event()     {}
func (*MessageDeleted) event()     {}
func (*MessageBulkDeleted) event() {}
func (*ReactionAdded) event()      {}
func (*ReactionRemoved) event()    {}
func (*GuildJoined) event()        {}
func (*GuildLeft) event()          {}
func (*MemberJoined) event()       {}
func (*MemberLeft) event()         {}
func (*MemberUpdated) event()      {}
func (*Banned) event()             {}
func (*Unbanned) event()           {}
func (*RoleCreated) event()        {}
func (*RoleDeleted) event()        {}
func (*TypingStarted) event()      {}

func channelOf(g *entity.Guild, channelID string) *entity.Channel {
	if g == nil {
		return nil
	}
	return g.Channel(channelID)
}
