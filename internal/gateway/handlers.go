package gateway

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/why-shiro/J4Fluxer/pkg/cache"
	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/events"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

var errNoData = errors.New("frame has no data")

// MissingFieldError reports a dispatch payload without a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %q", e.Field)
}

func require(fields ...string) error {
	for i := 0; i < len(fields); i += 2 {
		if fields[i+1] == "" {
			return &MissingFieldError{Field: fields[i]}
		}
	}
	return nil
}

// Handlers turns dispatch payloads into events, updating the cache on
// the way. Guild references resolve to the cached snapshot, or to a stub
// when the guild is not cached.
type Handlers struct {
	cache     *cache.Guilds
	requester *rest.Requester
}

// NewHandlers creates handlers backed by c. r is attached to every
// entity built from a payload.
func NewHandlers(c *cache.Guilds, r *rest.Requester) *Handlers {
	return &Handlers{cache: c, requester: r}
}

type handlerFunc func(h *Handlers, d []byte) (events.Event, error)

var handlerTable = map[string]handlerFunc{
	events.TypeReady:             (*Handlers).ready,
	events.TypeMessageCreate:     (*Handlers).messageCreate,
	events.TypeMessageUpdate:     (*Handlers).messageUpdate,
	events.TypeMessageDelete:     (*Handlers).messageDelete,
	events.TypeMessageDeleteBulk: (*Handlers).messageDeleteBulk,
	events.TypeReactionAdd:       (*Handlers).reactionAdd,
	events.TypeReactionRemove:    (*Handlers).reactionRemove,
	events.TypeChannelCreate:     (*Handlers).channelUpsert,
	events.TypeChannelUpdate:     (*Handlers).channelUpsert,
	events.TypeChannelDelete:     (*Handlers).channelDelete,
	events.TypeGuildCreate:       (*Handlers).guildCreate,
	events.TypeGuildDelete:       (*Handlers).guildDelete,
	events.TypeMemberAdd:         (*Handlers).memberAdd,
	events.TypeMemberRemove:      (*Handlers).memberRemove,
	events.TypeMemberUpdate:      (*Handlers).memberUpdate,
	events.TypeBanAdd:            (*Handlers).banAdd,
	events.TypeBanRemove:         (*Handlers).banRemove,
	events.TypeRoleCreate:        (*Handlers).roleCreate,
	events.TypeRoleUpdate:        (*Handlers).roleUpdate,
	events.TypeRoleDelete:        (*Handlers).roleDelete,
	events.TypeTypingStart:       (*Handlers).typingStart,
}

// Handle processes one dispatch payload. It returns a nil event for
// unknown types and for payloads that only update the cache.
func (h *Handlers) Handle(t string, d []byte) (events.Event, error) {
	fn, ok := handlerTable[t]
	if !ok {
		return nil, nil
	}
	if len(d) == 0 || string(d) == "null" {
		return nil, errNoData
	}
	return fn(h, d)
}

// guild resolves id cache-first. An empty id means a private context.
func (h *Handlers) guild(id string) *entity.Guild {
	if id == "" {
		return nil
	}
	return h.cache.GetOrStub(id)
}

type readyPayload struct {
	SessionID string          `json:"session_id"`
	User      entity.UserData `json:"user"`
}

func (h *Handlers) ready(d []byte) (events.Event, error) {
	var p readyPayload
	if err := json.Unmarshal(d, &p); err != nil {
		return nil, err
	}
	if err := require("user.id", p.User.ID); err != nil {
		return nil, err
	}
	return &events.Ready{
		UserID:    p.User.ID,
		Username:  p.User.Username,
		SessionID: p.SessionID,
	}, nil
}

func (h *Handlers) decodeMessage(d []byte) (entity.MessageData, error) {
	var m entity.MessageData
	if err := json.Unmarshal(d, &m); err != nil {
		return m, err
	}
	return m, require("id", m.ID, "channel_id", m.ChannelID)
}

func (h *Handlers) messageCreate(d []byte) (events.Event, error) {
	m, err := h.decodeMessage(d)
	if err != nil {
		return nil, err
	}
	return &events.MessageCreated{
		Message: entity.NewMessage(m, h.guild(m.GuildID), h.requester),
	}, nil
}

func (h *Handlers) messageUpdate(d []byte) (events.Event, error) {
	m, err := h.decodeMessage(d)
	if err != nil {
		return nil, err
	}
	g := h.guild(m.GuildID)
	return &events.MessageUpdated{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Message:   entity.NewMessage(m, g, h.requester),
		Guild:     g,
	}, nil
}

type messageDeletePayload struct {
	ID        string   `json:"id"`
	IDs       []string `json:"ids"`
	ChannelID string   `json:"channel_id"`
	GuildID   string   `json:"guild_id"`
}

func (h *Handlers) messageDelete(d []byte) (events.Event, error) {
	var p messageDeletePayload
	if err := json.Unmarshal(d, &p); err != nil {
		return nil, err
	}
	if err := require("id", p.ID, "channel_id", p.ChannelID); err != nil {
		return nil, err
	}
	return &events.MessageDeleted{
		MessageID: p.ID,
		ChannelID: p.ChannelID,
		GuildID:   p.GuildID,
		Guild:     h.guild(p.GuildID),
	}, nil
}

func (h *Handlers) messageDeleteBulk(d []byte) (events.Event, error) {
	var p messageDeletePayload
	if err := json.Unmarshal(d, &p); err != nil {
		return nil, err
	}
	if err := require("channel_id", p.ChannelID); err != nil {
		return nil, err
	}
	return &events.MessageBulkDeleted{
		MessageIDs: lo.Compact(p.IDs),
		ChannelID:  p.ChannelID,
		GuildID:    p.GuildID,
		Guild:      h.guild(p.GuildID),
	}, nil
}

type emojiData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type reactionPayload struct {
	UserID    string             `json:"user_id"`
	ChannelID string             `json:"channel_id"`
	MessageID string             `json:"message_id"`
	GuildID   string             `json:"guild_id"`
	Emoji     emojiData          `json:"emoji"`
	Member    *entity.MemberData `json:"member"`
}

func (h *Handlers) reaction(d []byte) (events.Reaction, error) {
	var p reactionPayload
	if err := json.Unmarshal(d, &p); err != nil {
		return events.Reaction{}, err
	}
	if err := require("user_id", p.UserID, "channel_id", p.ChannelID, "message_id", p.MessageID); err != nil {
		return events.Reaction{}, err
	}
	r := events.Reaction{
		UserID:    p.UserID,
		ChannelID: p.ChannelID,
		MessageID: p.MessageID,
		GuildID:   p.GuildID,
		EmojiName: p.Emoji.Name,
		Guild:     h.guild(p.GuildID),
	}
	if p.Member != nil {
		r.Member = entity.NewMember(*p.Member, r.Guild, h.requester)
	}
	return r, nil
}

func (h *Handlers) reactionAdd(d []byte) (events.Event, error) {
	r, err := h.reaction(d)
	if err != nil {
		return nil, err
	}
	return &events.ReactionAdded{Reaction: r}, nil
}

func (h *Handlers) reactionRemove(d []byte) (events.Event, error) {
	r, err := h.reaction(d)
	if err != nil {
		return nil, err
	}
	return &events.ReactionRemoved{Reaction: r}, nil
}

// Channel changes only touch cached guilds and emit nothing.
func (h *Handlers) channelUpsert(d []byte) (events.Event, error) {
	var c entity.ChannelData
	if err := json.Unmarshal(d, &c); err != nil {
		return nil, err
	}
	if c.GuildID == "" {
		return nil, nil
	}
	if err := require("id", c.ID); err != nil {
		return nil, err
	}
	h.cache.UpsertChannel(c.GuildID, entity.NewChannel(c, c.GuildID, h.requester))
	return nil, nil
}

func (h *Handlers) channelDelete(d []byte) (events.Event, error) {
	var c entity.ChannelData
	if err := json.Unmarshal(d, &c); err != nil {
		return nil, err
	}
	if c.GuildID == "" {
		return nil, nil
	}
	if err := require("id", c.ID); err != nil {
		return nil, err
	}
	h.cache.RemoveChannel(c.GuildID, c.ID)
	return nil, nil
}

func (h *Handlers) guildCreate(d []byte) (events.Event, error) {
	var gd entity.GuildData
	if err := json.Unmarshal(d, &gd); err != nil {
		return nil, err
	}
	if err := require("id", gd.ID); err != nil {
		return nil, err
	}
	g := entity.NewGuild(gd, h.requester)
	h.cache.Put(g)
	return &events.GuildJoined{Guild: g}, nil
}

// An unavailable guild is an outage, not a leave: the snapshot stays.
func (h *Handlers) guildDelete(d []byte) (events.Event, error) {
	var gd entity.GuildData
	if err := json.Unmarshal(d, &gd); err != nil {
		return nil, err
	}
	if err := require("id", gd.ID); err != nil {
		return nil, err
	}
	if gd.Unavailable {
		return nil, nil
	}
	h.cache.Delete(gd.ID)
	return &events.GuildLeft{GuildID: gd.ID}, nil
}

type memberPayload struct {
	GuildID string `json:"guild_id"`
	entity.MemberData
}

func (h *Handlers) decodeMember(d []byte) (memberPayload, *entity.Member, error) {
	var p memberPayload
	if err := json.Unmarshal(d, &p); err != nil {
		return p, nil, err
	}
	userID := ""
	if p.User != nil {
		userID = p.User.ID
	}
	if err := require("guild_id", p.GuildID, "user.id", userID); err != nil {
		return p, nil, err
	}
	return p, entity.NewMember(p.MemberData, h.guild(p.GuildID), h.requester), nil
}

func (h *Handlers) memberAdd(d []byte) (events.Event, error) {
	p, m, err := h.decodeMember(d)
	if err != nil {
		return nil, err
	}
	return &events.MemberJoined{GuildID: p.GuildID, Member: m, Guild: m.Guild}, nil
}

func (h *Handlers) memberUpdate(d []byte) (events.Event, error) {
	p, m, err := h.decodeMember(d)
	if err != nil {
		return nil, err
	}
	return &events.MemberUpdated{
		GuildID: p.GuildID,
		UserID:  m.ID(),
		Nick:    m.Nick,
		Member:  m,
		Guild:   m.Guild,
	}, nil
}

type guildUserPayload struct {
	GuildID string          `json:"guild_id"`
	User    entity.UserData `json:"user"`
}

func (h *Handlers) decodeGuildUser(d []byte) (guildUserPayload, error) {
	var p guildUserPayload
	if err := json.Unmarshal(d, &p); err != nil {
		return p, err
	}
	return p, require("guild_id", p.GuildID, "user.id", p.User.ID)
}

func (h *Handlers) memberRemove(d []byte) (events.Event, error) {
	p, err := h.decodeGuildUser(d)
	if err != nil {
		return nil, err
	}
	return &events.MemberLeft{GuildID: p.GuildID, UserID: p.User.ID, Guild: h.guild(p.GuildID)}, nil
}

func (h *Handlers) banAdd(d []byte) (events.Event, error) {
	p, err := h.decodeGuildUser(d)
	if err != nil {
		return nil, err
	}
	return &events.Banned{GuildID: p.GuildID, UserID: p.User.ID, Guild: h.guild(p.GuildID)}, nil
}

func (h *Handlers) banRemove(d []byte) (events.Event, error) {
	p, err := h.decodeGuildUser(d)
	if err != nil {
		return nil, err
	}
	return &events.Unbanned{GuildID: p.GuildID, UserID: p.User.ID, Guild: h.guild(p.GuildID)}, nil
}

type rolePayload struct {
	GuildID string          `json:"guild_id"`
	RoleID  string          `json:"role_id"`
	Role    entity.RoleData `json:"role"`
}

func (h *Handlers) decodeRole(d []byte) (rolePayload, error) {
	var p rolePayload
	if err := json.Unmarshal(d, &p); err != nil {
		return p, err
	}
	return p, require("guild_id", p.GuildID, "role.id", p.Role.ID)
}

func (h *Handlers) roleCreate(d []byte) (events.Event, error) {
	p, err := h.decodeRole(d)
	if err != nil {
		return nil, err
	}
	r := entity.NewRole(p.Role)
	h.cache.UpsertRole(p.GuildID, r)
	return &events.RoleCreated{GuildID: p.GuildID, Role: r, Guild: h.guild(p.GuildID)}, nil
}

func (h *Handlers) roleUpdate(d []byte) (events.Event, error) {
	p, err := h.decodeRole(d)
	if err != nil {
		return nil, err
	}
	h.cache.UpsertRole(p.GuildID, entity.NewRole(p.Role))
	return nil, nil
}

func (h *Handlers) roleDelete(d []byte) (events.Event, error) {
	var p rolePayload
	if err := json.Unmarshal(d, &p); err != nil {
		return nil, err
	}
	if err := require("guild_id", p.GuildID, "role_id", p.RoleID); err != nil {
		return nil, err
	}
	h.cache.RemoveRole(p.GuildID, p.RoleID)
	return &events.RoleDeleted{GuildID: p.GuildID, RoleID: p.RoleID, Guild: h.guild(p.GuildID)}, nil
}

type typingPayload struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
}

func (h *Handlers) typingStart(d []byte) (events.Event, error) {
	var p typingPayload
	if err := json.Unmarshal(d, &p); err != nil {
		return nil, err
	}
	if err := require("user_id", p.UserID, "channel_id", p.ChannelID); err != nil {
		return nil, err
	}
	return &events.TypingStarted{UserID: p.UserID, ChannelID: p.ChannelID, GuildID: p.GuildID}, nil
}
