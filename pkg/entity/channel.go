package entity

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// ChannelType identifies the kind of channel.
type ChannelType int

const (
	ChannelText     ChannelType = 0
	ChannelDM       ChannelType = 1
	ChannelVoice    ChannelType = 2
	ChannelGroupDM  ChannelType = 3
	ChannelCategory ChannelType = 4
)

func (t ChannelType) String() string {
	switch t {
	case ChannelText:
		return "text"
	case ChannelDM:
		return "dm"
	case ChannelVoice:
		return "voice"
	case ChannelGroupDM:
		return "group_dm"
	case ChannelCategory:
		return "category"
	default:
		return "unknown"
	}
}

// ChannelData is the wire form of a channel.
type ChannelData struct {
	ID                   string                    `json:"id"`
	Type                 ChannelType               `json:"type"`
	GuildID              string                    `json:"guild_id,omitempty"`
	Name                 string                    `json:"name,omitempty"`
	Topic                *string                   `json:"topic,omitempty"`
	NSFW                 bool                      `json:"nsfw,omitempty"`
	Position             int                       `json:"position,omitempty"`
	ParentID             *string                   `json:"parent_id,omitempty"`
	RateLimitPerUser     int                       `json:"rate_limit_per_user,omitempty"`
	Bitrate              int                       `json:"bitrate,omitempty"`
	UserLimit            int                       `json:"user_limit,omitempty"`
	Recipients           []UserData                `json:"recipients,omitempty"`
	PermissionOverwrites []PermissionOverwriteData `json:"permission_overwrites,omitempty"`
}

// Channel is a guild or private channel. Fields that do not apply to the
// channel's Type are zero.
type Channel struct {
	ID       string
	Type     ChannelType
	GuildID  string
	Name     string
	Topic    string
	NSFW     bool
	Position int
	ParentID string

	// Slowmode in seconds.
	RateLimitPerUser int

	Bitrate   int
	UserLimit int

	Recipients           []*User
	PermissionOverwrites []PermissionOverwrite

	stub      bool
	requester *rest.Requester
}

// NewChannel builds a channel from wire data. guildID overrides an empty
// data.GuildID (guild channel lists omit it).
func NewChannel(d ChannelData, guildID string, r *rest.Requester) *Channel {
	if d.GuildID != "" {
		guildID = d.GuildID
	}
	return &Channel{
		ID:               d.ID,
		Type:             d.Type,
		GuildID:          guildID,
		Name:             d.Name,
		Topic:            deref(d.Topic),
		NSFW:             d.NSFW,
		Position:         d.Position,
		ParentID:         deref(d.ParentID),
		RateLimitPerUser: d.RateLimitPerUser,
		Bitrate:          d.Bitrate,
		UserLimit:        d.UserLimit,
		Recipients: lo.Map(d.Recipients, func(u UserData, _ int) *User {
			return NewUser(u, r)
		}),
		PermissionOverwrites: lo.Map(d.PermissionOverwrites, func(o PermissionOverwriteData, _ int) PermissionOverwrite {
			return newPermissionOverwrite(o)
		}),
		requester: r,
	}
}

// StubChannel returns an id-only text channel able to issue commands.
func StubChannel(id, guildID string, r *rest.Requester) *Channel {
	return &Channel{
		ID:        id,
		Type:      ChannelText,
		GuildID:   guildID,
		stub:      true,
		requester: r,
	}
}

// IsStub reports whether c carries only its id.
func (c *Channel) IsStub() bool { return c.stub }

// IsPrivate reports whether c is a direct or group message channel.
func (c *Channel) IsPrivate() bool {
	return c.Type == ChannelDM || c.Type == ChannelGroupDM
}

// Mention returns the mention markup for the channel.
func (c *Channel) Mention() string {
	return "<#" + c.ID + ">"
}

// MessagePayload is the body of a message create request.
type MessagePayload struct {
	Content          string            `json:"content" validate:"required,max=2000"`
	Nonce            string            `json:"nonce,omitempty"`
	MessageReference *MessageReference `json:"message_reference,omitempty"`
	AllowedMentions  *AllowedMentions  `json:"allowed_mentions,omitempty"`
}

// MessageReference points a reply at its parent message.
type MessageReference struct {
	MessageID string `json:"message_id"`
}

// AllowedMentions controls who a message pings.
type AllowedMentions struct {
	RepliedUser bool `json:"replied_user"`
}

// SendMessage posts content to the channel. Each call carries a fresh nonce.
func (c *Channel) SendMessage(content string) (*rest.Action[*Message], error) {
	return rest.NewAction(c.requester, rest.SendMessage.Compile(c.ID), messageParser(c.requester)).
		SetBody(MessagePayload{Content: content, Nonce: uuid.NewString()})
}

// Delete deletes the channel.
func (c *Channel) Delete() *rest.Action[rest.Void] {
	return rest.NewAction(c.requester, rest.DeleteChannel.Compile(c.ID), rest.Discard)
}

// Modify patches arbitrary channel fields.
func (c *Channel) Modify(fields map[string]any) (*rest.Action[rest.Void], error) {
	return rest.NewAction(c.requester, rest.ModifyChannel.Compile(c.ID), rest.Discard).SetBody(fields)
}

// SetName renames the channel.
func (c *Channel) SetName(name string) (*rest.Action[rest.Void], error) {
	return c.Modify(map[string]any{"name": name})
}

// SetTopic changes the channel topic.
func (c *Channel) SetTopic(topic string) (*rest.Action[rest.Void], error) {
	return c.Modify(map[string]any{"topic": topic})
}

// SetNSFW flags the channel as age restricted.
func (c *Channel) SetNSFW(nsfw bool) (*rest.Action[rest.Void], error) {
	return c.Modify(map[string]any{"nsfw": nsfw})
}

// SetSlowmode sets the per-user message interval in seconds.
func (c *Channel) SetSlowmode(seconds int) (*rest.Action[rest.Void], error) {
	return c.Modify(map[string]any{"rate_limit_per_user": seconds})
}

type invitePayload struct {
	MaxAge  int `json:"max_age" validate:"min=0"`
	MaxUses int `json:"max_uses" validate:"min=0"`
}

// CreateInvite creates a permanent, unlimited invite and yields its code.
func (c *Channel) CreateInvite() (*rest.Action[string], error) {
	parse := func(body []byte) (string, error) {
		var v struct {
			Code string `json:"code"`
		}
		err := json.Unmarshal(body, &v)
		return v.Code, err
	}
	return rest.NewAction(c.requester, rest.CreateInvite.Compile(c.ID), parse).SetBody(invitePayload{})
}

type overwritePayload struct {
	Type  OverwriteType `json:"type" validate:"min=0,max=1"`
	Allow string        `json:"allow"`
	Deny  string        `json:"deny"`
}

// UpsertPermissionOverride creates or replaces the overwrite for target.
func (c *Channel) UpsertPermissionOverride(targetID string, typ OverwriteType, allow, deny Permission) (*rest.Action[rest.Void], error) {
	return rest.NewAction(c.requester, rest.ManagePermission.Compile(c.ID, targetID), rest.Discard).
		SetBody(overwritePayload{Type: typ, Allow: allow.String(), Deny: deny.String()})
}

// DeletePermissionOverride removes the overwrite for target.
func (c *Channel) DeletePermissionOverride(targetID string) *rest.Action[rest.Void] {
	return rest.NewAction(c.requester, rest.DeletePermission.Compile(c.ID, targetID), rest.Discard)
}

func channelParser(r *rest.Requester, guild *Guild) rest.Parser[*Channel] {
	return func(body []byte) (*Channel, error) {
		var d ChannelData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		guildID := ""
		if guild != nil {
			guildID = guild.ID()
		}
		return NewChannel(d, guildID, r), nil
	}
}
