package entity

import (
	"regexp"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

var channelMention = regexp.MustCompile(`<#(\d+)>`)

// MessageData is the wire form of a message.
type MessageData struct {
	ID                string       `json:"id"`
	ChannelID         string       `json:"channel_id"`
	GuildID           string       `json:"guild_id,omitempty"`
	Content           string       `json:"content"`
	Author            *UserData    `json:"author,omitempty"`
	Member            *MemberData  `json:"member,omitempty"`
	Mentions          []UserData   `json:"mentions,omitempty"`
	MentionRoles      []string     `json:"mention_roles,omitempty"`
	Pinned            bool         `json:"pinned,omitempty"`
	Timestamp         string       `json:"timestamp,omitempty"`
	EditedTimestamp   *string      `json:"edited_timestamp,omitempty"`
	ReferencedMessage *MessageData `json:"referenced_message,omitempty"`
}

// Message is a chat message.
type Message struct {
	ID              string
	ChannelID       string
	GuildID         string
	Content         string
	Author          *User
	Member          *Member
	Mentions        []*User
	MentionRoleIDs  []string
	Pinned          bool
	Timestamp       string
	EditedTimestamp string

	// Referenced is the message this one replies to.
	Referenced *Message

	guild     *Guild
	requester *rest.Requester
}

// NewMessage builds a message. guild is the resolved guild for guild
// messages (cached snapshot or stub) and nil for private messages.
func NewMessage(d MessageData, guild *Guild, r *rest.Requester) *Message {
	m := &Message{
		ID:              d.ID,
		ChannelID:       d.ChannelID,
		GuildID:         d.GuildID,
		Content:         d.Content,
		MentionRoleIDs:  append([]string(nil), d.MentionRoles...),
		Pinned:          d.Pinned,
		Timestamp:       d.Timestamp,
		EditedTimestamp: deref(d.EditedTimestamp),
		guild:           guild,
		requester:       r,
	}
	if m.GuildID != "" && m.guild == nil {
		m.guild = StubGuild(m.GuildID, r)
	}
	if d.Author != nil {
		m.Author = NewUser(*d.Author, r)
		if d.Member != nil {
			m.Member = newMemberWithUser(m.Author, *d.Member, m.guild, r)
		}
	}
	m.Mentions = lo.Map(d.Mentions, func(u UserData, _ int) *User {
		return NewUser(u, r)
	})
	if d.ReferencedMessage != nil {
		m.Referenced = NewMessage(*d.ReferencedMessage, m.guild, r)
	}
	return m
}

// IsPrivate reports whether the message was sent outside a guild.
func (m *Message) IsPrivate() bool {
	return m.GuildID == ""
}

// Guild returns the message's guild, or nil for private messages. For
// guild messages it is never nil.
func (m *Message) Guild() *Guild {
	return m.guild
}

// Channel returns the channel the message was sent in. It is never nil.
func (m *Message) Channel() *Channel {
	if m.guild != nil {
		return m.guild.Channel(m.ChannelID)
	}
	c := StubChannel(m.ChannelID, "", m.requester)
	c.Type = ChannelDM
	return c
}

// MentionedRoles returns the mentioned roles known to the guild cache.
func (m *Message) MentionedRoles() []*Role {
	if m.guild == nil {
		return nil
	}
	return lo.FilterMap(m.MentionRoleIDs, func(id string, _ int) (*Role, bool) {
		return m.guild.Role(id)
	})
}

// MentionedChannels returns the channels mentioned in the content that are
// known to the guild cache.
func (m *Message) MentionedChannels() []*Channel {
	if m.guild == nil {
		return nil
	}
	matches := channelMention.FindAllStringSubmatch(m.Content, -1)
	return lo.FilterMap(matches, func(match []string, _ int) (*Channel, bool) {
		return m.guild.CachedChannel(match[1])
	})
}

// Reply answers the message and pings its author.
func (m *Message) Reply(content string) (*rest.Action[*Message], error) {
	return m.ReplyWith(content, true)
}

// ReplyWith answers the message; mention controls whether the author is
// pinged.
func (m *Message) ReplyWith(content string, mention bool) (*rest.Action[*Message], error) {
	return rest.NewAction(m.requester, rest.SendMessage.Compile(m.ChannelID), messageParser(m.requester)).
		SetBody(MessagePayload{
			Content:          content,
			Nonce:            uuid.NewString(),
			MessageReference: &MessageReference{MessageID: m.ID},
			AllowedMentions:  &AllowedMentions{RepliedUser: mention},
		})
}

type editPayload struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Edit replaces the message content.
func (m *Message) Edit(content string) (*rest.Action[*Message], error) {
	return rest.NewAction(m.requester, rest.EditMessage.Compile(m.ChannelID, m.ID), messageParser(m.requester)).
		SetBody(editPayload{Content: content})
}

// Delete deletes the message.
func (m *Message) Delete() *rest.Action[rest.Void] {
	return rest.NewAction(m.requester, rest.DeleteMessage.Compile(m.ChannelID, m.ID), rest.Discard)
}

// Pin pins the message in its channel.
func (m *Message) Pin() *rest.Action[rest.Void] {
	return rest.NewAction(m.requester, rest.PinMessage.Compile(m.ChannelID, m.ID), rest.Discard)
}

// Unpin unpins the message.
func (m *Message) Unpin() *rest.Action[rest.Void] {
	return rest.NewAction(m.requester, rest.UnpinMessage.Compile(m.ChannelID, m.ID), rest.Discard)
}

// AddReaction reacts with emoji as the current user.
func (m *Message) AddReaction(emoji string) *rest.Action[rest.Void] {
	return rest.NewAction(m.requester, rest.AddReaction.Compile(m.ChannelID, m.ID, emoji), rest.Discard)
}

// RemoveReaction removes the current user's emoji reaction.
func (m *Message) RemoveReaction(emoji string) *rest.Action[rest.Void] {
	return rest.NewAction(m.requester, rest.RemoveReaction.Compile(m.ChannelID, m.ID, emoji), rest.Discard)
}

// RemoveUserReaction removes another user's emoji reaction.
func (m *Message) RemoveUserReaction(userID, emoji string) *rest.Action[rest.Void] {
	return rest.NewAction(m.requester, rest.RemoveUserReaction.Compile(m.ChannelID, m.ID, emoji, userID), rest.Discard)
}

func messageParser(r *rest.Requester) rest.Parser[*Message] {
	return func(body []byte) (*Message, error) {
		var d MessageData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		return NewMessage(d, nil, r), nil
	}
}
