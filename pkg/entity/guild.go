package entity

import (
	"net/url"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// GuildData is the wire form of a guild.
type GuildData struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	OwnerID     *string       `json:"owner_id,omitempty"`
	Icon        *string       `json:"icon,omitempty"`
	Roles       []RoleData    `json:"roles,omitempty"`
	Channels    []ChannelData `json:"channels,omitempty"`
	MemberCount int           `json:"member_count,omitempty"`
	Unavailable bool          `json:"unavailable,omitempty"`
}

// Guild is an immutable snapshot of a guild. The With* and Without*
// methods return modified copies.
type Guild struct {
	id          string
	name        string
	ownerID     string
	memberCount int
	roles       map[string]*Role
	channels    map[string]*Channel
	stub        bool

	requester *rest.Requester
	now       func() time.Time
}

// NewGuild builds a guild snapshot from wire data.
func NewGuild(d GuildData, r *rest.Requester) *Guild {
	g := &Guild{
		id:          d.ID,
		name:        d.Name,
		ownerID:     deref(d.OwnerID),
		memberCount: d.MemberCount,
		roles:       make(map[string]*Role, len(d.Roles)),
		channels:    make(map[string]*Channel, len(d.Channels)),
		requester:   r,
		now:         time.Now,
	}
	for _, rd := range d.Roles {
		g.roles[rd.ID] = NewRole(rd)
	}
	for _, cd := range d.Channels {
		g.channels[cd.ID] = NewChannel(cd, d.ID, r)
	}
	return g
}

// StubGuild returns an id-only guild able to issue commands.
func StubGuild(id string, r *rest.Requester) *Guild {
	return &Guild{
		id:        id,
		roles:     map[string]*Role{},
		channels:  map[string]*Channel{},
		stub:      true,
		requester: r,
		now:       time.Now,
	}
}

func (g *Guild) ID() string       { return g.id }
func (g *Guild) Name() string     { return g.name }
func (g *Guild) OwnerID() string  { return g.ownerID }
func (g *Guild) MemberCount() int { return g.memberCount }

// IsStub reports whether g carries only its id.
func (g *Guild) IsStub() bool { return g.stub }

// Requester returns the requester commands are issued through.
func (g *Guild) Requester() *rest.Requester { return g.requester }

// Role returns a cached role.
func (g *Guild) Role(id string) (*Role, bool) {
	r, ok := g.roles[id]
	return r, ok
}

// Roles returns the roles ordered by position.
func (g *Guild) Roles() []*Role {
	roles := lo.Values(g.roles)
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].Position == roles[j].Position {
			return roles[i].ID < roles[j].ID
		}
		return roles[i].Position < roles[j].Position
	})
	return roles
}

// Channel returns the cached channel with id, or a stub channel in this
// guild when it is not cached. It never returns nil.
func (g *Guild) Channel(id string) *Channel {
	if c, ok := g.channels[id]; ok {
		return c
	}
	return StubChannel(id, g.id, g.requester)
}

// CachedChannel returns the channel with id only if it is cached.
func (g *Guild) CachedChannel(id string) (*Channel, bool) {
	c, ok := g.channels[id]
	return c, ok
}

// Channels returns the cached channels ordered by position.
func (g *Guild) Channels() []*Channel {
	chans := lo.Values(g.channels)
	sort.Slice(chans, func(i, j int) bool {
		if chans[i].Position == chans[j].Position {
			return chans[i].ID < chans[j].ID
		}
		return chans[i].Position < chans[j].Position
	})
	return chans
}

// ChannelsOfType returns the cached channels of type t.
func (g *Guild) ChannelsOfType(t ChannelType) []*Channel {
	return lo.Filter(g.Channels(), func(c *Channel, _ int) bool {
		return c.Type == t
	})
}

func (g *Guild) clone() *Guild {
	next := *g
	next.roles = make(map[string]*Role, len(g.roles))
	for k, v := range g.roles {
		next.roles[k] = v
	}
	next.channels = make(map[string]*Channel, len(g.channels))
	for k, v := range g.channels {
		next.channels[k] = v
	}
	return &next
}

// WithChannel returns a copy of g with c added or replaced.
func (g *Guild) WithChannel(c *Channel) *Guild {
	next := g.clone()
	next.channels[c.ID] = c
	return next
}

// WithoutChannel returns a copy of g without channel id.
func (g *Guild) WithoutChannel(id string) *Guild {
	next := g.clone()
	delete(next.channels, id)
	return next
}

// WithRole returns a copy of g with r added or replaced.
func (g *Guild) WithRole(r *Role) *Guild {
	next := g.clone()
	next.roles[r.ID] = r
	return next
}

// WithoutRole returns a copy of g without role id.
func (g *Guild) WithoutRole(id string) *Guild {
	next := g.clone()
	delete(next.roles, id)
	return next
}

// RetrieveChannels fetches the guild's channel list.
func (g *Guild) RetrieveChannels() *rest.Action[[]*Channel] {
	return rest.NewAction(g.requester, rest.GetGuildChannels.Compile(g.id), func(body []byte) ([]*Channel, error) {
		var data []ChannelData
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		return lo.Map(data, func(d ChannelData, _ int) *Channel {
			return NewChannel(d, g.id, g.requester)
		}), nil
	})
}

// RetrieveMember fetches one member of the guild.
func (g *Guild) RetrieveMember(userID string) *rest.Action[*Member] {
	return rest.NewAction(g.requester, rest.GetMember.Compile(g.id, userID), func(body []byte) (*Member, error) {
		var d MemberData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		return NewMember(d, g, g.requester), nil
	})
}

// RetrieveMemberProfile fetches a user's profile as seen in this guild.
func (g *Guild) RetrieveMemberProfile(userID string) *rest.Action[*UserProfile] {
	route := rest.GetUserProfile.Compile(userID).WithQuery(url.Values{"guild_id": {g.id}})
	return rest.NewAction(g.requester, route, func(body []byte) (*UserProfile, error) {
		var d UserProfileData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		return NewUserProfile(d, g.requester), nil
	})
}

type guildModifyPayload struct {
	Name string `json:"name" validate:"required,max=100"`
}

// SetName renames the guild.
func (g *Guild) SetName(name string) (*rest.Action[rest.Void], error) {
	return rest.NewAction(g.requester, rest.ModifyGuild.Compile(g.id), rest.Discard).
		SetBody(guildModifyPayload{Name: name})
}

type timeoutPayload struct {
	CommunicationDisabledUntil *string `json:"communication_disabled_until"`
}

// TimeoutMember stops a member from communicating for d.
func (g *Guild) TimeoutMember(userID string, d time.Duration) (*rest.Action[rest.Void], error) {
	until := g.now().Add(d).UTC().Format(time.RFC3339Nano)
	return rest.NewAction(g.requester, rest.ModifyMember.Compile(g.id, userID), rest.Discard).
		SetBody(timeoutPayload{CommunicationDisabledUntil: &until})
}

// RemoveTimeout lifts a member's timeout.
func (g *Guild) RemoveTimeout(userID string) (*rest.Action[rest.Void], error) {
	return rest.NewAction(g.requester, rest.ModifyMember.Compile(g.id, userID), rest.Discard).
		SetBody(timeoutPayload{})
}

// AddRoleToMember grants a role.
func (g *Guild) AddRoleToMember(userID, roleID string) *rest.Action[rest.Void] {
	return rest.NewAction(g.requester, rest.AddRole.Compile(g.id, userID, roleID), rest.Discard)
}

// RemoveRoleFromMember revokes a role.
func (g *Guild) RemoveRoleFromMember(userID, roleID string) *rest.Action[rest.Void] {
	return rest.NewAction(g.requester, rest.RemoveRole.Compile(g.id, userID, roleID), rest.Discard)
}

// KickMember removes a member from the guild.
func (g *Guild) KickMember(userID string) *rest.Action[rest.Void] {
	return rest.NewAction(g.requester, rest.KickMember.Compile(g.id, userID), rest.Discard)
}

// BanOptions tunes a ban.
type BanOptions struct {
	// DeleteMessageDays removes this many days of the user's messages (0-7).
	DeleteMessageDays int

	// Duration of the ban. Zero bans permanently.
	Duration time.Duration

	Reason string
}

type banPayload struct {
	DeleteMessageDays  int    `json:"delete_message_days" validate:"min=0,max=7"`
	Reason             string `json:"reason" validate:"max=512"`
	BanDurationSeconds int64  `json:"ban_duration_seconds" validate:"min=0"`
}

// BanMember permanently bans a user.
func (g *Guild) BanMember(userID, reason string) (*rest.Action[rest.Void], error) {
	return g.BanMemberWith(userID, BanOptions{Reason: reason})
}

// BanMemberWith bans a user with explicit options.
func (g *Guild) BanMemberWith(userID string, opts BanOptions) (*rest.Action[rest.Void], error) {
	return rest.NewAction(g.requester, rest.BanMember.Compile(g.id, userID), rest.Discard).
		SetBody(banPayload{
			DeleteMessageDays:  opts.DeleteMessageDays,
			Reason:             opts.Reason,
			BanDurationSeconds: int64(opts.Duration / time.Second),
		})
}

// UnbanMember lifts a ban.
func (g *Guild) UnbanMember(userID string) *rest.Action[rest.Void] {
	return rest.NewAction(g.requester, rest.UnbanMember.Compile(g.id, userID), rest.Discard)
}

type channelCreatePayload struct {
	Name string      `json:"name" validate:"required,max=100"`
	Type ChannelType `json:"type" validate:"min=0,max=4"`
}

// CreateChannel creates a channel of type t.
func (g *Guild) CreateChannel(name string, t ChannelType) (*rest.Action[*Channel], error) {
	return rest.NewAction(g.requester, rest.CreateChannel.Compile(g.id), channelParser(g.requester, g)).
		SetBody(channelCreatePayload{Name: name, Type: t})
}

// CreateTextChannel creates a text channel.
func (g *Guild) CreateTextChannel(name string) (*rest.Action[*Channel], error) {
	return g.CreateChannel(name, ChannelText)
}

// CreateVoiceChannel creates a voice channel.
func (g *Guild) CreateVoiceChannel(name string) (*rest.Action[*Channel], error) {
	return g.CreateChannel(name, ChannelVoice)
}

// CreateCategory creates a category.
func (g *Guild) CreateCategory(name string) (*rest.Action[*Channel], error) {
	return g.CreateChannel(name, ChannelCategory)
}

type guildCreatePayload struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// CreateGuild creates a guild owned by the authenticated user.
func CreateGuild(r *rest.Requester, name string) (*rest.Action[*Guild], error) {
	return rest.NewAction(r, rest.CreateGuild.Compile(), GuildParser(r)).
		SetBody(guildCreatePayload{Name: name})
}

// RetrieveGuild fetches a full guild snapshot.
func RetrieveGuild(r *rest.Requester, id string) *rest.Action[*Guild] {
	return rest.NewAction(r, rest.GetGuild.Compile(id), GuildParser(r))
}

// GuildParser decodes a guild response body.
func GuildParser(r *rest.Requester) rest.Parser[*Guild] {
	return func(body []byte) (*Guild, error) {
		var d GuildData
		if err := json.Unmarshal(body, &d); err != nil {
			return nil, err
		}
		return NewGuild(d, r), nil
	}
}
