package entity

import (
	"time"

	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

// MemberData is the wire form of a guild member.
type MemberData struct {
	User                       *UserData `json:"user,omitempty"`
	Nick                       *string   `json:"nick,omitempty"`
	Roles                      []string  `json:"roles,omitempty"`
	JoinedAt                   string    `json:"joined_at,omitempty"`
	CommunicationDisabledUntil *string   `json:"communication_disabled_until,omitempty"`
}

// Member is a user in the context of one guild. Moderation commands go
// through Guild; a member without a guild returns ErrNoGuildContext.
type Member struct {
	User     *User
	Nick     string
	RoleIDs  []string
	JoinedAt string

	// TimedOutUntil is empty unless the member is timed out.
	TimedOutUntil string

	Guild *Guild

	requester *rest.Requester
}

// NewMember builds a member. guild may be nil.
func NewMember(d MemberData, guild *Guild, r *rest.Requester) *Member {
	m := &Member{
		Nick:          deref(d.Nick),
		RoleIDs:       append([]string(nil), d.Roles...),
		JoinedAt:      d.JoinedAt,
		TimedOutUntil: deref(d.CommunicationDisabledUntil),
		Guild:         guild,
		requester:     r,
	}
	if d.User != nil {
		m.User = NewUser(*d.User, r)
	}
	return m
}

// newMemberWithUser builds a member whose user object was sent next to,
// rather than inside, the member payload.
func newMemberWithUser(u *User, d MemberData, guild *Guild, r *rest.Requester) *Member {
	m := NewMember(d, guild, r)
	m.User = u
	return m
}

// ID returns the member's user id.
func (m *Member) ID() string {
	if m.User == nil {
		return ""
	}
	return m.User.ID
}

// EffectiveName returns the nickname, falling back to the username.
func (m *Member) EffectiveName() string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}

// Roles resolves the member's role ids against the guild's cached roles.
func (m *Member) Roles() []*Role {
	if m.Guild == nil {
		return nil
	}
	var roles []*Role
	for _, id := range m.RoleIDs {
		if r, ok := m.Guild.Role(id); ok {
			roles = append(roles, r)
		}
	}
	return roles
}

// HasPermission reports whether any of the member's cached roles grants p.
func (m *Member) HasPermission(p Permission) bool {
	for _, r := range m.Roles() {
		if r.HasPermission(p) {
			return true
		}
	}
	return false
}

func (m *Member) guild() (*Guild, error) {
	if m.Guild == nil || m.User == nil {
		return nil, ErrNoGuildContext
	}
	return m.Guild, nil
}

// Kick removes the member from the guild.
func (m *Member) Kick() (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.KickMember(m.User.ID), nil
}

// Ban permanently bans the member.
func (m *Member) Ban(reason string) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.BanMember(m.User.ID, reason)
}

// BanWith bans the member with explicit options.
func (m *Member) BanWith(opts BanOptions) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.BanMemberWith(m.User.ID, opts)
}

// Timeout stops the member from communicating for d.
func (m *Member) Timeout(d time.Duration) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.TimeoutMember(m.User.ID, d)
}

// RemoveTimeout lifts the member's timeout.
func (m *Member) RemoveTimeout() (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.RemoveTimeout(m.User.ID)
}

// AddRole grants a role.
func (m *Member) AddRole(roleID string) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.AddRoleToMember(m.User.ID, roleID), nil
}

// RemoveRole revokes a role.
func (m *Member) RemoveRole(roleID string) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return g.RemoveRoleFromMember(m.User.ID, roleID), nil
}

type rolesPayload struct {
	Roles []string `json:"roles" validate:"dive,required"`
}

// ModifyRoles replaces the member's role set.
func (m *Member) ModifyRoles(roleIDs []string) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return rest.NewAction(g.Requester(), rest.ModifyMember.Compile(g.ID(), m.User.ID), rest.Discard).
		SetBody(rolesPayload{Roles: roleIDs})
}

type nickPayload struct {
	Nick string `json:"nick" validate:"max=32"`
}

// ModifyNickname changes the member's nickname. An empty nickname resets it.
func (m *Member) ModifyNickname(nick string) (*rest.Action[rest.Void], error) {
	g, err := m.guild()
	if err != nil {
		return nil, err
	}
	return rest.NewAction(g.Requester(), rest.ModifyMember.Compile(g.ID(), m.User.ID), rest.Discard).
		SetBody(nickPayload{Nick: nick})
}

// OpenPrivateChannel opens a direct message channel with the member.
func (m *Member) OpenPrivateChannel() (*rest.Action[*Channel], error) {
	if m.User == nil {
		return nil, ErrNoGuildContext
	}
	return m.User.OpenPrivateChannel()
}
