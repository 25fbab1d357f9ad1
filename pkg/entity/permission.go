package entity

import (
	"strconv"
	"strings"
)

// Permission is a bit set of guild permissions.
type Permission uint64

const (
	PermCreateInstantInvite Permission = 1 << 0
	PermKickMembers         Permission = 1 << 1
	PermBanMembers          Permission = 1 << 2
	PermAdministrator       Permission = 1 << 3
	PermManageChannels      Permission = 1 << 4
	PermManageGuild         Permission = 1 << 5
	PermAddReactions        Permission = 1 << 6
	PermViewAuditLog        Permission = 1 << 7
	PermPrioritySpeaker     Permission = 1 << 8
	PermStream              Permission = 1 << 9
	PermViewChannel         Permission = 1 << 10
	PermSendMessages        Permission = 1 << 11
	PermSendTTSMessages     Permission = 1 << 12
	PermManageMessages      Permission = 1 << 13
	PermEmbedLinks          Permission = 1 << 14
	PermAttachFiles         Permission = 1 << 15
	PermReadMessageHistory  Permission = 1 << 16
	PermMentionEveryone     Permission = 1 << 17
	PermUseExternalEmojis   Permission = 1 << 18
	PermConnect             Permission = 1 << 20
	PermSpeak               Permission = 1 << 21
	PermMuteMembers         Permission = 1 << 22
	PermDeafenMembers       Permission = 1 << 23
	PermMoveMembers         Permission = 1 << 24
	PermUseVAD              Permission = 1 << 25
	PermManageRoles         Permission = 1 << 28
	PermManageWebhooks      Permission = 1 << 29
	PermManageEmojis        Permission = 1 << 30
	PermRequestToSpeak      Permission = 1 << 32
	PermUseExternalStickers Permission = 1 << 37
)

// Has reports whether every bit of want is set in p.
func (p Permission) Has(want Permission) bool {
	return p&want == want
}

// String returns the decimal form used on the wire.
func (p Permission) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePermission reads the decimal wire form. Invalid input yields 0.
func ParsePermission(raw string) Permission {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return Permission(v)
}

// OverwriteType says whether an overwrite targets a role or a member.
type OverwriteType int

const (
	OverwriteRole   OverwriteType = 0
	OverwriteMember OverwriteType = 1
)

// PermissionOverwriteData is the wire form of a channel permission overwrite.
type PermissionOverwriteData struct {
	ID    string        `json:"id"`
	Type  OverwriteType `json:"type"`
	Allow string        `json:"allow"`
	Deny  string        `json:"deny"`
}

// PermissionOverwrite adjusts permissions for one role or member in a channel.
type PermissionOverwrite struct {
	ID    string
	Type  OverwriteType
	Allow Permission
	Deny  Permission
}

func newPermissionOverwrite(d PermissionOverwriteData) PermissionOverwrite {
	return PermissionOverwrite{
		ID:    d.ID,
		Type:  d.Type,
		Allow: ParsePermission(d.Allow),
		Deny:  ParsePermission(d.Deny),
	}
}
