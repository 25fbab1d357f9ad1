package rest

import (
	"net/http"
	"net/url"
	"strings"
)

// Route is an endpoint template such as "/channels/{channel_id}/messages".
type Route struct {
	Method string
	Path   string
}

// Endpoint templates.
var (
	// Channels
	CreateChannel      = Route{http.MethodPost, "/guilds/{guild_id}/channels"}
	GetGuildChannels   = Route{http.MethodGet, "/guilds/{guild_id}/channels"}
	DeleteChannel      = Route{http.MethodDelete, "/channels/{channel_id}"}
	ModifyChannel      = Route{http.MethodPatch, "/channels/{channel_id}"}
	CreateInvite       = Route{http.MethodPost, "/channels/{channel_id}/invites"}
	ManagePermission   = Route{http.MethodPut, "/channels/{channel_id}/permissions/{target_id}"}
	DeletePermission   = Route{http.MethodDelete, "/channels/{channel_id}/permissions/{target_id}"}
	SendMessage        = Route{http.MethodPost, "/channels/{channel_id}/messages"}
	EditMessage        = Route{http.MethodPatch, "/channels/{channel_id}/messages/{message_id}"}
	DeleteMessage      = Route{http.MethodDelete, "/channels/{channel_id}/messages/{message_id}"}
	AddReaction        = Route{http.MethodPut, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/@me"}
	RemoveReaction     = Route{http.MethodDelete, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/@me"}
	RemoveUserReaction = Route{http.MethodDelete, "/channels/{channel_id}/messages/{message_id}/reactions/{emoji}/{user_id}"}
	PinMessage         = Route{http.MethodPut, "/channels/{channel_id}/pins/{message_id}"}
	UnpinMessage       = Route{http.MethodDelete, "/channels/{channel_id}/pins/{message_id}"}

	// Guilds and members
	GetGuild     = Route{http.MethodGet, "/guilds/{guild_id}"}
	CreateGuild  = Route{http.MethodPost, "/guilds"}
	ModifyGuild  = Route{http.MethodPatch, "/guilds/{guild_id}"}
	GetMember    = Route{http.MethodGet, "/guilds/{guild_id}/members/{user_id}"}
	KickMember   = Route{http.MethodDelete, "/guilds/{guild_id}/members/{user_id}"}
	ModifyMember = Route{http.MethodPatch, "/guilds/{guild_id}/members/{user_id}"}
	AddRole      = Route{http.MethodPut, "/guilds/{guild_id}/members/{user_id}/roles/{role_id}"}
	RemoveRole   = Route{http.MethodDelete, "/guilds/{guild_id}/members/{user_id}/roles/{role_id}"}
	BanMember    = Route{http.MethodPut, "/guilds/{guild_id}/bans/{user_id}"}
	UnbanMember  = Route{http.MethodDelete, "/guilds/{guild_id}/bans/{user_id}"}

	// Users
	GetUser        = Route{http.MethodGet, "/users/{user_id}"}
	GetMe          = Route{http.MethodGet, "/users/@me"}
	GetUserProfile = Route{http.MethodGet, "/users/{user_id}/profile"}
	CreateDM       = Route{http.MethodPost, "/users/@me/channels"}
)

// Major parameters scope a rate limit bucket to one resource.
var majorParams = map[string]bool{
	"channel_id": true,
	"guild_id":   true,
}

// CompiledRoute is a route with its placeholders filled in.
type CompiledRoute struct {
	Method string
	Path   string
	Query  url.Values

	// Bucket identifies the rate limit bucket: the method and template
	// with only major parameters substituted.
	Bucket string
}

// Compile substitutes args for the placeholders in order. Each arg is
// path-escaped. Placeholders without an arg are left as is.
func (r Route) Compile(args ...string) CompiledRoute {
	var path, bucket strings.Builder
	rest := r.Path
	i := 0
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		end += open

		name := rest[open+1 : end]
		placeholder := rest[open : end+1]
		path.WriteString(rest[:open])
		bucket.WriteString(rest[:open])

		if i < len(args) {
			value := url.PathEscape(args[i])
			path.WriteString(value)
			if majorParams[name] {
				bucket.WriteString(value)
			} else {
				bucket.WriteString(placeholder)
			}
			i++
		} else {
			path.WriteString(placeholder)
			bucket.WriteString(placeholder)
		}
		rest = rest[end+1:]
	}
	path.WriteString(rest)
	bucket.WriteString(rest)

	return CompiledRoute{
		Method: r.Method,
		Path:   path.String(),
		Bucket: r.Method + " " + bucket.String(),
	}
}

// WithQuery returns a copy of c carrying the given query parameters.
func (c CompiledRoute) WithQuery(q url.Values) CompiledRoute {
	c.Query = q
	return c
}

// URL joins the route onto base.
func (c CompiledRoute) URL(base string) string {
	u := strings.TrimRight(base, "/") + c.Path
	if len(c.Query) > 0 {
		u += "?" + c.Query.Encode()
	}
	return u
}

// String returns "METHOD /path".
func (c CompiledRoute) String() string {
	return c.Method + " " + c.Path
}
