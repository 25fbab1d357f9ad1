package gateway

import (
	"errors"
	"testing"

	"github.com/why-shiro/J4Fluxer/pkg/cache"
	"github.com/why-shiro/J4Fluxer/pkg/events"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

func newTestHandlers(t *testing.T) (*Handlers, *cache.Guilds) {
	t.Helper()
	r := rest.NewRequester(rest.RequesterConfig{Token: "abc"})
	t.Cleanup(r.Close)
	c := cache.NewGuilds(r)
	return NewHandlers(c, r), c
}

func mustHandle(t *testing.T, h *Handlers, typ, d string) events.Event {
	t.Helper()
	ev, err := h.Handle(typ, []byte(d))
	if err != nil {
		t.Fatalf("Handle(%s) error = %v", typ, err)
	}
	return ev
}

const guildCreate = `{"id":"9","name":"Test","owner_id":"1","member_count":3,
	"roles":[{"id":"9","name":"@everyone","permissions":"0"}],
	"channels":[{"id":"5","type":0,"name":"general"}]}`

func TestHandlers_GuildCreateCaches(t *testing.T) {
	h, c := newTestHandlers(t)

	ev := mustHandle(t, h, events.TypeGuildCreate, guildCreate)
	joined, ok := ev.(*events.GuildJoined)
	if !ok {
		t.Fatalf("event = %T, want *GuildJoined", ev)
	}
	cached, ok := c.Get("9")
	if !ok {
		t.Fatal("guild not cached")
	}
	if cached != joined.Guild {
		t.Error("event guild is not the cached snapshot")
	}
	if cached.Name() != "Test" || cached.MemberCount() != 3 {
		t.Errorf("cached guild = %q/%d", cached.Name(), cached.MemberCount())
	}
	if ch, ok := cached.CachedChannel("5"); !ok || ch.GuildID != "9" {
		t.Errorf("channel 5 = %+v, %v", ch, ok)
	}
}

func TestHandlers_GuildDelete(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantEvent  bool
		wantCached bool
	}{
		{"left", `{"id":"9"}`, true, false},
		{"unavailable", `{"id":"9","unavailable":true}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, c := newTestHandlers(t)
			mustHandle(t, h, events.TypeGuildCreate, guildCreate)

			ev := mustHandle(t, h, events.TypeGuildDelete, tt.payload)
			if (ev != nil) != tt.wantEvent {
				t.Errorf("event = %v, want event %v", ev, tt.wantEvent)
			}
			if left, ok := ev.(*events.GuildLeft); ok && left.GuildID != "9" {
				t.Errorf("GuildID = %q", left.GuildID)
			}
			if _, ok := c.Get("9"); ok != tt.wantCached {
				t.Errorf("cached = %v, want %v", ok, tt.wantCached)
			}
		})
	}
}

func TestHandlers_ChannelEventsOnlyTouchCache(t *testing.T) {
	h, c := newTestHandlers(t)
	mustHandle(t, h, events.TypeGuildCreate, guildCreate)

	if ev := mustHandle(t, h, events.TypeChannelCreate, `{"id":"6","type":2,"guild_id":"9","name":"voice"}`); ev != nil {
		t.Errorf("CHANNEL_CREATE produced %T", ev)
	}
	g, _ := c.Get("9")
	if ch, ok := g.CachedChannel("6"); !ok || ch.Name != "voice" {
		t.Fatalf("channel 6 not cached")
	}

	mustHandle(t, h, events.TypeChannelUpdate, `{"id":"6","type":2,"guild_id":"9","name":"renamed"}`)
	g, _ = c.Get("9")
	if ch, _ := g.CachedChannel("6"); ch.Name != "renamed" {
		t.Errorf("channel name = %q, want renamed", ch.Name)
	}

	mustHandle(t, h, events.TypeChannelDelete, `{"id":"6","guild_id":"9"}`)
	g, _ = c.Get("9")
	if _, ok := g.CachedChannel("6"); ok {
		t.Error("channel 6 still cached after delete")
	}

	// Uncached guilds and private channels are ignored.
	mustHandle(t, h, events.TypeChannelCreate, `{"id":"7","type":0,"guild_id":"404"}`)
	mustHandle(t, h, events.TypeChannelCreate, `{"id":"8","type":1}`)
	if _, ok := c.Get("404"); ok {
		t.Error("channel event cached an unknown guild")
	}
}

func TestHandlers_Roles(t *testing.T) {
	h, c := newTestHandlers(t)
	mustHandle(t, h, events.TypeGuildCreate, guildCreate)

	ev := mustHandle(t, h, events.TypeRoleCreate, `{"guild_id":"9","role":{"id":"20","name":"mod","permissions":"2"}}`)
	created := ev.(*events.RoleCreated)
	if created.Role.Name != "mod" || created.Guild.ID() != "9" {
		t.Errorf("RoleCreated = %+v", created)
	}
	g, _ := c.Get("9")
	if _, ok := g.Role("20"); !ok {
		t.Fatal("role not cached")
	}

	if ev := mustHandle(t, h, events.TypeRoleUpdate, `{"guild_id":"9","role":{"id":"20","name":"admin","permissions":"8"}}`); ev != nil {
		t.Errorf("GUILD_ROLE_UPDATE produced %T", ev)
	}
	g, _ = c.Get("9")
	if r, _ := g.Role("20"); r.Name != "admin" {
		t.Errorf("role name = %q, want admin", r.Name)
	}

	deleted := mustHandle(t, h, events.TypeRoleDelete, `{"guild_id":"9","role_id":"20"}`).(*events.RoleDeleted)
	if deleted.RoleID != "20" {
		t.Errorf("RoleID = %q", deleted.RoleID)
	}
	g, _ = c.Get("9")
	if _, ok := g.Role("20"); ok {
		t.Error("role still cached after delete")
	}
}

func TestHandlers_Members(t *testing.T) {
	h, _ := newTestHandlers(t)

	joined := mustHandle(t, h, events.TypeMemberAdd,
		`{"guild_id":"9","user":{"id":"3","username":"c"},"roles":["20"],"nick":"cee"}`).(*events.MemberJoined)
	if joined.Member.ID() != "3" || joined.Member.Nick != "cee" {
		t.Errorf("MemberJoined member = %+v", joined.Member)
	}
	if joined.Guild == nil || !joined.Guild.IsStub() || joined.Member.Guild != joined.Guild {
		t.Error("member of an uncached guild should carry the stub guild")
	}

	updated := mustHandle(t, h, events.TypeMemberUpdate,
		`{"guild_id":"9","user":{"id":"3","username":"c"},"nick":"new"}`).(*events.MemberUpdated)
	if updated.UserID != "3" || updated.Nick != "new" {
		t.Errorf("MemberUpdated = %+v", updated)
	}

	left := mustHandle(t, h, events.TypeMemberRemove, `{"guild_id":"9","user":{"id":"3"}}`).(*events.MemberLeft)
	if left.UserID != "3" || left.Guild.ID() != "9" {
		t.Errorf("MemberLeft = %+v", left)
	}
}

func TestHandlers_Bans(t *testing.T) {
	h, _ := newTestHandlers(t)

	banned := mustHandle(t, h, events.TypeBanAdd, `{"guild_id":"9","user":{"id":"3"}}`).(*events.Banned)
	if banned.UserID != "3" || banned.GuildID != "9" {
		t.Errorf("Banned = %+v", banned)
	}
	unbanned := mustHandle(t, h, events.TypeBanRemove, `{"guild_id":"9","user":{"id":"3"}}`).(*events.Unbanned)
	if unbanned.UserID != "3" {
		t.Errorf("Unbanned = %+v", unbanned)
	}
}

func TestHandlers_Messages(t *testing.T) {
	h, c := newTestHandlers(t)
	mustHandle(t, h, events.TypeGuildCreate, guildCreate)

	updated := mustHandle(t, h, events.TypeMessageUpdate,
		`{"id":"10","channel_id":"5","guild_id":"9","content":"edited"}`).(*events.MessageUpdated)
	cached, _ := c.Get("9")
	if updated.Guild != cached || updated.Message.Content != "edited" {
		t.Errorf("MessageUpdated = %+v", updated)
	}

	deleted := mustHandle(t, h, events.TypeMessageDelete, `{"id":"10","channel_id":"5"}`).(*events.MessageDeleted)
	if deleted.Guild != nil || deleted.Channel() != nil {
		t.Error("private delete should have no guild or channel")
	}

	bulk := mustHandle(t, h, events.TypeMessageDeleteBulk,
		`{"ids":["1","","2"],"channel_id":"5","guild_id":"9"}`).(*events.MessageBulkDeleted)
	if len(bulk.MessageIDs) != 2 || bulk.Channel() == nil || bulk.Channel().Name != "general" {
		t.Errorf("MessageBulkDeleted = %+v", bulk)
	}
}

func TestHandlers_Reactions(t *testing.T) {
	h, _ := newTestHandlers(t)

	added := mustHandle(t, h, events.TypeReactionAdd,
		`{"user_id":"3","channel_id":"5","message_id":"10","guild_id":"9","emoji":{"name":"👍"},
		"member":{"user":{"id":"3","username":"c"}}}`).(*events.ReactionAdded)
	if added.EmojiName != "👍" || added.Member == nil || added.Member.ID() != "3" {
		t.Errorf("ReactionAdded = %+v", added)
	}

	removed := mustHandle(t, h, events.TypeReactionRemove,
		`{"user_id":"3","channel_id":"5","message_id":"10","emoji":{"name":"x"}}`).(*events.ReactionRemoved)
	if removed.Member != nil || removed.Guild != nil {
		t.Errorf("private ReactionRemoved = %+v", removed)
	}
}

func TestHandlers_Errors(t *testing.T) {
	h, _ := newTestHandlers(t)

	tests := []struct {
		name      string
		typ       string
		payload   string
		wantField string
		wantErr   error
	}{
		{"ready without user", events.TypeReady, `{"session_id":"s"}`, "user.id", nil},
		{"member without guild", events.TypeMemberAdd, `{"user":{"id":"3"}}`, "guild_id", nil},
		{"typing without channel", events.TypeTypingStart, `{"user_id":"3"}`, "channel_id", nil},
		{"role delete without role", events.TypeRoleDelete, `{"guild_id":"9"}`, "role_id", nil},
		{"null data", events.TypeMessageCreate, `null`, "", errNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := h.Handle(tt.typ, []byte(tt.payload))
			if ev != nil {
				t.Errorf("event = %T, want nil", ev)
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			var mf *MissingFieldError
			if !errors.As(err, &mf) || mf.Field != tt.wantField {
				t.Errorf("error = %v, want missing %q", err, tt.wantField)
			}
		})
	}
}

func TestHandlers_UnknownType(t *testing.T) {
	h, _ := newTestHandlers(t)

	ev, err := h.Handle("SOMETHING_NEW", []byte(`{}`))
	if ev != nil || err != nil {
		t.Errorf("Handle() = %v, %v, want nil, nil", ev, err)
	}
}
