package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/why-shiro/J4Fluxer/pkg/entity"
)

func TestGuilds_PutGet(t *testing.T) {
	c := NewGuilds(nil)
	g := entity.NewGuild(entity.GuildData{ID: "9", Name: "first"}, nil)

	c.Put(g)
	got, ok := c.Get("9")
	if !ok || got != g {
		t.Fatalf("Get(9) = %v, %v", got, ok)
	}

	// Last write wins.
	g2 := entity.NewGuild(entity.GuildData{ID: "9", Name: "second"}, nil)
	c.Put(g2)
	if got, _ := c.Get("9"); got.Name() != "second" {
		t.Errorf("Name() = %q, want second", got.Name())
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGuilds_Unknown(t *testing.T) {
	c := NewGuilds(nil)

	if _, ok := c.Get("404"); ok {
		t.Error("Get(unknown) reported present")
	}

	s := c.GetOrStub("404")
	if s == nil || s.ID() != "404" || !s.IsStub() {
		t.Fatalf("GetOrStub() = %+v", s)
	}
	if c.Len() != 0 {
		t.Error("stub was stored")
	}
}

func TestGuilds_Delete(t *testing.T) {
	c := NewGuilds(nil)
	c.Put(entity.StubGuild("1", nil))

	if !c.Delete("1") {
		t.Error("Delete(1) = false")
	}
	if c.Delete("1") {
		t.Error("second Delete(1) = true")
	}
}

func TestGuilds_ChannelUpdates(t *testing.T) {
	c := NewGuilds(nil)
	c.Put(entity.NewGuild(entity.GuildData{ID: "9"}, nil))

	ch := entity.NewChannel(entity.ChannelData{ID: "5", Name: "general"}, "9", nil)
	if !c.UpsertChannel("9", ch) {
		t.Fatal("UpsertChannel on cached guild = false")
	}
	g, _ := c.Get("9")
	if got, ok := g.CachedChannel("5"); !ok || got.Name != "general" {
		t.Errorf("channel not applied: %v", got)
	}

	if c.UpsertChannel("missing", ch) {
		t.Error("UpsertChannel on uncached guild = true")
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("UpsertChannel created a guild")
	}

	c.RemoveChannel("9", "5")
	g, _ = c.Get("9")
	if _, ok := g.CachedChannel("5"); ok {
		t.Error("RemoveChannel did not remove")
	}
}

func TestGuilds_RoleUpdates(t *testing.T) {
	c := NewGuilds(nil)
	c.Put(entity.NewGuild(entity.GuildData{ID: "9"}, nil))

	c.UpsertRole("9", &entity.Role{ID: "r1", Name: "mod"})
	g, _ := c.Get("9")
	if _, ok := g.Role("r1"); !ok {
		t.Fatal("UpsertRole did not add")
	}
	c.RemoveRole("9", "r1")
	g, _ = c.Get("9")
	if _, ok := g.Role("r1"); ok {
		t.Error("RemoveRole did not remove")
	}
}

func TestGuilds_ConcurrentUpserts(t *testing.T) {
	c := NewGuilds(nil)
	c.Put(entity.NewGuild(entity.GuildData{ID: "9"}, nil))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprint(i)
			c.UpsertChannel("9", entity.NewChannel(entity.ChannelData{ID: id}, "9", nil))
		}(i)
	}
	wg.Wait()

	g, _ := c.Get("9")
	if n := len(g.Channels()); n != 50 {
		t.Errorf("channels = %d, want 50", n)
	}
}

func TestGuilds_Range(t *testing.T) {
	c := NewGuilds(nil)
	for i := 0; i < 5; i++ {
		c.Put(entity.StubGuild(fmt.Sprint(i), nil))
	}

	seen := 0
	c.Range(func(*entity.Guild) bool {
		seen++
		return true
	})
	if seen != 5 {
		t.Errorf("Range visited %d, want 5", seen)
	}

	seen = 0
	c.Range(func(*entity.Guild) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("Range after stop visited %d, want 1", seen)
	}
}
