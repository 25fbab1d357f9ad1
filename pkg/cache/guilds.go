// Package cache keeps the most recently observed guild snapshots.
package cache

import (
	csmap "github.com/mhmtszr/concurrent-swiss-map"

	"github.com/why-shiro/J4Fluxer/pkg/entity"
	"github.com/why-shiro/J4Fluxer/pkg/rest"
)

const shardCount = 32

// Guilds maps guild ids to snapshots. It is unbounded and never evicts;
// the last write wins. All methods are safe for concurrent use.
type Guilds struct {
	m         *csmap.CsMap[string, *entity.Guild]
	requester *rest.Requester
}

// NewGuilds creates an empty cache. r is used to build stubs.
func NewGuilds(r *rest.Requester) *Guilds {
	return &Guilds{
		m: csmap.Create[string, *entity.Guild](
			csmap.WithShardCount[string, *entity.Guild](shardCount),
		),
		requester: r,
	}
}

// Get returns the cached snapshot for id.
func (c *Guilds) Get(id string) (*entity.Guild, bool) {
	return c.m.Load(id)
}

// GetOrStub returns the cached snapshot, or a stub when id is not cached.
// The stub is not stored.
func (c *Guilds) GetOrStub(id string) *entity.Guild {
	if g, ok := c.m.Load(id); ok {
		return g
	}
	return c.Stub(id)
}

// Put stores g unconditionally.
func (c *Guilds) Put(g *entity.Guild) {
	c.m.Store(g.ID(), g)
}

// Stub returns an id-only guild that can issue commands.
func (c *Guilds) Stub(id string) *entity.Guild {
	return entity.StubGuild(id, c.requester)
}

// Delete drops id and reports whether it was cached.
func (c *Guilds) Delete(id string) bool {
	return c.m.Delete(id)
}

// Len returns the number of cached guilds.
func (c *Guilds) Len() int {
	return c.m.Count()
}

// Range calls fn for each cached guild until fn returns false.
func (c *Guilds) Range(fn func(g *entity.Guild) bool) {
	c.m.Range(func(_ string, g *entity.Guild) bool {
		return !fn(g)
	})
}

// update atomically replaces a cached guild with fn(guild). Nothing
// happens when id is not cached.
func (c *Guilds) update(id string, fn func(*entity.Guild) *entity.Guild) bool {
	applied := false
	c.m.SetIf(id, func(prev *entity.Guild, found bool) (*entity.Guild, bool) {
		if !found {
			return nil, false
		}
		applied = true
		return fn(prev), true
	})
	return applied
}

// UpsertChannel adds or replaces a channel in a cached guild.
func (c *Guilds) UpsertChannel(guildID string, ch *entity.Channel) bool {
	return c.update(guildID, func(g *entity.Guild) *entity.Guild {
		return g.WithChannel(ch)
	})
}

// RemoveChannel drops a channel from a cached guild.
func (c *Guilds) RemoveChannel(guildID, channelID string) bool {
	return c.update(guildID, func(g *entity.Guild) *entity.Guild {
		return g.WithoutChannel(channelID)
	})
}

// UpsertRole adds or replaces a role in a cached guild.
func (c *Guilds) UpsertRole(guildID string, r *entity.Role) bool {
	return c.update(guildID, func(g *entity.Guild) *entity.Guild {
		return g.WithRole(r)
	})
}

// RemoveRole drops a role from a cached guild.
func (c *Guilds) RemoveRole(guildID, roleID string) bool {
	return c.update(guildID, func(g *entity.Guild) *entity.Guild {
		return g.WithoutRole(roleID)
	})
}
