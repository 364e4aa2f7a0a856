// Package room groups the players sharing a maze seed and relays their
// positions to one another.
package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logger "github.com/beka-birhanu/vinom-maze/infrastruture/log"
	"github.com/beka-birhanu/vinom-maze/seed"
	"github.com/beka-birhanu/vinom-maze/service/i"
	"github.com/google/uuid"
)

const defaultPresenceTimeout = 500 * time.Millisecond

var ErrRegistryClosed = errors.New("room registry closed")

// Config holds the collaborators of a Registry. Every field is optional.
type Config struct {
	Logger          i.Logger
	Presence        i.Presence    // occupancy index updated on every join and leave
	PresenceTimeout time.Duration // deadline of a single presence update
}

// Registry maps seeds to their live room. Rooms are created on first use
// and evicted the moment they empty. A server owns one registry; separate
// registries share nothing.
type Registry struct {
	rooms           map[string]*Room
	logger          i.Logger
	presence        i.Presence
	presenceTimeout time.Duration
	closed          bool
	sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry(c *Config) *Registry {
	if c == nil {
		c = &Config{}
	}

	g := &Registry{
		rooms:           make(map[string]*Room),
		logger:          c.Logger,
		presence:        c.Presence,
		presenceTimeout: c.PresenceTimeout,
	}

	if g.logger == nil {
		g.logger = logger.Discard()
	}
	if g.presenceTimeout <= 0 {
		g.presenceTimeout = defaultPresenceTimeout
	}
	return g
}

// GetOrCreate returns the live room of a seed, creating it if needed.
// Concurrent callers for the same seed all get the same room.
func (g *Registry) GetOrCreate(s string) *Room {
	s = seed.Canonicalize(s)

	g.Lock()
	defer g.Unlock()
	return g.getOrCreateLocked(s)
}

func (g *Registry) getOrCreateLocked(s string) *Room {
	if r, ok := g.rooms[s]; ok && !r.Destroyed() {
		return r
	}

	r := newRoom(s, g.logger, g.left)
	g.rooms[s] = r
	return r
}

// Join adds a member holding conn to the room of a seed.
func (g *Registry) Join(s string, conn Conn) (*Room, *Member, error) {
	s = seed.Canonicalize(s)

	for {
		g.Lock()
		if g.closed {
			g.Unlock()
			return nil, nil, ErrRegistryClosed
		}
		r := g.getOrCreateLocked(s)
		g.Unlock()

		m, err := r.join(conn)
		if errors.Is(err, ErrRoomDestroyed) {
			// The last member left between lookup and join; the next
			// lookup replaces the room.
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		g.track(s, i.Presence.Joined)
		g.logger.Info(fmt.Sprintf("member %s joined room %s", m.ID, s))
		return r, m, nil
	}
}

// Lookup returns the live room of a seed, if any.
func (g *Registry) Lookup(s string) (*Room, bool) {
	s = seed.Canonicalize(s)

	g.Lock()
	defer g.Unlock()
	r, ok := g.rooms[s]
	if !ok || r.Destroyed() {
		return nil, false
	}
	return r, true
}

// Evict removes the room of a seed if it has no members.
func (g *Registry) Evict(s string) {
	s = seed.Canonicalize(s)

	g.Lock()
	defer g.Unlock()
	r, ok := g.rooms[s]
	if !ok || r.Len() > 0 {
		return
	}
	r.close()
	delete(g.rooms, s)
}

// Len returns the number of live rooms.
func (g *Registry) Len() int {
	g.Lock()
	defer g.Unlock()
	return len(g.rooms)
}

// Close destroys every room and closes every member connection.
// Joins after Close fail with ErrRegistryClosed.
func (g *Registry) Close() {
	g.Lock()
	rooms := g.rooms
	g.rooms = make(map[string]*Room)
	g.closed = true
	g.Unlock()

	for s, r := range rooms {
		for _, m := range r.close() {
			_ = m.conn.Close()
			g.track(s, i.Presence.Left)
		}
	}
	g.logger.Info(fmt.Sprintf("closed %d rooms", len(rooms)))
}

// left runs after every departure from a room of this registry.
func (g *Registry) left(r *Room, id uuid.UUID, empty bool) {
	g.track(r.seed, i.Presence.Left)
	g.logger.Info(fmt.Sprintf("member %s left room %s", id, r.seed))
	if !empty {
		return
	}

	g.Lock()
	if g.rooms[r.seed] == r {
		delete(g.rooms, r.seed)
	}
	g.Unlock()
	g.logger.Info(fmt.Sprintf("evicted empty room %s", r.seed))
}

func (g *Registry) track(s string, update func(i.Presence, context.Context, string) error) {
	if g.presence == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), g.presenceTimeout)
	defer cancel()
	if err := update(g.presence, ctx, s); err != nil {
		g.logger.Error(fmt.Sprintf("updating presence of %s: %s", s, err))
	}
}
