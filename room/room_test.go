package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/beka-birhanu/vinom-maze/protocol"
	"github.com/beka-birhanu/vinom-maze/service/i"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotWritable = errors.New("connection not writable")

type fakeConn struct {
	mu       sync.Mutex
	sent     [][]byte
	closed   int
	sendFail bool
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendFail {
		return errNotWritable
	}
	c.sent = append(c.sent, payload)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.sent))
	for _, raw := range c.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakePresence struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakePresence() *fakePresence {
	return &fakePresence{counts: make(map[string]int64)}
}

func (p *fakePresence) Joined(_ context.Context, seed string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[seed]++
	return nil
}

func (p *fakePresence) Left(_ context.Context, seed string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[seed]--
	return nil
}

func (p *fakePresence) Busiest(context.Context, int64) ([]i.SeedCount, error) {
	return nil, nil
}

func (p *fakePresence) count(seed string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[seed]
}

const testSeed = "0000000000000abc"

type joined struct {
	room   *Room
	member *Member
	conn   *fakeConn
}

func joinN(t *testing.T, g *Registry, seed string, n int) []joined {
	t.Helper()
	out := make([]joined, 0, n)
	for range n {
		conn := &fakeConn{}
		r, m, err := g.Join(seed, conn)
		require.NoError(t, err)
		out = append(out, joined{room: r, member: m, conn: conn})
	}
	return out
}

func TestRelay(t *testing.T) {
	t.Run("position reaches every member but the sender", func(t *testing.T) {
		g := NewRegistry(nil)
		members := joinN(t, g, testSeed, 3)
		a, b, c := members[0], members[1], members[2]
		require.Same(t, a.room, b.room)
		require.Same(t, a.room, c.room)

		err := a.room.Handle(a.member.ID, []byte(`{"type":"sync-pos","x":10,"y":20}`))
		require.NoError(t, err)

		want := map[string]any{"id": a.member.ID.String(), "type": "sync-pos", "x": 10.0, "y": 20.0}
		assert.Equal(t, []map[string]any{want}, b.conn.messages(t))
		assert.Equal(t, []map[string]any{want}, c.conn.messages(t))
		assert.Empty(t, a.conn.messages(t))

		pos, ok := a.room.Position(a.member.ID)
		assert.True(t, ok)
		assert.Equal(t, protocol.SyncPos{X: 10, Y: 20}, pos)
	})

	t.Run("a failing member does not affect the others", func(t *testing.T) {
		g := NewRegistry(nil)
		members := joinN(t, g, testSeed, 3)
		a, b, c := members[0], members[1], members[2]
		b.conn.sendFail = true

		d, err := a.room.Relay(a.member.ID, protocol.SyncPos{X: 1, Y: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, d.Sent)
		assert.Equal(t, []uuid.UUID{b.member.ID}, d.Dropped)
		assert.Len(t, c.conn.messages(t), 1)
		assert.Equal(t, 3, a.room.Len())
		assert.Zero(t, b.conn.closeCount())
	})

	t.Run("sender must be a member", func(t *testing.T) {
		g := NewRegistry(nil)
		members := joinN(t, g, testSeed, 2)

		_, err := members[0].room.Relay(uuid.New(), protocol.SyncPos{})
		assert.ErrorIs(t, err, ErrMemberNotFound)
		assert.Empty(t, members[1].conn.messages(t))
	})

	t.Run("new members receive the last known positions", func(t *testing.T) {
		g := NewRegistry(nil)
		members := joinN(t, g, testSeed, 2)
		a := members[0]
		require.NoError(t, a.room.Handle(a.member.ID, []byte(`{"type":"sync-pos","x":1,"y":2}`)))
		require.NoError(t, a.room.Handle(a.member.ID, []byte(`{"type":"sync-pos","x":3,"y":4}`)))

		late := joinN(t, g, testSeed, 1)[0]
		assert.Equal(t, []map[string]any{
			{"id": a.member.ID.String(), "type": "sync-pos", "x": 3.0, "y": 4.0},
		}, late.conn.messages(t))
	})
}

func TestLeave(t *testing.T) {
	t.Run("exit and disconnect evict the room", func(t *testing.T) {
		presence := newFakePresence()
		g := NewRegistry(&Config{Presence: presence})
		members := joinN(t, g, testSeed, 3)
		a, b, c := members[0], members[1], members[2]
		room := a.room
		assert.Equal(t, int64(3), presence.count(testSeed))

		err := a.room.Handle(a.member.ID, []byte(`{"type":"exit"}`))
		assert.ErrorIs(t, err, ErrExited)
		exitA := map[string]any{"id": a.member.ID.String(), "type": "exit"}
		assert.Equal(t, []map[string]any{exitA}, b.conn.messages(t))
		assert.Equal(t, []map[string]any{exitA}, c.conn.messages(t))

		assert.True(t, room.Leave(b.member.ID))
		assert.Equal(t, 1, g.Len())
		assert.True(t, room.Leave(c.member.ID))

		assert.True(t, room.Destroyed())
		assert.Zero(t, g.Len())
		_, ok := g.Lookup(testSeed)
		assert.False(t, ok)
		assert.Zero(t, presence.count(testSeed))

		fresh := g.GetOrCreate(testSeed)
		assert.NotSame(t, room, fresh)
		assert.Zero(t, fresh.Len())
		assert.False(t, fresh.Destroyed())
	})

	t.Run("leaving twice notifies once", func(t *testing.T) {
		g := NewRegistry(nil)
		members := joinN(t, g, testSeed, 2)
		a, b := members[0], members[1]

		assert.True(t, a.room.Leave(a.member.ID))
		assert.False(t, a.room.Leave(a.member.ID))
		assert.Len(t, b.conn.messages(t), 1)
		assert.Equal(t, 1, a.room.Len())
	})

	t.Run("a destroyed room is not reused", func(t *testing.T) {
		g := NewRegistry(nil)
		first := joinN(t, g, testSeed, 1)[0]
		first.room.Leave(first.member.ID)

		second := joinN(t, g, testSeed, 1)[0]
		assert.NotSame(t, first.room, second.room)
		assert.Equal(t, 1, second.room.Len())
		assert.Empty(t, second.conn.messages(t))
	})
}

func TestProtocolViolation(t *testing.T) {
	g := NewRegistry(nil)
	members := joinN(t, g, testSeed, 3)
	a, b, c := members[0], members[1], members[2]

	err := a.room.Handle(a.member.ID, []byte(`{"type":"sync-pos","x":"a"}`))
	assert.ErrorIs(t, err, protocol.ErrViolation)

	assert.Equal(t, 1, a.conn.closeCount())
	assert.Zero(t, b.conn.closeCount())
	assert.Zero(t, c.conn.closeCount())
	assert.Equal(t, 2, a.room.Len())
	assert.False(t, a.room.Destroyed())

	exitA := map[string]any{"id": a.member.ID.String(), "type": "exit"}
	assert.Equal(t, []map[string]any{exitA}, b.conn.messages(t))

	require.NoError(t, b.room.Handle(b.member.ID, []byte(`{"type":"sync-pos","x":5,"y":6}`)))
	assert.Len(t, c.conn.messages(t), 2)
	assert.Empty(t, a.conn.messages(t))
}

func TestRegistry(t *testing.T) {
	t.Run("concurrent first access converges on one room", func(t *testing.T) {
		g := NewRegistry(nil)
		const n = 64
		rooms := make([]*Room, n)
		var wg sync.WaitGroup
		for k := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rooms[k] = g.GetOrCreate(testSeed)
			}()
		}
		wg.Wait()

		for _, r := range rooms {
			assert.Same(t, rooms[0], r)
		}
		assert.Equal(t, 1, g.Len())
	})

	t.Run("concurrent joins get distinct ids in one room", func(t *testing.T) {
		g := NewRegistry(nil)
		const n = 50
		ids := make([]uuid.UUID, n)
		var wg sync.WaitGroup
		for k := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, m, err := g.Join(testSeed, &fakeConn{})
				assert.NoError(t, err)
				ids[k] = m.ID
			}()
		}
		wg.Wait()

		r, ok := g.Lookup(testSeed)
		require.True(t, ok)
		assert.Equal(t, n, r.Len())
		seen := make(map[uuid.UUID]struct{}, n)
		for _, id := range ids {
			seen[id] = struct{}{}
		}
		assert.Len(t, seen, n)
	})

	t.Run("join and leave churn leaves no room behind", func(t *testing.T) {
		g := NewRegistry(nil)
		var wg sync.WaitGroup
		for k := range 40 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := fmt.Sprintf("%016d", k%3)
				for range 25 {
					r, m, err := g.Join(s, &fakeConn{})
					if !assert.NoError(t, err) {
						return
					}
					r.Leave(m.ID)
				}
			}()
		}
		wg.Wait()
		assert.Zero(t, g.Len())
	})

	t.Run("seeds are canonicalized", func(t *testing.T) {
		g := NewRegistry(nil)
		r, _, err := g.Join("abc", &fakeConn{})
		require.NoError(t, err)

		found, ok := g.Lookup(testSeed)
		require.True(t, ok)
		assert.Same(t, r, found)
		assert.Equal(t, testSeed, r.Seed())
	})

	t.Run("registries are independent", func(t *testing.T) {
		g1, g2 := NewRegistry(nil), NewRegistry(nil)
		a := joinN(t, g1, testSeed, 1)[0]
		b := joinN(t, g2, testSeed, 1)[0]

		assert.NotSame(t, a.room, b.room)
		require.NoError(t, a.room.Handle(a.member.ID, []byte(`{"type":"sync-pos","x":1,"y":1}`)))
		assert.Empty(t, b.conn.messages(t))
	})

	t.Run("evict only removes empty rooms", func(t *testing.T) {
		g := NewRegistry(nil)
		g.GetOrCreate("0000000000000001")
		joinN(t, g, "0000000000000002", 1)

		g.Evict("0000000000000001")
		g.Evict("0000000000000002")
		_, ok := g.Lookup("0000000000000001")
		assert.False(t, ok)
		_, ok = g.Lookup("0000000000000002")
		assert.True(t, ok)
	})

	t.Run("close disconnects everyone", func(t *testing.T) {
		presence := newFakePresence()
		g := NewRegistry(&Config{Presence: presence})
		members := joinN(t, g, testSeed, 2)
		other := joinN(t, g, "0000000000000def", 1)

		g.Close()
		for _, j := range append(members, other...) {
			assert.Equal(t, 1, j.conn.closeCount())
			assert.True(t, j.room.Destroyed())
		}
		assert.Zero(t, g.Len())
		assert.Zero(t, presence.count(testSeed))

		_, _, err := g.Join(testSeed, &fakeConn{})
		assert.ErrorIs(t, err, ErrRegistryClosed)

		// Late disconnects after shutdown are harmless.
		assert.False(t, members[0].room.Leave(members[0].member.ID))
	})
}
