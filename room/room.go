package room

import (
	"errors"
	"fmt"
	"sync"

	"github.com/beka-birhanu/vinom-maze/protocol"
	"github.com/beka-birhanu/vinom-maze/service/i"
	"github.com/google/uuid"
)

// Room errors.
var (
	ErrRoomDestroyed  = errors.New("room destroyed")
	ErrExited         = errors.New("member exited")
	ErrMemberNotFound = errors.New("member not found")
)

// Conn is the transport side of a member. The room borrows it: it sends on
// it and closes it on a protocol violation, but never owns its lifetime.
type Conn interface {
	// Send hands payload to the member's connection. It must not block; a
	// connection that cannot take the payload right now returns an error.
	Send(payload []byte) error

	// Close tears down the connection. Calling it more than once is allowed.
	Close() error
}

// Member is one participant of a room.
type Member struct {
	ID   uuid.UUID
	conn Conn
	pos  *protocol.SyncPos // last reported position, nil until the first sync-pos
}

// Delivery reports how one relayed message fanned out.
type Delivery struct {
	Sent    int
	Dropped []uuid.UUID
}

// leaveHook runs after a member left, outside the room lock. empty is true
// when the room was destroyed by that departure.
type leaveHook func(r *Room, id uuid.UUID, empty bool)

// Room relays position and exit messages between the members sharing a seed.
// A room is active while it has members and destroyed, for good, once the
// last one leaves.
type Room struct {
	seed      string
	members   map[uuid.UUID]*Member
	destroyed bool
	onLeave   leaveHook
	logger    i.Logger
	sync.RWMutex
}

func newRoom(seed string, logger i.Logger, onLeave leaveHook) *Room {
	return &Room{
		seed:    seed,
		members: make(map[uuid.UUID]*Member),
		onLeave: onLeave,
		logger:  logger,
	}
}

// Seed returns the canonical seed the room is keyed by.
func (r *Room) Seed() string {
	return r.seed
}

// Len returns the number of members.
func (r *Room) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.members)
}

// Destroyed reports whether the room emptied and was retired.
func (r *Room) Destroyed() bool {
	r.RLock()
	defer r.RUnlock()
	return r.destroyed
}

// Position returns the last position reported by a member.
func (r *Room) Position(id uuid.UUID) (protocol.SyncPos, bool) {
	r.RLock()
	defer r.RUnlock()
	m, ok := r.members[id]
	if !ok || m.pos == nil {
		return protocol.SyncPos{}, false
	}
	return *m.pos, true
}

// join adds a member with a fresh id. The newcomer is sent the last known
// position of every member that reported one; nobody else is notified.
func (r *Room) join(conn Conn) (*Member, error) {
	r.Lock()
	defer r.Unlock()
	if r.destroyed {
		return nil, ErrRoomDestroyed
	}

	id := uuid.New()
	for {
		if _, taken := r.members[id]; !taken {
			break
		}
		id = uuid.New()
	}

	m := &Member{ID: id, conn: conn}
	for _, other := range r.members {
		if other.pos == nil {
			continue
		}
		payload, err := protocol.Encode(other.ID, *other.pos)
		if err != nil {
			continue
		}
		if err := conn.Send(payload); err != nil {
			r.logger.Warning(fmt.Sprintf("replaying positions to new member in room %s: %s", r.seed, err))
			break
		}
	}

	r.members[id] = m
	return m, nil
}

// Leave removes a member and tells the remaining members it exited. The
// last member leaving destroys the room. Leaving twice is a no-op; the
// return value reports whether the member was present.
func (r *Room) Leave(id uuid.UUID) bool {
	r.Lock()
	if _, ok := r.members[id]; !ok {
		r.Unlock()
		return false
	}

	delete(r.members, id)
	recipients := r.recipientsLocked(id)
	empty := len(r.members) == 0
	if empty {
		r.destroyed = true
	}
	r.Unlock()

	if payload, err := protocol.Encode(id, protocol.Exit{}); err == nil {
		r.deliver(id, payload, recipients)
	}

	if r.onLeave != nil {
		r.onLeave(r, id, empty)
	}
	return true
}

// Relay sends msg to every member except the sender, tagged with the
// sender's id. The id always comes from the room, never from the payload.
//
// Delivery is best-effort and at-most-once per member: a member whose
// connection refuses the payload is skipped for this message only, the
// others still get it, and the failure only shows up in Delivery.Dropped.
// The room lock is not held while sending.
func (r *Room) Relay(sender uuid.UUID, msg protocol.Message) (Delivery, error) {
	payload, err := protocol.Encode(sender, msg)
	if err != nil {
		return Delivery{}, err
	}

	r.Lock()
	m, ok := r.members[sender]
	if !ok {
		r.Unlock()
		return Delivery{}, ErrMemberNotFound
	}
	if pos, ok := msg.(protocol.SyncPos); ok {
		m.pos = &pos
	}
	recipients := r.recipientsLocked(sender)
	r.Unlock()

	return r.deliver(sender, payload, recipients), nil
}

// Handle processes one raw inbound payload from a member.
//
// A payload that is not a valid message closes the member's connection and
// removes it from the room, returning an error wrapping protocol.ErrViolation.
// An exit removes the member and returns ErrExited. A position is relayed.
func (r *Room) Handle(id uuid.UUID, payload []byte) error {
	msg, err := protocol.Parse(payload)
	if err != nil {
		r.logger.Warning(fmt.Sprintf("closing member %s of room %s: %s", id, r.seed, err))
		r.drop(id)
		return err
	}

	switch msg.(type) {
	case protocol.Exit:
		r.Leave(id)
		return ErrExited
	default:
		_, err := r.Relay(id, msg)
		return err
	}
}

// drop closes the member's connection and removes it.
func (r *Room) drop(id uuid.UUID) {
	r.RLock()
	m, ok := r.members[id]
	r.RUnlock()
	if ok {
		_ = m.conn.Close()
	}
	r.Leave(id)
}

// close destroys the room and returns the members it had.
func (r *Room) close() []*Member {
	r.Lock()
	defer r.Unlock()
	r.destroyed = true
	members := make([]*Member, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, m)
	}
	clear(r.members)
	return members
}

func (r *Room) recipientsLocked(except uuid.UUID) []*Member {
	recipients := make([]*Member, 0, len(r.members))
	for id, m := range r.members {
		if id != except {
			recipients = append(recipients, m)
		}
	}
	return recipients
}

func (r *Room) deliver(from uuid.UUID, payload []byte, to []*Member) Delivery {
	var d Delivery
	for _, m := range to {
		if err := m.conn.Send(payload); err != nil {
			d.Dropped = append(d.Dropped, m.ID)
			r.logger.Warning(fmt.Sprintf("dropped message from %s to %s in room %s: %s", from, m.ID, r.seed, err))
			continue
		}
		d.Sent++
	}
	return d
}
