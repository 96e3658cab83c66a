package relay

import (
	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

// MaxParticipants is the fixed capacity of every room.
const MaxParticipants = 4

// Sender delivers a server message to one client connection.
type Sender interface {
	Send(msg *protocol.ServerMessage)
}

// Participant is one player's identity within a room, paired with the
// connection used to reach it. Host marks the room's originating
// participant.
type Participant struct {
	ID   string
	Conn Sender
	Host bool
}

// Room holds a bounded set of participants and fans out membership
// notifications. All methods run on the relay goroutine.
type Room struct {
	ID           string
	participants map[string]*Participant
}

// NewRoom creates an empty room.
func NewRoom(id string) *Room {
	return &Room{
		ID:           id,
		participants: make(map[string]*Participant),
	}
}

// IsFull reports whether the room is at capacity.
func (r *Room) IsFull() bool {
	return len(r.participants) >= MaxParticipants
}

// Empty reports whether the room has no participants left.
func (r *Room) Empty() bool {
	return len(r.participants) == 0
}

// NumParticipants returns the current member count.
func (r *Room) NumParticipants() int {
	return len(r.participants)
}

// Participant looks up a member by id.
func (r *Room) Participant(id string) (*Participant, bool) {
	p, ok := r.participants[id]
	return p, ok
}

// ParticipantIDs returns the current member ids. The slice is never nil
// so an empty roster marshals as [] rather than null.
func (r *Room) ParticipantIDs() []string {
	ids := make([]string, 0, len(r.participants))
	for id := range r.participants {
		ids = append(ids, id)
	}
	return ids
}

// AddParticipant registers a new member. Existing members are told about
// the newcomer and the newcomer receives the pre-join roster, so it
// learns who is already present but never sees itself in the list.
// Duplicate ids and overflow are rejected without touching membership.
func (r *Room) AddParticipant(id string, conn Sender, host bool) error {
	if _, ok := r.participants[id]; ok {
		return ErrParticipantExists
	}
	if r.IsFull() {
		return ErrRoomFull
	}

	for _, p := range r.participants {
		p.Conn.Send(protocol.NewParticipant(id))
	}
	conn.Send(protocol.OK(protocol.CmdJoin, protocol.JoinData{Participants: r.ParticipantIDs()}))

	r.participants[id] = &Participant{ID: id, Conn: conn, Host: host}
	return nil
}

// RemoveParticipant drops a member if present and notifies every
// remaining member. Removing an absent id reports an error but the
// notification still goes out.
func (r *Room) RemoveParticipant(id string) error {
	_, found := r.participants[id]
	delete(r.participants, id)

	for _, p := range r.participants {
		p.Conn.Send(protocol.LeftParticipant(id))
	}

	if !found {
		return ErrParticipantMissing
	}
	return nil
}
