package netplay

import "encoding/json"

// Event is a tagged room/network notification delivered on the
// manager's event channel. Each variant corresponds to one asynchronous
// outcome; consumers switch on the concrete type.
type Event interface {
	isEvent()
}

// RoomCreated reports the server-assigned room id.
type RoomCreated struct {
	RoomID string
}

// CreateFailed reports a rejected create with the server's reason.
type CreateFailed struct {
	Reason string
}

// RoomJoined reports a successful join. Participants lists the members
// already present, never the local player.
type RoomJoined struct {
	RoomID       string
	PlayerID     string
	Participants []string
}

// JoinFailed reports a rejected join with the server's reason.
type JoinFailed struct {
	Reason string
}

// ParticipantJoined announces a new player in the room. That player
// will call us; no connection exists yet.
type ParticipantJoined struct {
	ID string
}

// ParticipantLeft announces a departed player.
type ParticipantLeft struct {
	ID string
}

// PeerConnected reports an open data channel to the named peer.
type PeerConnected struct {
	ID string
}

// PeerDisconnected reports a closed data channel.
type PeerDisconnected struct {
	ID string
}

// UpdateReceived carries one opaque game-state update from a peer.
type UpdateReceived struct {
	From   string
	Action string
	Data   json.RawMessage
}

func (RoomCreated) isEvent()       {}
func (CreateFailed) isEvent()      {}
func (RoomJoined) isEvent()        {}
func (JoinFailed) isEvent()        {}
func (ParticipantJoined) isEvent() {}
func (ParticipantLeft) isEvent()   {}
func (PeerConnected) isEvent()     {}
func (PeerDisconnected) isEvent()  {}
func (UpdateReceived) isEvent()    {}
