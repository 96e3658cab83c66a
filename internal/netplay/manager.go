// Package netplay owns the client side of the multiplayer session: the
// signaling socket, the roster of remote participants, and the fan-out
// of game-state updates over peer data channels.
package netplay

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dbaldassi/nocturna-sub000/internal/config"
	"github.com/dbaldassi/nocturna-sub000/internal/peer"
	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

// Participant is what the manager needs from a remote peer. The
// concrete implementation is peer.RemoteParticipant.
type Participant interface {
	ID() string
	Call() error
	Answer(offer json.RawMessage) error
	HandleAnswer(answer json.RawMessage)
	AddICECandidate(candidate json.RawMessage)
	Send(senderID, action string, data any) error
	Close()
}

const eventBuffer = 64

// Manager drives one multiplayer session. Construct it once at
// application start and pass it to whatever needs it; there is no
// hidden global instance. One signaling socket lives per manager and is
// not reconstructed after Close.
type Manager struct {
	transport Transport

	// eventMu orders emit against the channel close in Run: peer
	// callbacks arrive on pion goroutines and may outlive the socket.
	eventMu sync.Mutex
	events  chan Event
	closed  bool

	mu       sync.Mutex
	roomID   string
	playerID string
	peers    []Participant

	// newPeer is swapped out by tests.
	newPeer func(id string) Participant
}

// New builds a manager over an already-connected transport.
func New(cfg *config.Config, transport Transport) *Manager {
	m := &Manager{
		transport: transport,
		events:    make(chan Event, eventBuffer),
	}
	m.newPeer = func(id string) Participant {
		return peer.NewRemoteParticipant(id, cfg, m, m)
	}
	return m
}

// Dial connects to the configured signaling server and starts the
// dispatch loop.
func Dial(cfg *config.Config) (*Manager, error) {
	socket := NewSocket(cfg.WebSocketURL)
	if err := socket.Connect(); err != nil {
		return nil, err
	}

	m := New(cfg, socket)
	go m.Run()
	return m, nil
}

// Run consumes server messages until the transport closes. Each message
// is handled to completion before the next, so roster mutations never
// interleave.
func (m *Manager) Run() {
	for msg := range m.transport.Incoming() {
		m.dispatch(msg)
	}

	m.eventMu.Lock()
	m.closed = true
	close(m.events)
	m.eventMu.Unlock()
}

// Events returns the channel session events are delivered on.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// RoomID returns the current room id, if any.
func (m *Manager) RoomID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomID
}

// PlayerID returns the local player id, if any.
func (m *Manager) PlayerID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerID
}

// Peers lists the known remote participant ids.
func (m *Manager) Peers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.peers))
	for i, p := range m.peers {
		ids[i] = p.ID()
	}
	return ids
}

// CreateRoom asks the server for a fresh room.
func (m *Manager) CreateRoom() {
	m.transport.Send(&protocol.ClientMessage{Cmd: protocol.CmdCreate})
}

// JoinRoom asks to join roomID as playerID. Both are remembered for
// composing outgoing updates.
func (m *Manager) JoinRoom(roomID, playerID string) {
	m.mu.Lock()
	m.roomID = roomID
	m.playerID = playerID
	m.mu.Unlock()

	m.transport.Send(&protocol.ClientMessage{
		Cmd:      protocol.CmdJoin,
		RoomID:   roomID,
		PlayerID: playerID,
	})
}

// Leave tells the server to drop us from the current room.
func (m *Manager) Leave() {
	m.transport.Send(&protocol.ClientMessage{Cmd: protocol.CmdLeave})
}

// DeleteRoom asks the server to delete the named room.
func (m *Manager) DeleteRoom(roomID string) {
	m.transport.Send(&protocol.ClientMessage{Cmd: protocol.CmdDelete, ID: roomID})
}

// SendUpdate broadcasts one action/payload to every known peer's data
// channel. Peers without an open channel drop it.
func (m *Manager) SendUpdate(action string, data any) {
	m.mu.Lock()
	sender := m.playerID
	peers := make([]Participant, len(m.peers))
	copy(peers, m.peers)
	m.mu.Unlock()

	for _, p := range peers {
		if err := p.Send(sender, action, data); err != nil {
			slog.Debug("update not delivered", "peer", p.ID(), "action", action, "err", err)
		}
	}
}

// Close tears down every peer connection and the signaling socket.
func (m *Manager) Close() {
	m.mu.Lock()
	peers := m.peers
	m.peers = nil
	m.mu.Unlock()

	for _, p := range peers {
		p.Close()
	}
	m.transport.Close()
}

func (m *Manager) dispatch(msg *protocol.ServerMessage) {
	switch msg.Cmd {
	case protocol.CmdCreate:
		m.handleCreateReply(msg)
	case protocol.CmdJoin:
		m.handleJoinReply(msg)
	case protocol.CmdNewParticipant:
		m.addPeer(msg.ID)
		m.emit(ParticipantJoined{ID: msg.ID})
	case protocol.CmdLeftParticipant:
		m.removePeer(msg.ID)
		m.emit(ParticipantLeft{ID: msg.ID})
	case protocol.CmdCall:
		if p, ok := m.peerByID(msg.RemoteID); ok {
			if err := p.Answer(msg.Offer); err != nil {
				slog.Warn("answer failed", "peer", msg.RemoteID, "err", err)
			}
		} else {
			slog.Warn("call from unknown participant", "peer", msg.RemoteID)
		}
	case protocol.CmdAnswer:
		if p, ok := m.peerByID(msg.RemoteID); ok {
			p.HandleAnswer(msg.Answer)
		} else {
			slog.Warn("answer from unknown participant", "peer", msg.RemoteID)
		}
	case protocol.CmdICECandidate:
		if p, ok := m.peerByID(msg.RemoteID); ok {
			p.AddICECandidate(msg.Candidate)
		} else {
			slog.Warn("ICE candidate from unknown participant", "peer", msg.RemoteID)
		}
	default:
		slog.Debug("unhandled signaling message", "cmd", msg.Cmd)
	}
}

func (m *Manager) handleCreateReply(msg *protocol.ServerMessage) {
	if msg.Error != "" {
		m.emit(CreateFailed{Reason: msg.Error})
		return
	}

	var data protocol.CreateData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		slog.Warn("bad create reply", "err", err)
		return
	}

	m.mu.Lock()
	m.roomID = data.ID
	m.mu.Unlock()

	m.emit(RoomCreated{RoomID: data.ID})
}

func (m *Manager) handleJoinReply(msg *protocol.ServerMessage) {
	if msg.Error != "" {
		m.emit(JoinFailed{Reason: msg.Error})
		return
	}

	var data protocol.JoinData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		slog.Warn("bad join reply", "err", err)
		return
	}

	m.mu.Lock()
	roomID, playerID := m.roomID, m.playerID
	m.mu.Unlock()

	m.emit(RoomJoined{RoomID: roomID, PlayerID: playerID, Participants: data.Participants})

	// The newcomer always calls the members already present; they will
	// never call us.
	for _, id := range data.Participants {
		p := m.addPeer(id)
		if err := p.Call(); err != nil {
			slog.Warn("call failed", "peer", id, "err", err)
		}
	}
}

func (m *Manager) addPeer(id string) Participant {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.peers {
		if p.ID() == id {
			return p
		}
	}

	p := m.newPeer(id)
	m.peers = append(m.peers, p)
	return p
}

func (m *Manager) removePeer(id string) {
	m.mu.Lock()
	var removed Participant
	for i, p := range m.peers {
		if p.ID() == id {
			removed = p
			m.peers = append(m.peers[:i], m.peers[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if removed != nil {
		removed.Close()
	}
}

func (m *Manager) peerByID(id string) (Participant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.peers {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

// emit delivers an event without ever blocking a pion callback or the
// dispatch loop; an unread consumer loses events past the buffer.
// Events raised after the signaling socket is gone are dropped so a
// late channel teardown can't touch the closed event stream.
func (m *Manager) emit(e Event) {
	m.eventMu.Lock()
	defer m.eventMu.Unlock()

	if m.closed {
		slog.Debug("dropping event after session end")
		return
	}

	select {
	case m.events <- e:
	default:
		slog.Warn("event buffer full, dropping event")
	}
}

// The manager is the signaling collaborator for every participant it
// owns: negotiation messages go out over the signaling socket, channel
// lifecycle and updates come back as events.

// SendOffer implements peer.Signaling.
func (m *Manager) SendOffer(remoteID string, offer json.RawMessage) {
	m.transport.Send(&protocol.ClientMessage{Cmd: protocol.CmdCall, RemoteID: remoteID, Offer: offer})
}

// SendAnswer implements peer.Signaling.
func (m *Manager) SendAnswer(remoteID string, answer json.RawMessage) {
	m.transport.Send(&protocol.ClientMessage{Cmd: protocol.CmdAnswer, RemoteID: remoteID, Answer: answer})
}

// SendICECandidate implements peer.Signaling.
func (m *Manager) SendICECandidate(remoteID string, candidate json.RawMessage) {
	m.transport.Send(&protocol.ClientMessage{Cmd: protocol.CmdICECandidate, RemoteID: remoteID, Candidate: candidate})
}

// DataChannelOpened implements peer.Signaling.
func (m *Manager) DataChannelOpened(peerID string) {
	m.emit(PeerConnected{ID: peerID})
}

// DataChannelClosed implements peer.Signaling.
func (m *Manager) DataChannelClosed(peerID string) {
	m.emit(PeerDisconnected{ID: peerID})
}

// HandleUpdate implements peer.Observer.
func (m *Manager) HandleUpdate(peerID, action string, data json.RawMessage) {
	m.emit(UpdateReceived{From: peerID, Action: action, Data: data})
}
