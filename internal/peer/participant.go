// Package peer drives one peer-to-peer negotiation and its data channel
// per remote player. The signaling server only bootstraps the
// connection; once the channel opens, game traffic bypasses it.
package peer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/dbaldassi/nocturna-sub000/internal/config"
	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

// ErrChannelNotOpen reports an update dropped because the data channel
// is absent or not yet open. No queuing happens behind it.
var ErrChannelNotOpen = errors.New("data channel not open")

// Signaling relays negotiation messages and channel lifecycle changes
// back to whoever owns the signaling socket.
type Signaling interface {
	SendOffer(remoteID string, offer json.RawMessage)
	SendAnswer(remoteID string, answer json.RawMessage)
	SendICECandidate(remoteID string, candidate json.RawMessage)
	DataChannelOpened(peerID string)
	DataChannelClosed(peerID string)
}

// Observer receives decoded data channel updates.
type Observer interface {
	HandleUpdate(peerID, action string, data json.RawMessage)
}

// RemoteParticipant wraps the connection to a single remote player.
// States: idle (no peer connection), negotiating (offer or answer in
// flight), connected (data channel open). A channel close tears
// everything down and returns to idle; nothing re-dials automatically.
//
// The mutex guards pc/dc because pion delivers callbacks on its own
// goroutines.
type RemoteParticipant struct {
	id        string
	cfg       *config.Config
	signaling Signaling
	observer  Observer

	mu sync.Mutex
	pc *pion.PeerConnection
	dc *pion.DataChannel
}

// NewRemoteParticipant creates an idle participant for the given peer id.
func NewRemoteParticipant(id string, cfg *config.Config, signaling Signaling, observer Observer) *RemoteParticipant {
	return &RemoteParticipant{
		id:        id,
		cfg:       cfg,
		signaling: signaling,
		observer:  observer,
	}
}

// ID returns the remote peer's participant id.
func (p *RemoteParticipant) ID() string { return p.id }

// Connected reports whether the data channel is open.
func (p *RemoteParticipant) Connected() bool {
	p.mu.Lock()
	dc := p.dc
	p.mu.Unlock()
	return dc != nil && dc.ReadyState() == pion.DataChannelStateOpen
}

// Call starts the caller side: create the peer connection, open the
// data channel, and send an offer through the signaling relay. A second
// Call while one is active is ignored with a warning.
func (p *RemoteParticipant) Call() error {
	pc, err := p.begin()
	if err != nil || pc == nil {
		return err
	}

	dc, err := pc.CreateDataChannel(protocol.DataChannelLabel, nil)
	if err != nil {
		p.reset()
		return fmt.Errorf("create data channel: %w", err)
	}
	p.attachChannel(dc)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		p.reset()
		return fmt.Errorf("create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		p.reset()
		return fmt.Errorf("set local description: %w", err)
	}

	raw, err := json.Marshal(pc.LocalDescription())
	if err != nil {
		p.reset()
		return fmt.Errorf("marshal offer: %w", err)
	}

	p.signaling.SendOffer(p.id, raw)
	return nil
}

// Answer starts the callee side: consume the remote offer, accept the
// inbound data channel, and send back an answer. The same in-call guard
// as Call applies.
func (p *RemoteParticipant) Answer(offer json.RawMessage) error {
	pc, err := p.begin()
	if err != nil || pc == nil {
		return err
	}

	pc.OnDataChannel(func(dc *pion.DataChannel) {
		p.attachChannel(dc)
	})

	var desc pion.SessionDescription
	if err := json.Unmarshal(offer, &desc); err != nil {
		p.reset()
		return fmt.Errorf("parse offer: %w", err)
	}
	if err := pc.SetRemoteDescription(desc); err != nil {
		p.reset()
		return fmt.Errorf("set remote description: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		p.reset()
		return fmt.Errorf("create answer: %w", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		p.reset()
		return fmt.Errorf("set local description: %w", err)
	}

	raw, err := json.Marshal(pc.LocalDescription())
	if err != nil {
		p.reset()
		return fmt.Errorf("marshal answer: %w", err)
	}

	p.signaling.SendAnswer(p.id, raw)
	return nil
}

// HandleAnswer applies the remote answer to the in-flight call.
// Failures are logged, not propagated; the call simply never connects.
func (p *RemoteParticipant) HandleAnswer(answer json.RawMessage) {
	p.mu.Lock()
	pc := p.pc
	p.mu.Unlock()

	if pc == nil {
		slog.Warn("answer received with no active call", "peer", p.id)
		return
	}

	var desc pion.SessionDescription
	if err := json.Unmarshal(answer, &desc); err != nil {
		slog.Warn("bad answer payload", "peer", p.id, "err", err)
		return
	}
	if err := pc.SetRemoteDescription(desc); err != nil {
		slog.Warn("apply answer failed", "peer", p.id, "err", err)
	}
}

// AddICECandidate applies a relayed candidate. Candidates arriving
// before the peer connection exists are dropped, not queued.
func (p *RemoteParticipant) AddICECandidate(candidate json.RawMessage) {
	p.mu.Lock()
	pc := p.pc
	p.mu.Unlock()

	if pc == nil {
		slog.Warn("dropping ICE candidate, no peer connection", "peer", p.id)
		return
	}

	var init pion.ICECandidateInit
	if err := json.Unmarshal(candidate, &init); err != nil {
		slog.Warn("bad ICE candidate payload", "peer", p.id, "err", err)
		return
	}
	if err := pc.AddICECandidate(init); err != nil {
		slog.Warn("add ICE candidate failed", "peer", p.id, "err", err)
	}
}

// Send delivers one update envelope over the data channel. Updates are
// dropped with a warning while the channel is not open.
func (p *RemoteParticipant) Send(senderID, action string, data any) error {
	p.mu.Lock()
	dc := p.dc
	p.mu.Unlock()

	if dc == nil || dc.ReadyState() != pion.DataChannelStateOpen {
		slog.Warn("dropping update", "peer", p.id, "action", action, "err", ErrChannelNotOpen)
		return ErrChannelNotOpen
	}

	payload, err := protocol.EncodeEnvelope(senderID, action, data)
	if err != nil {
		return err
	}
	return dc.SendText(string(payload))
}

// Close tears down the data channel and peer connection.
func (p *RemoteParticipant) Close() {
	p.reset()
}

// begin claims the idle slot. It returns (nil, nil) when a call is
// already active: the peer connection is assigned before any await, so
// the guard catches everything except a same-instant double invocation,
// which the mutex now covers too.
func (p *RemoteParticipant) begin() (*pion.PeerConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pc != nil {
		slog.Warn("already in a call", "peer", p.id)
		return nil, nil
	}

	pc, err := newPeerConnection(p.cfg)
	if err != nil {
		return nil, err
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			slog.Warn("marshal ICE candidate failed", "peer", p.id, "err", err)
			return
		}
		p.signaling.SendICECandidate(p.id, raw)
	})

	p.pc = pc
	return pc, nil
}

func (p *RemoteParticipant) attachChannel(dc *pion.DataChannel) {
	p.mu.Lock()
	p.dc = dc
	p.mu.Unlock()

	dc.OnOpen(func() {
		slog.Debug("data channel open", "peer", p.id)
		p.signaling.DataChannelOpened(p.id)
	})

	dc.OnClose(func() {
		slog.Debug("data channel closed", "peer", p.id)
		p.reset()
		p.signaling.DataChannelClosed(p.id)
	})

	dc.OnMessage(func(msg pion.DataChannelMessage) {
		env, err := protocol.DecodeEnvelope(msg.Data)
		if err != nil {
			slog.Warn("bad data channel message", "peer", p.id, "err", err)
			return
		}
		// Attribute to the peer this channel belongs to, not to
		// whatever id the envelope claims.
		p.observer.HandleUpdate(p.id, env.Action, env.Data)
	})
}

func (p *RemoteParticipant) reset() {
	p.mu.Lock()
	pc := p.pc
	p.pc = nil
	p.dc = nil
	p.mu.Unlock()

	if pc != nil {
		pc.Close()
	}
}
