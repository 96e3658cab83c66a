package netplay

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dbaldassi/nocturna-sub000/internal/config"
	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

// fakeTransport records outgoing frames and lets the test script the
// server side by pushing into the incoming channel.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []*protocol.ClientMessage
	incoming chan *protocol.ServerMessage
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{incoming: make(chan *protocol.ServerMessage, 16)}
}

func (f *fakeTransport) Send(msg *protocol.ClientMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
}

func (f *fakeTransport) Incoming() <-chan *protocol.ServerMessage {
	return f.incoming
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeTransport) sentFrames() []*protocol.ClientMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*protocol.ClientMessage(nil), f.sent...)
}

// fakePeer records which negotiation methods the manager invoked.
type fakePeer struct {
	mu       sync.Mutex
	id       string
	called   bool
	answered json.RawMessage
	answers  []json.RawMessage
	ice      []json.RawMessage
	sends    []string
	closed   bool
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Call() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.called = true
	return nil
}

func (p *fakePeer) Answer(offer json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answered = offer
	return nil
}

func (p *fakePeer) HandleAnswer(answer json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers = append(p.answers, answer)
}

func (p *fakePeer) AddICECandidate(candidate json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ice = append(p.ice, candidate)
}

func (p *fakePeer) Send(senderID, action string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sends = append(p.sends, senderID+"/"+action)
	return nil
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// testManager wires a manager to a fake transport and a fake peer
// factory. Pushed server messages are dispatched by Run; closing the
// transport's incoming channel ends Run, so after drain() returns every
// message has been fully handled.
type testManager struct {
	m         *Manager
	transport *fakeTransport

	mu    sync.Mutex
	peers map[string]*fakePeer
}

func newTestManager() *testManager {
	transport := newFakeTransport()
	tm := &testManager{
		m:         New(&config.Config{}, transport),
		transport: transport,
		peers:     make(map[string]*fakePeer),
	}
	tm.m.newPeer = func(id string) Participant {
		p := &fakePeer{id: id}
		tm.mu.Lock()
		tm.peers[id] = p
		tm.mu.Unlock()
		return p
	}
	go tm.m.Run()
	return tm
}

func (tm *testManager) push(msg *protocol.ServerMessage) {
	tm.transport.incoming <- msg
}

// drain closes the scripted server stream and collects every event the
// manager emitted.
func (tm *testManager) drain() []Event {
	close(tm.transport.incoming)
	var events []Event
	for e := range tm.m.Events() {
		events = append(events, e)
	}
	return events
}

func (tm *testManager) peer(t *testing.T, id string) *fakePeer {
	t.Helper()
	tm.mu.Lock()
	defer tm.mu.Unlock()
	p, ok := tm.peers[id]
	if !ok {
		t.Fatalf("no peer %q was created", id)
	}
	return p
}

func joinReply(participants ...string) *protocol.ServerMessage {
	if participants == nil {
		participants = []string{}
	}
	return protocol.OK(protocol.CmdJoin, protocol.JoinData{Participants: participants})
}

func TestJoinCallsExistingMembers(t *testing.T) {
	tm := newTestManager()

	tm.m.JoinRoom("dusk-owl-tower", "dave")
	tm.push(joinReply("alice", "bob"))
	events := tm.drain()

	if len(events) != 1 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	joined, ok := events[0].(RoomJoined)
	if !ok {
		t.Fatalf("expected RoomJoined, got %T", events[0])
	}
	if joined.RoomID != "dusk-owl-tower" || joined.PlayerID != "dave" {
		t.Errorf("got %+v", joined)
	}
	if len(joined.Participants) != 2 {
		t.Errorf("got roster %v", joined.Participants)
	}

	// The newcomer dials everyone already present.
	for _, id := range []string{"alice", "bob"} {
		if !tm.peer(t, id).called {
			t.Errorf("peer %s was not called", id)
		}
	}

	frames := tm.transport.sentFrames()
	if len(frames) != 1 || frames[0].Cmd != protocol.CmdJoin ||
		frames[0].RoomID != "dusk-owl-tower" || frames[0].PlayerID != "dave" {
		t.Errorf("sent frames %+v", frames)
	}
}

func TestJoinFailure(t *testing.T) {
	tm := newTestManager()

	tm.m.JoinRoom("full-room", "dave")
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdJoin, Error: "Room is full"})
	events := tm.drain()

	if len(events) != 1 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	failed, ok := events[0].(JoinFailed)
	if !ok || failed.Reason != "Room is full" {
		t.Errorf("got %T %+v", events[0], events[0])
	}
	if len(tm.peers) != 0 {
		t.Errorf("no peers should exist after a failed join")
	}
}

func TestCreateReplies(t *testing.T) {
	tm := newTestManager()

	tm.m.CreateRoom()
	tm.push(protocol.OK(protocol.CmdCreate, protocol.CreateData{ID: "dusk-owl-tower"}))
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdCreate, Error: "Max rooms reached"})
	events := tm.drain()

	if len(events) != 2 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	created, ok := events[0].(RoomCreated)
	if !ok || created.RoomID != "dusk-owl-tower" {
		t.Errorf("got %T %+v", events[0], events[0])
	}
	failed, ok := events[1].(CreateFailed)
	if !ok || failed.Reason != "Max rooms reached" {
		t.Errorf("got %T %+v", events[1], events[1])
	}
}

func TestNewParticipantWaitsForTheirCall(t *testing.T) {
	tm := newTestManager()

	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdNewParticipant, ID: "eve"})
	events := tm.drain()

	if len(events) != 1 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	if joined, ok := events[0].(ParticipantJoined); !ok || joined.ID != "eve" {
		t.Errorf("got %T %+v", events[0], events[0])
	}

	// The newcomer calls us, never the other way round.
	if tm.peer(t, "eve").called {
		t.Error("manager must not call a newcomer")
	}
}

func TestLeftParticipantClosesPeer(t *testing.T) {
	tm := newTestManager()

	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdNewParticipant, ID: "eve"})
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdLeftParticipant, ID: "eve"})
	events := tm.drain()

	if len(events) != 2 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	if left, ok := events[1].(ParticipantLeft); !ok || left.ID != "eve" {
		t.Errorf("got %T %+v", events[1], events[1])
	}
	if !tm.peer(t, "eve").closed {
		t.Error("departed peer was not closed")
	}
	if ids := tm.m.Peers(); len(ids) != 0 {
		t.Errorf("roster not empty: %v", ids)
	}
}

func TestInboundNegotiationRouting(t *testing.T) {
	tm := newTestManager()
	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	candidate := json.RawMessage(`{"candidate":"candidate:1"}`)

	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdNewParticipant, ID: "eve"})
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdCall, RemoteID: "eve", Offer: offer})
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdAnswer, RemoteID: "eve", Answer: answer})
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdICECandidate, RemoteID: "eve", Candidate: candidate})

	// Signals for unknown peers are dropped without creating one.
	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdCall, RemoteID: "ghost", Offer: offer})
	tm.drain()

	eve := tm.peer(t, "eve")
	if string(eve.answered) != string(offer) {
		t.Errorf("offer not routed: %s", eve.answered)
	}
	if len(eve.answers) != 1 || string(eve.answers[0]) != string(answer) {
		t.Errorf("answer not routed: %v", eve.answers)
	}
	if len(eve.ice) != 1 || string(eve.ice[0]) != string(candidate) {
		t.Errorf("candidate not routed: %v", eve.ice)
	}

	tm.mu.Lock()
	_, ghostExists := tm.peers["ghost"]
	tm.mu.Unlock()
	if ghostExists {
		t.Error("signal from unknown participant created a peer")
	}
}

func TestSendUpdateFansOut(t *testing.T) {
	tm := newTestManager()

	tm.m.JoinRoom("dusk-owl-tower", "dave")
	tm.push(joinReply("alice", "bob"))
	tm.drain()

	tm.m.SendUpdate("position_update", map[string]int{"x": 1})

	for _, id := range []string{"alice", "bob"} {
		p := tm.peer(t, id)
		if len(p.sends) != 1 || p.sends[0] != "dave/position_update" {
			t.Errorf("peer %s got %v", id, p.sends)
		}
	}
}

func TestOutboundSignaling(t *testing.T) {
	tm := newTestManager()
	offer := json.RawMessage(`{"type":"offer"}`)
	answer := json.RawMessage(`{"type":"answer"}`)
	candidate := json.RawMessage(`{"candidate":"candidate:1"}`)

	tm.m.SendOffer("eve", offer)
	tm.m.SendAnswer("eve", answer)
	tm.m.SendICECandidate("eve", candidate)

	frames := tm.transport.sentFrames()
	if len(frames) != 3 {
		t.Fatalf("got %d frames", len(frames))
	}
	if frames[0].Cmd != protocol.CmdCall || frames[0].RemoteID != "eve" || string(frames[0].Offer) != string(offer) {
		t.Errorf("offer frame %+v", frames[0])
	}
	if frames[1].Cmd != protocol.CmdAnswer || string(frames[1].Answer) != string(answer) {
		t.Errorf("answer frame %+v", frames[1])
	}
	if frames[2].Cmd != protocol.CmdICECandidate || string(frames[2].Candidate) != string(candidate) {
		t.Errorf("candidate frame %+v", frames[2])
	}
	tm.drain()
}

func TestPeerCallbacksBecomeEvents(t *testing.T) {
	tm := newTestManager()

	tm.m.DataChannelOpened("eve")
	tm.m.HandleUpdate("eve", "contact", json.RawMessage(`{"object":"altar"}`))
	tm.m.DataChannelClosed("eve")
	events := tm.drain()

	if len(events) != 3 {
		t.Fatalf("got %d events: %v", len(events), events)
	}
	if connected, ok := events[0].(PeerConnected); !ok || connected.ID != "eve" {
		t.Errorf("got %T %+v", events[0], events[0])
	}
	update, ok := events[1].(UpdateReceived)
	if !ok || update.From != "eve" || update.Action != "contact" {
		t.Errorf("got %T %+v", events[1], events[1])
	}
	if disconnected, ok := events[2].(PeerDisconnected); !ok || disconnected.ID != "eve" {
		t.Errorf("got %T %+v", events[2], events[2])
	}
}

func TestPeerCallbacksAfterSocketLoss(t *testing.T) {
	tm := newTestManager()

	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdNewParticipant, ID: "eve"})
	tm.drain()

	// The event channel is closed once the socket drops, but peers keep
	// talking directly and their teardown callbacks arrive on pion
	// goroutines. Late events are dropped, never sent.
	tm.m.DataChannelClosed("eve")
	tm.m.DataChannelOpened("eve")
	tm.m.HandleUpdate("eve", "contact", json.RawMessage(`{}`))
}

func TestCloseTearsDownPeersAndTransport(t *testing.T) {
	tm := newTestManager()

	tm.push(&protocol.ServerMessage{Cmd: protocol.CmdNewParticipant, ID: "eve"})
	events := tm.drain()
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}

	tm.m.Close()
	if !tm.peer(t, "eve").closed {
		t.Error("peer not closed")
	}
	if !tm.transport.closed {
		t.Error("transport not closed")
	}
}
