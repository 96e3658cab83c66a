package relay

import (
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

type inboundFrame struct {
	conn *Conn
	data []byte
}

// Relay is the signaling server core. Run is the single goroutine that
// owns the room manager and all connection state, so command handlers
// execute one at a time with run-to-completion semantics and no locks.
type Relay struct {
	manager *Manager

	register   chan *Conn
	unregister chan *Conn
	inbound    chan *inboundFrame
	roomQuery  chan chan []RoomInfo
}

// New creates a relay with the reserved room already in place.
func New() *Relay {
	return &Relay{
		manager:    NewManager(),
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		inbound:    make(chan *inboundFrame),
		roomQuery:  make(chan chan []RoomInfo),
	}
}

// Serve attaches an upgraded websocket to the relay and starts its pumps.
func (r *Relay) Serve(ws *websocket.Conn) {
	conn := newConn(r, ws)
	r.register <- conn
	go conn.writePump()
	go conn.readPump()
}

// RoomInfos snapshots the current rooms through the relay goroutine, so
// HTTP handlers never touch manager state directly.
func (r *Relay) RoomInfos() []RoomInfo {
	reply := make(chan []RoomInfo, 1)
	r.roomQuery <- reply
	return <-reply
}

// Run processes registrations, disconnects, and inbound frames.
func (r *Relay) Run() {
	for {
		select {
		case conn := <-r.register:
			slog.Info("client connected", "remote", conn.ws.RemoteAddr())

		case conn := <-r.unregister:
			slog.Info("client disconnected", "remote", conn.ws.RemoteAddr())
			// Socket close is the only server-initiated cleanup path.
			if conn.participantID != "" {
				if err := r.manager.LeaveRoom(conn.roomID, conn.participantID); err != nil {
					slog.Warn("cleanup failed", "room", conn.roomID,
						"participant", conn.participantID, "err", err)
				}
			}
			close(conn.send)

		case frame := <-r.inbound:
			r.handleFrame(frame.conn, frame.data)

		case reply := <-r.roomQuery:
			reply <- r.manager.RoomInfos()
		}
	}
}

func (r *Relay) handleFrame(c *Conn, data []byte) {
	cmd, err := protocol.ParseCommand(data)
	if err != nil {
		slog.Warn("rejecting frame", "err", err, "remote", c.ws.RemoteAddr())
		return
	}

	// The first accepted command binds the connection. Anything except
	// create or join before that point is silently ignored and the
	// connection stays unbound.
	if !c.bound {
		switch cmd := cmd.(type) {
		case protocol.CreateCommand:
			c.bound = true
			r.handleCreate(c)
		case protocol.JoinCommand:
			c.bound = true
			r.handleJoin(c, cmd)
		default:
			slog.Debug("ignoring command on unbound connection",
				"cmd", cmd.Cmd(), "remote", c.ws.RemoteAddr())
		}
		return
	}

	switch cmd := cmd.(type) {
	case protocol.JoinCommand:
		r.handleJoin(c, cmd)
	case protocol.LeaveCommand:
		r.handleLeave(c)
	case protocol.DeleteCommand:
		r.handleDelete(c, cmd)
	case protocol.CallCommand:
		r.forward(c, &protocol.ServerMessage{Cmd: protocol.CmdCall, Offer: cmd.Offer}, cmd.RemoteID)
	case protocol.AnswerCommand:
		r.forward(c, &protocol.ServerMessage{Cmd: protocol.CmdAnswer, Answer: cmd.Answer}, cmd.RemoteID)
	case protocol.ICECandidateCommand:
		r.forward(c, &protocol.ServerMessage{Cmd: protocol.CmdICECandidate, Candidate: cmd.Candidate}, cmd.RemoteID)
	default:
		slog.Debug("unhandled command", "cmd", cmd.Cmd(), "remote", c.ws.RemoteAddr())
	}
}

func (r *Relay) handleCreate(c *Conn) {
	room, err := r.manager.CreateRoom("")
	if err != nil {
		c.Send(protocol.Fail(protocol.CmdCreate, err))
		return
	}

	c.roomID = room.ID
	c.createdRoom = room.ID
	slog.Info("room created", "room", room.ID, "remote", c.ws.RemoteAddr())
	c.Send(protocol.OK(protocol.CmdCreate, protocol.CreateData{ID: room.ID}))
}

func (r *Relay) handleJoin(c *Conn, cmd protocol.JoinCommand) {
	// One participant per connection. A member must leave before joining
	// again, otherwise its old record would hold a room slot forever.
	if c.participantID != "" {
		c.Send(protocol.Fail(protocol.CmdJoin, ErrParticipantExists))
		return
	}

	roomID := cmd.RoomID
	if roomID == "" {
		roomID = c.roomID
	}

	host := c.createdRoom != "" && c.createdRoom == roomID
	if err := r.manager.JoinRoom(roomID, cmd.PlayerID, c, host); err != nil {
		c.Send(protocol.Fail(protocol.CmdJoin, err))
		return
	}

	c.roomID = roomID
	c.participantID = cmd.PlayerID
	slog.Info("participant joined", "room", roomID, "participant", cmd.PlayerID, "host", host)
}

func (r *Relay) handleLeave(c *Conn) {
	if c.participantID == "" {
		c.Send(protocol.Fail(protocol.CmdLeave, ErrRoomMissing))
		return
	}

	if err := r.manager.LeaveRoom(c.roomID, c.participantID); err != nil {
		c.Send(protocol.Fail(protocol.CmdLeave, err))
		return
	}

	slog.Info("participant left", "room", c.roomID, "participant", c.participantID)
	c.roomID = ""
	c.participantID = ""
	c.Send(protocol.OK(protocol.CmdLeave, nil))
}

func (r *Relay) handleDelete(c *Conn, cmd protocol.DeleteCommand) {
	if err := r.manager.DeleteRoom(cmd.RoomID); err != nil {
		c.Send(protocol.Fail(protocol.CmdDelete, err))
		return
	}
	slog.Info("room deleted", "room", cmd.RoomID)
	c.Send(protocol.OK(protocol.CmdDelete, nil))
}

// forward relays a peer signal to remoteID in the sender's room,
// substituting the sender's own participant id so the recipient knows
// who is calling back.
func (r *Relay) forward(c *Conn, msg *protocol.ServerMessage, remoteID string) {
	room, ok := r.manager.Room(c.roomID)
	if !ok {
		c.Send(protocol.Fail(msg.Cmd, ErrRoomMissing))
		return
	}

	target, ok := room.Participant(remoteID)
	if !ok {
		c.Send(protocol.Fail(msg.Cmd, ErrParticipantMissing))
		return
	}

	msg.RemoteID = c.participantID
	target.Conn.Send(msg)
}
