package relay

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. SDP offers fit comfortably.
	maxMessageSize = 64 * 1024

	sendBuffer = 256
)

// Conn wraps a single client websocket. The read pump feeds raw frames
// to the relay goroutine; the write pump drains the send channel. The
// room/participant fields are touched only by the relay goroutine.
type Conn struct {
	relay *Relay
	ws    *websocket.Conn
	send  chan *protocol.ServerMessage

	// A connection is associated with at most one room and one
	// participant at a time. createdRoom remembers which room this
	// connection originated, so its join can be marked as host.
	roomID        string
	participantID string
	createdRoom   string
	bound         bool
}

func newConn(r *Relay, ws *websocket.Conn) *Conn {
	return &Conn{
		relay: r,
		ws:    ws,
		send:  make(chan *protocol.ServerMessage, sendBuffer),
	}
}

// Send queues a message for delivery. A slow consumer with a full
// buffer loses the message rather than stalling the relay loop.
func (c *Conn) Send(msg *protocol.ServerMessage) {
	select {
	case c.send <- msg:
	default:
		slog.Warn("send buffer full, dropping message",
			"cmd", msg.Cmd, "remote", c.ws.RemoteAddr())
	}
}

// readPump pumps frames from the websocket to the relay.
//
// The relay runs readPump in a per-connection goroutine. All reads
// happen here so there is at most one reader per connection.
func (c *Conn) readPump() {
	defer func() {
		c.relay.unregister <- c
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("read error", "err", err, "remote", c.ws.RemoteAddr())
			}
			break
		}
		c.relay.inbound <- &inboundFrame{conn: c, data: frame}
	}
}

// writePump pumps messages from the send channel to the websocket and
// keeps the connection alive with periodic pings.
//
// One goroutine per connection runs writePump; all writes happen here.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The relay closed the channel.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				slog.Debug("write error", "err", err, "remote", c.ws.RemoteAddr())
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
