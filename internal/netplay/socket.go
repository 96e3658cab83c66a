package netplay

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dbaldassi/nocturna-sub000/internal/dns"
	"github.com/dbaldassi/nocturna-sub000/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Transport is the signaling channel the manager drives. The concrete
// implementation is Socket; tests substitute fakes.
type Transport interface {
	Send(msg *protocol.ClientMessage)
	Incoming() <-chan *protocol.ServerMessage
	Close()
}

// Socket manages the WebSocket connection to the signaling server.
type Socket struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *protocol.ServerMessage
	outgoing  chan *protocol.ClientMessage
	done      chan struct{}
	closed    bool
}

// NewSocket creates an unconnected signaling socket.
func NewSocket(serverURL string) *Socket {
	return &Socket{
		serverURL: serverURL,
		incoming:  make(chan *protocol.ServerMessage, 32),
		outgoing:  make(chan *protocol.ClientMessage, 32),
		done:      make(chan struct{}, 1),
	}
}

// Connect establishes the WebSocket connection, negotiating the
// signaling subprotocol, and starts the pumps.
func (s *Socket) Connect() error {
	u, err := url.Parse(s.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	dialer := *websocket.DefaultDialer
	dialer.Subprotocols = []string{protocol.Subprotocol}
	dialer.NetDial = func(network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		resolvedIP, err := dns.Lookup(host)
		if err != nil {
			return nil, fmt.Errorf("dns lookup failed: %w", err)
		}
		return net.Dial(network, net.JoinHostPort(resolvedIP, port))
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.conn = conn
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go s.readPump()
	go s.writePump()

	return nil
}

func (s *Socket) readPump() {
	defer func() {
		s.conn.Close()
		close(s.incoming)
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg protocol.ServerMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}
		s.incoming <- &msg
	}
}

func (s *Socket) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.outgoing:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues a message for the server. Nothing drains the queue once
// the connection is dead, so a full buffer drops the message rather
// than blocking the caller.
func (s *Socket) Send(msg *protocol.ClientMessage) {
	select {
	case s.outgoing <- msg:
	default:
		slog.Warn("outgoing buffer full, dropping message", "cmd", msg.Cmd)
	}
}

// Incoming returns the channel of server messages. It closes when the
// connection drops.
func (s *Socket) Incoming() <-chan *protocol.ServerMessage {
	return s.incoming
}

// Close shuts the connection down. The socket is not reusable.
func (s *Socket) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
