// Package protocol defines the wire messages exchanged over the
// signaling WebSocket (subprotocol "multi") and over peer data
// channels. Every signaling frame is a JSON object with a "cmd" field;
// successful replies carry {cmd, message: "OK", data} and failures
// carry {cmd, error: reason}.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Subprotocol is the WebSocket subprotocol negotiated for signaling.
const Subprotocol = "multi"

// Command names.
const (
	CmdCreate          = "create"
	CmdJoin            = "join"
	CmdLeave           = "leave"
	CmdDelete          = "delete"
	CmdCall            = "call"
	CmdAnswer          = "answer"
	CmdICECandidate    = "ice_candidate"
	CmdNewParticipant  = "new_participant"
	CmdLeftParticipant = "left_participant"
)

// StatusOK is the message value carried by every successful reply.
const StatusOK = "OK"

// ErrUnknownCommand is returned by ParseCommand for an unrecognized cmd tag.
var ErrUnknownCommand = errors.New("unknown command")

// ClientMessage is the raw shape of every client-to-server frame.
// Only the fields relevant to the given cmd are populated.
type ClientMessage struct {
	Cmd       string          `json:"cmd"`
	RoomID    string          `json:"roomId,omitempty"`
	PlayerID  string          `json:"playerId,omitempty"`
	ID        string          `json:"id,omitempty"`
	RemoteID  string          `json:"remoteId,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// ServerMessage is the shape of every server-to-client frame: replies,
// membership broadcasts, and relayed peer signals. RemoteID on a
// relayed call/answer/ice_candidate names the original sender.
type ServerMessage struct {
	Cmd       string          `json:"cmd"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	ID        string          `json:"id,omitempty"`
	RemoteID  string          `json:"remoteId,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// CreateData is the data payload of a successful create reply.
type CreateData struct {
	ID string `json:"id"`
}

// JoinData is the data payload of a successful join reply. Participants
// lists the members already present, never the joiner itself.
type JoinData struct {
	Participants []string `json:"participants"`
}

// OK builds a success reply. The payload must marshal; protocol payloads
// are plain structs so a failure here is a programming error.
func OK(cmd string, data any) *ServerMessage {
	msg := &ServerMessage{Cmd: cmd, Message: StatusOK}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			panic(fmt.Sprintf("protocol: marshal %s reply: %v", cmd, err))
		}
		msg.Data = raw
	}
	return msg
}

// Fail builds an error reply carrying a human-readable reason.
func Fail(cmd string, reason error) *ServerMessage {
	return &ServerMessage{Cmd: cmd, Error: reason.Error()}
}

// NewParticipant builds the broadcast announcing a joined participant.
func NewParticipant(id string) *ServerMessage {
	return &ServerMessage{Cmd: CmdNewParticipant, ID: id}
}

// LeftParticipant builds the broadcast announcing a departed participant.
func LeftParticipant(id string) *ServerMessage {
	return &ServerMessage{Cmd: CmdLeftParticipant, ID: id}
}
