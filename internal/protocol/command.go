package protocol

import (
	"encoding/json"
	"fmt"
)

// Command is the parsed form of a client frame, one variant per cmd tag.
// Parsing fails closed: malformed JSON and unrecognized tags are
// rejected before any handler runs.
type Command interface {
	Cmd() string
}

// CreateCommand asks the server to create a room with a generated id.
type CreateCommand struct{}

// JoinCommand asks to join RoomID as PlayerID.
type JoinCommand struct {
	RoomID   string
	PlayerID string
}

// LeaveCommand leaves the room the connection is currently in.
type LeaveCommand struct{}

// DeleteCommand deletes the named room.
type DeleteCommand struct {
	RoomID string
}

// CallCommand relays an offer to RemoteID in the sender's room.
type CallCommand struct {
	RemoteID string
	Offer    json.RawMessage
}

// AnswerCommand relays an answer to RemoteID in the sender's room.
type AnswerCommand struct {
	RemoteID string
	Answer   json.RawMessage
}

// ICECandidateCommand relays an ICE candidate to RemoteID.
type ICECandidateCommand struct {
	RemoteID  string
	Candidate json.RawMessage
}

func (CreateCommand) Cmd() string       { return CmdCreate }
func (JoinCommand) Cmd() string         { return CmdJoin }
func (LeaveCommand) Cmd() string        { return CmdLeave }
func (DeleteCommand) Cmd() string       { return CmdDelete }
func (CallCommand) Cmd() string         { return CmdCall }
func (AnswerCommand) Cmd() string       { return CmdAnswer }
func (ICECandidateCommand) Cmd() string { return CmdICECandidate }

// ParseCommand decodes a raw client frame into its tagged variant.
func ParseCommand(data []byte) (Command, error) {
	var raw ClientMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse command: %w", err)
	}

	switch raw.Cmd {
	case CmdCreate:
		return CreateCommand{}, nil
	case CmdJoin:
		return JoinCommand{RoomID: raw.RoomID, PlayerID: raw.PlayerID}, nil
	case CmdLeave:
		return LeaveCommand{}, nil
	case CmdDelete:
		return DeleteCommand{RoomID: raw.ID}, nil
	case CmdCall:
		return CallCommand{RemoteID: raw.RemoteID, Offer: raw.Offer}, nil
	case CmdAnswer:
		return AnswerCommand{RemoteID: raw.RemoteID, Answer: raw.Answer}, nil
	case CmdICECandidate:
		return ICECandidateCommand{RemoteID: raw.RemoteID, Candidate: raw.Candidate}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, raw.Cmd)
	}
}
