package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCommandVariants(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		check func(t *testing.T, cmd Command)
	}{
		{
			name:  "create",
			frame: `{"cmd":"create"}`,
			check: func(t *testing.T, cmd Command) {
				if _, ok := cmd.(CreateCommand); !ok {
					t.Fatalf("expected CreateCommand, got %T", cmd)
				}
			},
		},
		{
			name:  "join",
			frame: `{"cmd":"join","roomId":"test","playerId":"alice"}`,
			check: func(t *testing.T, cmd Command) {
				join, ok := cmd.(JoinCommand)
				if !ok {
					t.Fatalf("expected JoinCommand, got %T", cmd)
				}
				if join.RoomID != "test" || join.PlayerID != "alice" {
					t.Errorf("got room=%q player=%q", join.RoomID, join.PlayerID)
				}
			},
		},
		{
			name:  "leave",
			frame: `{"cmd":"leave"}`,
			check: func(t *testing.T, cmd Command) {
				if _, ok := cmd.(LeaveCommand); !ok {
					t.Fatalf("expected LeaveCommand, got %T", cmd)
				}
			},
		},
		{
			name:  "delete uses id field",
			frame: `{"cmd":"delete","id":"old-room"}`,
			check: func(t *testing.T, cmd Command) {
				del, ok := cmd.(DeleteCommand)
				if !ok {
					t.Fatalf("expected DeleteCommand, got %T", cmd)
				}
				if del.RoomID != "old-room" {
					t.Errorf("got room=%q", del.RoomID)
				}
			},
		},
		{
			name:  "call keeps offer opaque",
			frame: `{"cmd":"call","remoteId":"bob","offer":{"type":"offer","sdp":"v=0"}}`,
			check: func(t *testing.T, cmd Command) {
				call, ok := cmd.(CallCommand)
				if !ok {
					t.Fatalf("expected CallCommand, got %T", cmd)
				}
				if call.RemoteID != "bob" {
					t.Errorf("got remote=%q", call.RemoteID)
				}
				var desc struct {
					Type string `json:"type"`
				}
				if err := json.Unmarshal(call.Offer, &desc); err != nil || desc.Type != "offer" {
					t.Errorf("offer payload mangled: %s (err=%v)", call.Offer, err)
				}
			},
		},
		{
			name:  "answer",
			frame: `{"cmd":"answer","remoteId":"bob","answer":{"type":"answer"}}`,
			check: func(t *testing.T, cmd Command) {
				if _, ok := cmd.(AnswerCommand); !ok {
					t.Fatalf("expected AnswerCommand, got %T", cmd)
				}
			},
		},
		{
			name:  "ice candidate",
			frame: `{"cmd":"ice_candidate","remoteId":"bob","candidate":{"candidate":"candidate:1"}}`,
			check: func(t *testing.T, cmd Command) {
				if _, ok := cmd.(ICECandidateCommand); !ok {
					t.Fatalf("expected ICECandidateCommand, got %T", cmd)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.frame))
			if err != nil {
				t.Fatalf("ParseCommand: %v", err)
			}
			tt.check(t, cmd)
		})
	}
}

func TestParseCommandFailsClosed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"unknown cmd", `{"cmd":"reboot"}`},
		{"empty cmd", `{"roomId":"test"}`},
		{"not json", `garbage`},
		{"wrong shape", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.frame))
			if err == nil {
				t.Fatalf("expected error, got %T", cmd)
			}
		})
	}

	_, err := ParseCommand([]byte(`{"cmd":"reboot"}`))
	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestOKReply(t *testing.T) {
	msg := OK(CmdJoin, JoinData{Participants: []string{"alice"}})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["cmd"] != "join" || decoded["message"] != "OK" {
		t.Errorf("got %s", raw)
	}
	if _, ok := decoded["error"]; ok {
		t.Errorf("success reply must not carry an error field: %s", raw)
	}
}

func TestOKReplyEmptyRosterMarshalsAsArray(t *testing.T) {
	msg := OK(CmdJoin, JoinData{Participants: []string{}})
	if string(msg.Data) != `{"participants":[]}` {
		t.Errorf("got data %s", msg.Data)
	}
}

func TestFailReply(t *testing.T) {
	msg := Fail(CmdCreate, ErrUnknownCommand)

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["cmd"] != "create" || decoded["error"] != "unknown command" {
		t.Errorf("got %s", raw)
	}
	if _, ok := decoded["message"]; ok {
		t.Errorf("error reply must not carry a message field: %s", raw)
	}
}

func TestMembershipBroadcasts(t *testing.T) {
	joined := NewParticipant("alice")
	if joined.Cmd != CmdNewParticipant || joined.ID != "alice" {
		t.Errorf("got %+v", joined)
	}

	left := LeftParticipant("alice")
	if left.Cmd != CmdLeftParticipant || left.ID != "alice" {
		t.Errorf("got %+v", left)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	raw, err := EncodeEnvelope("alice", "position_update", map[string]float64{"x": 1, "y": 2, "z": 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.ID != "alice" || env.Action != "position_update" {
		t.Errorf("got id=%q action=%q", env.ID, env.Action)
	}

	var pos map[string]float64
	if err := json.Unmarshal(env.Data, &pos); err != nil || pos["x"] != 1 {
		t.Errorf("data payload mangled: %s (err=%v)", env.Data, err)
	}
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("not json")); err == nil {
		t.Fatal("expected error")
	}
}
