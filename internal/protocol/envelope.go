package protocol

import (
	"encoding/json"
	"fmt"
)

// DataChannelLabel is the label of the single data channel per peer pair.
const DataChannelLabel = "dataChannel"

// Envelope wraps all peer-to-peer data channel traffic. It never passes
// through the signaling server. The id field carries the sender's
// participant id; action and data are opaque to the network layer.
type Envelope struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// EncodeEnvelope builds the JSON envelope for a data channel message.
func EncodeEnvelope(senderID, action string, data any) ([]byte, error) {
	env := Envelope{ID: senderID, Action: action}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", action, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// DecodeEnvelope parses an inbound data channel message.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}
