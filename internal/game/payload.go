// Package game defines the payload shapes the network layer carries on
// behalf of the engine-side collaborators. The relay and the peers never
// interpret these beyond serialization; gameplay meaning lives entirely
// with the producer and consumer.
package game

// Actions carried in data channel envelopes.
const (
	ActionReady         = "ready"
	ActionPosition      = "position_update"
	ActionObjectCreated = "object_created"
	ActionContact       = "contact"
)

// Vector3 is a plain xyz triple matching the engine's serialization.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ObjectDescriptor is enough for the engine to instantiate a game
// object announced by a remote player.
type ObjectDescriptor struct {
	Type     string  `json:"type"`
	Position Vector3 `json:"position"`
	Size     Vector3 `json:"size"`
	Rotation Vector3 `json:"rotation"`
}

// ObjectState is the per-object update broadcast to peers.
type ObjectState struct {
	ID        string  `json:"id"`
	Owner     string  `json:"owner"`
	Position  Vector3 `json:"position"`
	Timestamp int64   `json:"timestamp"`
	Type      string  `json:"type,omitempty"`
	Size      Vector3 `json:"size"`
}
