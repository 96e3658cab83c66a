package relay

const (
	// MaxRooms caps the number of rooms alive at once.
	MaxRooms = 10

	// ReservedRoomID names the room created at startup that empty-room
	// cleanup never deletes.
	ReservedRoomID = "test"
)

// Manager is the single source of truth for existing rooms. It is owned
// by the relay goroutine; nothing here locks.
type Manager struct {
	rooms map[string]*Room
}

// RoomInfo is the read-only view exposed by the room listing endpoint.
type RoomInfo struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
}

// NewManager creates a manager holding the reserved room.
func NewManager() *Manager {
	m := &Manager{rooms: make(map[string]*Room)}
	m.rooms[ReservedRoomID] = NewRoom(ReservedRoomID)
	return m
}

// CreateRoom creates a room. With an empty id a free random id is
// generated; the retry loop in generateRoomID guarantees uniqueness even
// on the unlikely collision.
func (m *Manager) CreateRoom(id string) (*Room, error) {
	if len(m.rooms) >= MaxRooms {
		return nil, ErrMaxRooms
	}
	if id == "" {
		id = m.generateRoomID()
	} else if _, ok := m.rooms[id]; ok {
		return nil, ErrRoomExists
	}

	room := NewRoom(id)
	m.rooms[id] = room
	return room, nil
}

func (m *Manager) generateRoomID() string {
	for {
		id := randomRoomID()
		if _, ok := m.rooms[id]; !ok {
			return id
		}
	}
}

// Room looks up a room by id.
func (m *Manager) Room(id string) (*Room, bool) {
	room, ok := m.rooms[id]
	return room, ok
}

// NumRooms returns the current room count.
func (m *Manager) NumRooms() int {
	return len(m.rooms)
}

// JoinRoom adds a participant to an existing room.
func (m *Manager) JoinRoom(roomID, participantID string, conn Sender, host bool) error {
	room, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomMissing
	}
	if room.IsFull() {
		return ErrRoomFull
	}
	return room.AddParticipant(participantID, conn, host)
}

// LeaveRoom removes a participant and deletes the room once it is empty,
// unless it is the reserved room.
func (m *Manager) LeaveRoom(roomID, participantID string) error {
	room, ok := m.rooms[roomID]
	if !ok {
		return ErrRoomMissing
	}

	err := room.RemoveParticipant(participantID)
	if room.Empty() && roomID != ReservedRoomID {
		delete(m.rooms, roomID)
	}
	return err
}

// DeleteRoom removes a room on explicit request, members or not.
func (m *Manager) DeleteRoom(roomID string) error {
	if _, ok := m.rooms[roomID]; !ok {
		return ErrRoomMissing
	}
	delete(m.rooms, roomID)
	return nil
}

// RoomInfos snapshots every room for the listing endpoint.
func (m *Manager) RoomInfos() []RoomInfo {
	infos := make([]RoomInfo, 0, len(m.rooms))
	for id, room := range m.rooms {
		infos = append(infos, RoomInfo{ID: id, Participants: room.NumParticipants()})
	}
	return infos
}
