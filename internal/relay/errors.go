package relay

import "errors"

// Protocol rejection reasons. These strings travel verbatim to clients
// in error replies, so they are capitalized human-readable sentences
// rather than conventional Go error text.
var (
	ErrMaxRooms           = errors.New("Max rooms reached")
	ErrRoomExists         = errors.New("Room already exists")
	ErrRoomMissing        = errors.New("Room does not exist")
	ErrRoomFull           = errors.New("Room is full")
	ErrParticipantExists  = errors.New("Participant already exists")
	ErrParticipantMissing = errors.New("Participant does not exist")
)
