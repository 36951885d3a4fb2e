package game

// Outbound event names. Every broadcast frame carries one of these in its
// "event" field.
const (
	EventUserJoined      = "USER_JOINED"
	EventUserLeft        = "USER_LEFT"
	EventUsernameUpdated = "USERNAME_UPDATED"
	EventRoomCreated     = "ROOM_CREATED"
	EventRoomsUpdate     = "ROOMS_UPDATE"
	EventRoomUpdate      = "ROOM_UPDATE"
)

// RoomInfo is the lobby-facing projection of a room.
type RoomInfo struct {
	RoomID           string `json:"roomId"`
	RoomName         string `json:"roomName"`
	ParticipantCount int    `json:"participantCount"`
}

// PlayerInfo is the room-facing projection of a participant.
type PlayerInfo struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"userName"`
}

// Guess is one transcript entry. Username is captured at submit time, so a
// later rename does not rewrite history.
type Guess struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"userName"`
	Guess     string `json:"guess"`
}

// LobbyEvent is broadcast to lobby members. Timestamp is the lobby-scope
// monotonic counter, not wall clock.
type LobbyEvent struct {
	Timestamp     int64      `json:"timestamp"`
	Event         string     `json:"event"`
	SessionsCount int        `json:"sessionsCount"`
	RoomsInfo     []RoomInfo `json:"roomsInfo,omitempty"`
}

// RoomEvent is broadcast to the members of one room. Timestamp is that
// room's own counter.
type RoomEvent struct {
	Timestamp int64        `json:"timestamp"`
	Event     string       `json:"event"`
	RoomName  string       `json:"roomName"`
	Players   []PlayerInfo `json:"players"`
	Guesses   []Guess      `json:"guesses"`
}

// UsernameEvent is sent to the renamed connection only.
type UsernameEvent struct {
	Event    string `json:"event"`
	Username string `json:"username"`
}
