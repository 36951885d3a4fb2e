package ws

// The seven client command types. The router holds exactly one handler per
// type; anything else is answered with an invalid-message notice.
const (
	CmdJoinServer  = "JOIN_SERVER"
	CmdLeaveServer = "LEAVE_SERVER"
	CmdSetUsername = "SET_USERNAME"
	CmdCreateRoom  = "CREATE_ROOM"
	CmdJoinRoom    = "JOIN_ROOM"
	CmdLeaveRoom   = "LEAVE_ROOM"
	CmdSubmitGuess = "SUBMIT_GUESS"
)

// commandEnvelope carries only the discriminator; the raw frame is decoded a
// second time into the handler's typed request.
type commandEnvelope struct {
	Type string `json:"type"`
}

// ──────────────────────────── Request DTOs ───────────────────────────────

type SetUsernameRequest struct {
	Username string `json:"username" validate:"required"`
}

type CreateRoomRequest struct {
	RoomName string `json:"roomName" validate:"required"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

type SubmitGuessRequest struct {
	Guess string `json:"guess" validate:"required"`
}

// EmptyRequest is the body for commands that carry no fields.
type EmptyRequest struct{}

// InvalidMessageNotice is sent to the offending connection only; it is never
// broadcast and causes no state change.
type InvalidMessageNotice struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

const EventInvalidMessage = "INVALID_MESSAGE"
