package game

import (
	"errors"
	"sync"

	"github.com/samber/lo"
)

var (
	ErrAlreadyJoined = errors.New("connection already joined")
	ErrNotFound      = errors.New("connection not found in lobby")
	ErrNotInLobby    = errors.New("connection not in lobby")
	ErrNotInRoom     = errors.New("connection not in a room")
	ErrRoomNotFound  = errors.New("room not found")
)

// Participant is a connected player. It lives in the lobby or in exactly one
// room, never both.
type Participant struct {
	ConnID   string
	Username string
}

// Broadcaster fans a payload out to a set of connections. Implementations
// must consume (marshal) the payload before returning and must never block
// on network I/O; the service calls Broadcast while holding scope locks.
type Broadcaster interface {
	Broadcast(recipients []string, payload any)
}

type IGameService interface {
	JoinServer(connID string) error
	LeaveServer(connID string)
	SetUsername(connID, username string) error
	CreateRoom(connID, roomName string) error
	JoinRoom(connID, roomID string) error
	LeaveRoom(connID string) error
	SubmitGuess(connID, text string) error
	Disconnect(connID string)

	RoomsInfo() []RoomInfo
	SessionsCount() int
}

// gameService is the single serialization point for every command. All
// mutable state lives here and is only reachable through the atomic
// operations below: each one mutates, snapshots the post-mutation state and
// hands the broadcast to the dispatcher before releasing the lock, so an
// observer never sees two operations interleaved on one scope.
type gameService struct {
	bc Broadcaster

	mu       sync.RWMutex
	lobby    map[string]*Participant
	rooms    map[string]*room
	memberOf map[string]string // connID -> roomID
	lobbySeq int64
}

func NewGameService(bc Broadcaster) IGameService {
	return &gameService{
		bc:       bc,
		lobby:    make(map[string]*Participant),
		rooms:    make(map[string]*room),
		memberOf: make(map[string]string),
	}
}

func (svc *gameService) JoinServer(connID string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.lobby[connID]; ok {
		return ErrAlreadyJoined
	}
	if _, ok := svc.memberOf[connID]; ok {
		return ErrAlreadyJoined
	}

	svc.lobby[connID] = &Participant{ConnID: connID}

	svc.lobbySeq++
	svc.bc.Broadcast(svc.lobbyRecipientsLocked(), LobbyEvent{
		Timestamp:     svc.lobbySeq,
		Event:         EventUserJoined,
		SessionsCount: len(svc.lobby),
	})
	return nil
}

func (svc *gameService) LeaveServer(connID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.lobby[connID]; !ok {
		return
	}
	delete(svc.lobby, connID)

	svc.lobbySeq++
	svc.bc.Broadcast(svc.lobbyRecipientsLocked(), LobbyEvent{
		Timestamp:     svc.lobbySeq,
		Event:         EventUserLeft,
		SessionsCount: len(svc.lobby),
	})
}

func (svc *gameService) SetUsername(connID, username string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	p, ok := svc.lobby[connID]
	if !ok {
		return ErrNotFound
	}
	p.Username = username

	// Confirmation goes to the renamed connection only.
	svc.bc.Broadcast([]string{connID}, UsernameEvent{
		Event:    EventUsernameUpdated,
		Username: username,
	})
	return nil
}

func (svc *gameService) CreateRoom(connID, roomName string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	p, ok := svc.lobby[connID]
	if !ok {
		return ErrNotInLobby
	}

	delete(svc.lobby, connID)
	r := newRoom(roomName, p)
	svc.rooms[r.id] = r
	svc.memberOf[connID] = r.id

	svc.lobbySeq++
	svc.bc.Broadcast(svc.lobbyRecipientsLocked(), LobbyEvent{
		Timestamp:     svc.lobbySeq,
		Event:         EventRoomCreated,
		SessionsCount: len(svc.lobby),
		RoomsInfo:     svc.roomsInfoLocked(),
	})

	// Initial snapshot for the creator.
	r.broadcastUpdate(svc.bc)
	return nil
}

func (svc *gameService) JoinRoom(connID, roomID string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	r, ok := svc.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}
	p, ok := svc.lobby[connID]
	if !ok {
		return ErrNotInLobby
	}

	delete(svc.lobby, connID)
	r.join(p)
	svc.memberOf[connID] = roomID

	r.broadcastUpdate(svc.bc)

	svc.lobbySeq++
	svc.bc.Broadcast(svc.lobbyRecipientsLocked(), LobbyEvent{
		Timestamp:     svc.lobbySeq,
		Event:         EventRoomsUpdate,
		SessionsCount: len(svc.lobby),
		RoomsInfo:     svc.roomsInfoLocked(),
	})
	return nil
}

func (svc *gameService) LeaveRoom(connID string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	roomID, ok := svc.memberOf[connID]
	if !ok {
		return ErrNotInRoom
	}
	r := svc.rooms[roomID]
	delete(svc.memberOf, connID)

	p, remaining := r.leave(connID)
	if remaining == 0 {
		// Empty rooms are never observable: deletion happens before the
		// lock is released.
		delete(svc.rooms, roomID)
	} else {
		r.broadcastUpdate(svc.bc)
	}

	if p == nil {
		p = &Participant{ConnID: connID}
	}
	svc.lobby[connID] = p

	svc.lobbySeq++
	svc.bc.Broadcast(svc.lobbyRecipientsLocked(), LobbyEvent{
		Timestamp:     svc.lobbySeq,
		Event:         EventRoomsUpdate,
		SessionsCount: len(svc.lobby),
		RoomsInfo:     svc.roomsInfoLocked(),
	})
	return nil
}

func (svc *gameService) SubmitGuess(connID, text string) error {
	svc.mu.RLock()
	roomID, ok := svc.memberOf[connID]
	var r *room
	if ok {
		r = svc.rooms[roomID]
	}
	svc.mu.RUnlock()

	if r == nil {
		return ErrNotInRoom
	}
	// Guesses only touch the room scope, so two rooms can accept guesses
	// concurrently.
	return r.submitGuess(svc.bc, connID, text)
}

// Disconnect models a dropped connection: an implicit leave of whichever
// scope currently holds it.
func (svc *gameService) Disconnect(connID string) {
	_ = svc.LeaveRoom(connID)
	svc.LeaveServer(connID)
}

func (svc *gameService) RoomsInfo() []RoomInfo {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.roomsInfoLocked()
}

func (svc *gameService) SessionsCount() int {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return len(svc.lobby)
}

func (svc *gameService) lobbyRecipientsLocked() []string {
	return lo.Keys(svc.lobby)
}

func (svc *gameService) roomsInfoLocked() []RoomInfo {
	return lo.Map(lo.Values(svc.rooms), func(r *room, _ int) RoomInfo {
		return r.info()
	})
}
