package game

import (
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// room owns its member list (join order preserved), guess transcript and
// sequence counter. Membership is only mutated by the service while it holds
// the registry lock; the room lock exists so that transcript writes in
// different rooms never serialize on each other. Lock order is always
// registry -> room.
type room struct {
	id   string
	name string
	host *Participant

	mu      sync.Mutex
	members []*Participant
	guesses []Guess
	seq     int64
}

func newRoom(name string, host *Participant) *room {
	return &room{
		id:      uuid.NewString(),
		name:    name,
		host:    host,
		members: []*Participant{host},
		guesses: []Guess{}, // marshals as an array even while empty
	}
}

func (r *room) join(p *Participant) {
	r.mu.Lock()
	r.members = append(r.members, p)
	r.mu.Unlock()
}

// leave removes the participant and reports how many members remain. The
// caller deletes the room from the registry when remaining hits zero.
func (r *room) leave(connID string) (removed *Participant, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.members {
		if p.ConnID == connID {
			removed = p
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	return removed, len(r.members)
}

func (r *room) submitGuess(bc Broadcaster, connID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var author *Participant
	for _, p := range r.members {
		if p.ConnID == connID {
			author = p
			break
		}
	}
	if author == nil {
		// The connection was torn down between command admission and now.
		return ErrNotInRoom
	}

	r.guesses = append(r.guesses, Guess{
		SessionID: connID,
		Username:  author.Username,
		Guess:     text,
	})
	r.broadcastUpdateLocked(bc)
	return nil
}

// broadcastUpdate publishes the room's full membership and transcript to all
// current members.
func (r *room) broadcastUpdate(bc Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastUpdateLocked(bc)
}

func (r *room) broadcastUpdateLocked(bc Broadcaster) {
	r.seq++
	bc.Broadcast(r.recipientsLocked(), RoomEvent{
		Timestamp: r.seq,
		Event:     EventRoomUpdate,
		RoomName:  r.name,
		Players: lo.Map(r.members, func(p *Participant, _ int) PlayerInfo {
			return PlayerInfo{SessionID: p.ConnID, Username: p.Username}
		}),
		Guesses: slices.Clone(r.guesses),
	})
}

func (r *room) recipientsLocked() []string {
	return lo.Map(r.members, func(p *Participant, _ int) string { return p.ConnID })
}

func (r *room) memberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *room) info() RoomInfo {
	return RoomInfo{RoomID: r.id, RoomName: r.name, ParticipantCount: r.memberCount()}
}
