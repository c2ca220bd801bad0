package battleship

import (
	"sync"
	"time"
)

// Room pairs at most two sessions around one Game. Every read or
// mutation of the room or its game must happen while holding the
// room lock (Lock/Unlock).
type Room struct {
	mu           sync.Mutex
	code         string
	game         *Game
	createdAt    time.Time
	lastActivity time.Time

	// closed rooms have been removed from the registry.
	closed bool
	// abandoned rooms lost a member and accept no more game messages.
	abandoned bool
}

func newRoom(code string, now time.Time) *Room {
	return &Room{
		code:         code,
		game:         newGame(),
		createdAt:    now,
		lastActivity: now,
	}
}

func (r *Room) Lock() {
	r.mu.Lock()
}

func (r *Room) Unlock() {
	r.mu.Unlock()
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Game() *Game {
	return r.game
}

func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

func (r *Room) LastActivity() time.Time {
	return r.lastActivity
}

func (r *Room) Touch(now time.Time) {
	r.lastActivity = now
}

func (r *Room) IsClosed() bool {
	return r.closed
}

func (r *Room) IsAbandoned() bool {
	return r.abandoned
}

// AcceptsGameMessages is false once the room was deleted or a member left.
func (r *Room) AcceptsGameMessages() bool {
	return !r.closed && !r.abandoned
}

// IsFull reports whether both slots are physically occupied.
func (r *Room) IsFull() bool {
	return r.game.PlayerCount() == len(r.game.players)
}

func (r *Room) MemberCount() int {
	return r.game.PlayerCount()
}

// SlotOf returns the player index the session occupies in this room.
func (r *Room) SlotOf(sessionId string) (int, bool) {
	for i, p := range r.game.players {
		if p != nil && p.SessionId() == sessionId {
			return i, true
		}
	}
	return -1, false
}

func (r *Room) SessionIds() []string {
	ids := make([]string, 0, len(r.game.players))
	for _, p := range r.game.Players() {
		ids = append(ids, p.SessionId())
	}
	return ids
}

func (r *Room) freeSlot() (int, bool) {
	for i, p := range r.game.players {
		if p == nil {
			return i, true
		}
	}
	return -1, false
}
