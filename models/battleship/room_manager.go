package battleship

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
)

const (
	RoomCodeLength   = 6
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultIdleTimeout   time.Duration = time.Minute * 30
	DefaultSweepInterval time.Duration = time.Minute * 5

	maxCodeAttempts = 100
)

type RoomManager interface {
	CreateRoom(sessionId, playerName string) (*Room, *Player, error)
	JoinRoom(code, sessionId, playerName string) (*Room, *Player, error)
	Leave(code, sessionId string) LeaveResult
	FetchRoom(code string) (*Room, error)

	Sweep(now time.Time) []string
	CleanupPeriodically(ctx context.Context)
	Count() int
	Drain() int
}

// LeaveResult describes what a departure did to its room.
type LeaveResult struct {
	Found     bool
	Deleted   bool
	Forfeited bool

	// Session left behind in the room, empty when the room was deleted.
	RemainingSessionId string
}

type BattleshipRoomManager struct {
	rooms         map[string]*Room
	mu            sync.RWMutex
	idleTimeout   time.Duration
	sweepInterval time.Duration
	generateCode  func() string
	now           func() time.Time
}

var _ RoomManager = (*BattleshipRoomManager)(nil)

type RoomManagerOption func(*BattleshipRoomManager)

func WithIdleTimeout(d time.Duration) RoomManagerOption {
	return func(brm *BattleshipRoomManager) {
		brm.idleTimeout = d
	}
}

func WithSweepInterval(d time.Duration) RoomManagerOption {
	return func(brm *BattleshipRoomManager) {
		brm.sweepInterval = d
	}
}

func WithCodeGenerator(gen func() string) RoomManagerOption {
	return func(brm *BattleshipRoomManager) {
		brm.generateCode = gen
	}
}

func WithClock(now func() time.Time) RoomManagerOption {
	return func(brm *BattleshipRoomManager) {
		brm.now = now
	}
}

func NewBattleshipRoomManager(opts ...RoomManagerOption) *BattleshipRoomManager {
	brm := &BattleshipRoomManager{
		rooms:         make(map[string]*Room, 10),
		idleTimeout:   DefaultIdleTimeout,
		sweepInterval: DefaultSweepInterval,
		generateCode:  GenerateRoomCode,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(brm)
	}
	return brm
}

func GenerateRoomCode() string {
	var sb strings.Builder
	sb.Grow(RoomCodeLength)
	for i := 0; i < RoomCodeLength; i++ {
		sb.WriteByte(RoomCodeAlphabet[rand.IntN(len(RoomCodeAlphabet))])
	}
	return sb.String()
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (brm *BattleshipRoomManager) CreateRoom(sessionId, playerName string) (*Room, *Player, error) {
	brm.mu.Lock()
	defer brm.mu.Unlock()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := brm.generateCode()
		if _, taken := brm.rooms[code]; taken {
			continue
		}

		room := newRoom(code, brm.now())
		host := room.game.addPlayer(HostPlayerIndex, sessionId, playerName)
		brm.rooms[code] = room

		log.Info().Str("code", code).Str("session", sessionId).Msg("room created")
		return room, host, nil
	}
	return nil, nil, cerr.ErrCodeSpaceExhausted
}

func (brm *BattleshipRoomManager) FetchRoom(code string) (*Room, error) {
	code = NormalizeRoomCode(code)

	brm.mu.RLock()
	room, prs := brm.rooms[code]
	brm.mu.RUnlock()
	if !prs {
		return nil, cerr.ErrRoomNotExists(code)
	}
	return room, nil
}

func (brm *BattleshipRoomManager) JoinRoom(code, sessionId, playerName string) (*Room, *Player, error) {
	room, err := brm.FetchRoom(code)
	if err != nil {
		return nil, nil, err
	}

	room.Lock()
	defer room.Unlock()

	// The room may have been deleted or abandoned between lookup and lock.
	if !room.AcceptsGameMessages() {
		return nil, nil, cerr.ErrRoomNotExists(room.code)
	}
	if _, in := room.SlotOf(sessionId); in {
		return nil, nil, cerr.ErrAlreadyInRoom
	}

	slot, ok := room.freeSlot()
	if !ok {
		return nil, nil, cerr.ErrRoomIsFull(room.code)
	}

	player := room.game.addPlayer(slot, sessionId, playerName)
	room.Touch(brm.now())

	log.Info().Str("code", room.code).Str("session", sessionId).Int("slot", slot).Msg("player joined room")
	return room, player, nil
}

// Leave frees the session's slot. An emptied room is deleted right away;
// otherwise it is abandoned and, mid-game, forfeited to the remaining player.
func (brm *BattleshipRoomManager) Leave(code, sessionId string) LeaveResult {
	room, err := brm.FetchRoom(code)
	if err != nil {
		return LeaveResult{}
	}

	room.Lock()
	defer room.Unlock()

	slot, in := room.SlotOf(sessionId)
	if !in {
		return LeaveResult{}
	}

	result := LeaveResult{Found: true}
	result.Forfeited = room.game.Forfeit(slot)
	room.game.removePlayer(slot)
	room.Touch(brm.now())

	if room.MemberCount() == 0 {
		brm.deleteLocked(room)
		result.Deleted = true
		return result
	}

	room.abandoned = true
	if remaining := room.SessionIds(); len(remaining) > 0 {
		result.RemainingSessionId = remaining[0]
	}
	log.Info().Str("code", room.code).Str("session", sessionId).Bool("forfeited", result.Forfeited).Msg("player left room")
	return result
}

// deleteLocked removes room from the registry. Caller holds the room lock.
func (brm *BattleshipRoomManager) deleteLocked(room *Room) {
	room.closed = true

	brm.mu.Lock()
	if brm.rooms[room.code] == room {
		delete(brm.rooms, room.code)
	}
	brm.mu.Unlock()

	log.Info().Str("code", room.code).Time("createdAt", room.CreatedAt()).Msg("room deleted")
}

// Sweep deletes rooms that have no members and have been idle longer
// than the idle timeout. Rooms with a member are never swept.
func (brm *BattleshipRoomManager) Sweep(now time.Time) []string {
	brm.mu.RLock()
	candidates := make([]*Room, 0, len(brm.rooms))
	for _, room := range brm.rooms {
		candidates = append(candidates, room)
	}
	brm.mu.RUnlock()

	deleted := make([]string, 0)
	for _, room := range candidates {
		room.Lock()
		if !room.closed && room.MemberCount() == 0 && now.Sub(room.LastActivity()) > brm.idleTimeout {
			brm.deleteLocked(room)
			deleted = append(deleted, room.code)
		}
		room.Unlock()
	}
	return deleted
}

func (brm *BattleshipRoomManager) CleanupPeriodically(ctx context.Context) {
	ticker := time.NewTicker(brm.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			removed := brm.Sweep(brm.now())
			log.Debug().Strs("removed", removed).Int("active", brm.Count()).Msg("room sweep")
		}
	}
}

func (brm *BattleshipRoomManager) Count() int {
	brm.mu.RLock()
	defer brm.mu.RUnlock()
	return len(brm.rooms)
}

// Drain closes and removes every room. Used on shutdown.
func (brm *BattleshipRoomManager) Drain() int {
	brm.mu.Lock()
	rooms := brm.rooms
	brm.rooms = make(map[string]*Room)
	brm.mu.Unlock()

	for _, room := range rooms {
		room.Lock()
		room.closed = true
		room.Unlock()
	}
	return len(rooms)
}
