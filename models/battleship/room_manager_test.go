package battleship

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
)

var roomCodePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// sequenceCodes hands out codes in order, repeating the last one.
func sequenceCodes(codes ...string) func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		code := codes[min(i, len(codes)-1)]
		i++
		return code
	}
}

func TestGenerateRoomCode(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if code := GenerateRoomCode(); !roomCodePattern.MatchString(code) {
			t.Fatalf("invalid room code: %q", code)
		}
	}
}

func TestRoomCodesAreUnique(t *testing.T) {
	brm := NewBattleshipRoomManager()

	seen := make(map[string]bool)
	for i := 0; i < 300; i++ {
		room, _, err := brm.CreateRoom(fmt.Sprintf("session-%d", i), "")
		if err != nil {
			t.Fatal(err)
		}
		if !roomCodePattern.MatchString(room.Code()) {
			t.Fatalf("invalid room code: %q", room.Code())
		}
		if seen[room.Code()] {
			t.Fatalf("duplicate room code: %s", room.Code())
		}
		seen[room.Code()] = true
	}

	if brm.Count() != 300 {
		t.Fatalf("expected rooms: %d\tgot: %d", 300, brm.Count())
	}
}

func TestCreateRoomRegeneratesOnCollision(t *testing.T) {
	brm := NewBattleshipRoomManager(WithCodeGenerator(sequenceCodes("AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB")))

	first, _, err := brm.CreateRoom("s1", "")
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := brm.CreateRoom("s2", "")
	if err != nil {
		t.Fatal(err)
	}

	if first.Code() != "AAAAAA" || second.Code() != "BBBBBB" {
		t.Fatalf("expected codes AAAAAA, BBBBBB\tgot: %s, %s", first.Code(), second.Code())
	}
}

func TestCreateRoomCodeSpaceExhausted(t *testing.T) {
	brm := NewBattleshipRoomManager(WithCodeGenerator(func() string { return "ABC123" }))

	if _, _, err := brm.CreateRoom("s1", ""); err != nil {
		t.Fatal(err)
	}
	if _, _, err := brm.CreateRoom("s2", ""); !errors.Is(err, cerr.ErrCodeSpaceExhausted) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrCodeSpaceExhausted, err)
	}
}

func TestJoinRoom(t *testing.T) {
	brm := NewBattleshipRoomManager(WithCodeGenerator(func() string { return "ABC123" }))

	room, host, err := brm.CreateRoom("host", "captain")
	if err != nil {
		t.Fatal(err)
	}
	if host.Index() != HostPlayerIndex || room.Game().Phase() != PhaseSetup || room.IsFull() {
		t.Fatal("unexpected state of a fresh room")
	}

	type join struct {
		code      string
		sessionId string
	}

	tests := []Test[join, int]{
		{name: "second player", input: join{"ABC123", "join"}, expected: JoinPlayerIndex},
		{name: "third player", input: join{"ABC123", "third"}, expectedErr: cerr.ErrRoomFull},
		{name: "unknown code", input: join{"ZZZZZZ", "fourth"}, expectedErr: cerr.ErrRoomNotFound},
		{name: "normalised code", input: join{" abc123 ", "fifth"}, expectedErr: cerr.ErrRoomFull},
		{name: "already in room", input: join{"ABC123", "host"}, expectedErr: cerr.ErrAlreadyInRoom},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			joined, player, err := brm.JoinRoom(test.input.code, test.input.sessionId, "")
			if test.expectedErr != nil {
				if !errors.Is(err, test.expectedErr) {
					t.Fatalf("expected err: %v\tgot: %v", test.expectedErr, err)
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}
			if joined != room {
				t.Fatal("joined a different room")
			}
			if player.Index() != test.expected {
				t.Fatalf("expected slot: %d\tgot: %d", test.expected, player.Index())
			}
			if !joined.IsFull() {
				t.Fatal("expected the room to be full")
			}
		})
	}
}

func TestConcurrentJoinFillsOneSlot(t *testing.T) {
	brm := NewBattleshipRoomManager()
	room, _, err := brm.CreateRoom("host", "")
	if err != nil {
		t.Fatal(err)
	}

	const joiners = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		full    int
	)

	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := brm.JoinRoom(room.Code(), fmt.Sprintf("join-%d", i), "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, cerr.ErrRoomFull):
				full++
			}
		}(i)
	}
	wg.Wait()

	if success != 1 || full != joiners-1 {
		t.Fatalf("expected 1 success and %d full\tgot: %d and %d", joiners-1, success, full)
	}
}

func TestLeave(t *testing.T) {
	brm := NewBattleshipRoomManager()
	room, _, err := brm.CreateRoom("host", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := brm.JoinRoom(room.Code(), "join", ""); err != nil {
		t.Fatal(err)
	}

	if result := brm.Leave(room.Code(), "stranger"); result.Found {
		t.Fatal("a session outside the room cannot leave it")
	}

	result := brm.Leave(room.Code(), "host")
	if !result.Found || result.Deleted || result.Forfeited || result.RemainingSessionId != "join" {
		t.Fatalf("unexpected leave result: %+v", result)
	}
	if !room.IsAbandoned() || room.AcceptsGameMessages() {
		t.Fatal("expected the room to be abandoned")
	}
	if _, _, err := brm.JoinRoom(room.Code(), "late", ""); !errors.Is(err, cerr.ErrRoomNotFound) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrRoomNotFound, err)
	}

	result = brm.Leave(room.Code(), "join")
	if !result.Found || !result.Deleted || result.RemainingSessionId != "" {
		t.Fatalf("unexpected leave result: %+v", result)
	}
	if !room.IsClosed() || brm.Count() != 0 {
		t.Fatal("expected the emptied room to be deleted right away")
	}
	if result := brm.Leave(room.Code(), "join"); result.Found {
		t.Fatal("leaving a deleted room must be a no-op")
	}
}

func TestLeaveWhilePlayingForfeits(t *testing.T) {
	brm := NewBattleshipRoomManager()
	room, _, err := brm.CreateRoom("host", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := brm.JoinRoom(room.Code(), "join", ""); err != nil {
		t.Fatal(err)
	}

	room.Lock()
	for _, idx := range []int{HostPlayerIndex, JoinPlayerIndex} {
		if err := room.Game().SetReady(idx, testFleet()); err != nil {
			t.Fatal(err)
		}
	}
	room.Unlock()

	result := brm.Leave(room.Code(), "join")
	if !result.Forfeited {
		t.Fatal("expected forfeit")
	}

	room.Lock()
	defer room.Unlock()
	winner, ok := room.Game().Winner()
	if room.Game().Phase() != PhaseFinished || !ok || winner != HostPlayerIndex {
		t.Fatalf("expected host to win, phase: %s winner: %d", room.Game().Phase(), winner)
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	brm := NewBattleshipRoomManager(WithClock(func() time.Time { return now }))

	occupied, _, err := brm.CreateRoom("host", "")
	if err != nil {
		t.Fatal(err)
	}

	// empty rooms only linger when every member vanished without a leave
	stale := newRoom("STALE1", now)
	fresh := newRoom("FRESH1", now.Add(DefaultIdleTimeout))
	brm.mu.Lock()
	brm.rooms[stale.code] = stale
	brm.rooms[fresh.code] = fresh
	brm.mu.Unlock()

	if removed := brm.Sweep(now.Add(DefaultIdleTimeout)); len(removed) != 0 {
		t.Fatalf("nothing is idle past the timeout yet, removed: %v", removed)
	}

	removed := brm.Sweep(now.Add(DefaultIdleTimeout + time.Second))
	if len(removed) != 1 || removed[0] != "STALE1" {
		t.Fatalf("expected only STALE1 removed\tgot: %v", removed)
	}
	if !stale.IsClosed() {
		t.Fatal("expected swept room to be closed")
	}

	// a room with a member is never swept, whatever its age
	removed = brm.Sweep(now.Add(DefaultIdleTimeout * 100))
	for _, code := range removed {
		if code == occupied.Code() {
			t.Fatal("swept a room that still has a member")
		}
	}
	if _, err := brm.FetchRoom(occupied.Code()); err != nil {
		t.Fatal(err)
	}
}

func TestRoomTimestamps(t *testing.T) {
	created := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := created
	brm := NewBattleshipRoomManager(WithClock(func() time.Time { return now }))

	room, _, err := brm.CreateRoom("host", "")
	if err != nil {
		t.Fatal(err)
	}

	now = created.Add(time.Minute * 3)
	if _, _, err := brm.JoinRoom(room.Code(), "join", ""); err != nil {
		t.Fatal(err)
	}

	room.Lock()
	defer room.Unlock()
	if !room.CreatedAt().Equal(created) {
		t.Fatalf("expected created at: %s\tgot: %s", created, room.CreatedAt())
	}
	if !room.LastActivity().Equal(now) {
		t.Fatalf("expected last activity: %s\tgot: %s", now, room.LastActivity())
	}
}

func TestCleanupPeriodically(t *testing.T) {
	brm := NewBattleshipRoomManager(
		WithIdleTimeout(time.Millisecond),
		WithSweepInterval(time.Millisecond*5),
	)

	stale := newRoom("STALE1", time.Now().Add(-time.Hour))
	brm.mu.Lock()
	brm.rooms[stale.code] = stale
	brm.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		brm.CleanupPeriodically(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second * 2)
	for brm.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stale room was never swept")
		}
		time.Sleep(time.Millisecond * 5)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop on cancel")
	}
}

func TestDrain(t *testing.T) {
	brm := NewBattleshipRoomManager()
	rooms := make([]*Room, 0, 3)
	for i := 0; i < 3; i++ {
		room, _, err := brm.CreateRoom(fmt.Sprintf("s%d", i), "")
		if err != nil {
			t.Fatal(err)
		}
		rooms = append(rooms, room)
	}

	if n := brm.Drain(); n != 3 {
		t.Fatalf("expected drained: %d\tgot: %d", 3, n)
	}
	if brm.Count() != 0 {
		t.Fatal("expected no rooms after drain")
	}
	for _, room := range rooms {
		if !room.IsClosed() {
			t.Fatalf("room %s still open after drain", room.Code())
		}
	}
}
