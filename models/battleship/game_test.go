package battleship

import (
	"errors"
	"sync"
	"testing"

	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()

	game := newGame()
	game.addPlayer(HostPlayerIndex, "host-session", "host")
	game.addPlayer(JoinPlayerIndex, "join-session", "")
	return game
}

func newPlayingGame(t *testing.T) *Game {
	t.Helper()

	game := newTestGame(t)
	for _, idx := range []int{HostPlayerIndex, JoinPlayerIndex} {
		if err := game.SetReady(idx, testFleet()); err != nil {
			t.Fatal(err)
		}
	}
	return game
}

// waterCells are never occupied by testFleet.
func waterCells() []Position {
	cells := make([]Position, 0, BoardSize*BoardSize)
	for row := 1; row < BoardSize; row += 2 {
		for col := 0; col < BoardSize; col++ {
			cells = append(cells, NewPosition(row, col))
		}
	}
	return cells
}

func TestDefaultPlayerName(t *testing.T) {
	game := newTestGame(t)
	join, err := game.FetchPlayer(JoinPlayerIndex)
	if err != nil {
		t.Fatal(err)
	}
	if join.Name() != "Player 2" {
		t.Fatalf("expected name: %s\tgot: %s", "Player 2", join.Name())
	}
	if join.Uuid() == "" {
		t.Fatal("expected player uuid")
	}
}

func TestSetReady(t *testing.T) {
	game := newTestGame(t)

	if err := game.SetReady(HostPlayerIndex, testFleet()[:3]); !errors.Is(err, cerr.ErrInvalidFleet) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrInvalidFleet, err)
	}
	host, _ := game.FetchPlayer(HostPlayerIndex)
	if host.IsReady() {
		t.Fatal("rejected fleet must not mark the player ready")
	}

	if err := game.SetReady(HostPlayerIndex, testFleet()); err != nil {
		t.Fatal(err)
	}
	if game.Phase() != PhaseSetup {
		t.Fatalf("expected phase: %s\tgot: %s", PhaseSetup, game.Phase())
	}
	if err := game.SetReady(HostPlayerIndex, testFleet()); !errors.Is(err, cerr.ErrAlreadyReady) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrAlreadyReady, err)
	}

	if err := game.SetReady(JoinPlayerIndex, testFleet()); err != nil {
		t.Fatal(err)
	}
	if game.Phase() != PhasePlaying {
		t.Fatalf("expected phase: %s\tgot: %s", PhasePlaying, game.Phase())
	}
	if game.Turn() != HostPlayerIndex {
		t.Fatalf("expected turn: %d\tgot: %d", HostPlayerIndex, game.Turn())
	}

	if err := game.SetReady(JoinPlayerIndex, testFleet()); !errors.Is(err, cerr.ErrInvalidPhase) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrInvalidPhase, err)
	}
}

func TestSetReadyWithoutOpponent(t *testing.T) {
	game := newGame()
	game.addPlayer(HostPlayerIndex, "host-session", "host")

	if err := game.SetReady(HostPlayerIndex, testFleet()); err != nil {
		t.Fatal(err)
	}
	if game.Phase() != PhaseSetup {
		t.Fatalf("a lone ready player must not start the game, phase: %s", game.Phase())
	}
	if err := game.SetReady(JoinPlayerIndex, testFleet()); !errors.Is(err, cerr.ErrPlayerNotFound) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrPlayerNotFound, err)
	}
}

func TestFireBeforePlaying(t *testing.T) {
	game := newTestGame(t)
	if _, err := game.Fire(HostPlayerIndex, NewPosition(0, 0)); !errors.Is(err, cerr.ErrInvalidPhase) {
		t.Fatalf("expected err: %v\tgot: %v", cerr.ErrInvalidPhase, err)
	}
}

func TestTurnAlternates(t *testing.T) {
	game := newPlayingGame(t)

	type shot struct {
		by  int
		pos Position
	}

	tests := []Test[shot, ShotOutcome]{
		{name: "join fires out of turn", input: shot{JoinPlayerIndex, NewPosition(1, 0)}, expectedErr: cerr.ErrNotYourTurn},
		{name: "host misses", input: shot{HostPlayerIndex, NewPosition(1, 0)}, expected: ShotOutcomeWater},
		{name: "host fires twice", input: shot{HostPlayerIndex, NewPosition(1, 1)}, expectedErr: cerr.ErrNotYourTurn},
		{name: "join hits", input: shot{JoinPlayerIndex, NewPosition(0, 0)}, expected: ShotOutcomeHit},
		{name: "hit does not grant another shot", input: shot{JoinPlayerIndex, NewPosition(0, 1)}, expectedErr: cerr.ErrNotYourTurn},
		{name: "host hits", input: shot{HostPlayerIndex, NewPosition(0, 0)}, expected: ShotOutcomeHit},
		{name: "join repeats a cell", input: shot{JoinPlayerIndex, NewPosition(0, 0)}, expectedErr: cerr.ErrAlreadyFired},
		{name: "join still holds the turn", input: shot{JoinPlayerIndex, NewPosition(9, 9)}, expected: ShotOutcomeWater},
		{name: "host out of bounds", input: shot{HostPlayerIndex, NewPosition(10, 0)}, expectedErr: cerr.ErrOutOfBounds},
		{name: "host keeps the turn after a bad shot", input: shot{HostPlayerIndex, NewPosition(3, 3)}, expected: ShotOutcomeWater},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			turnBefore := game.Turn()
			result, err := game.Fire(test.input.by, test.input.pos)

			if test.expectedErr != nil {
				if !errors.Is(err, test.expectedErr) {
					t.Fatalf("expected err: %v\tgot: %v", test.expectedErr, err)
				}
				if game.Turn() != turnBefore {
					t.Fatalf("rejected shot changed the turn from %d to %d", turnBefore, game.Turn())
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}
			if result.Outcome != test.expected {
				t.Fatalf("expected outcome: %s\tgot: %s", test.expected, result.Outcome)
			}
			if game.Turn() == turnBefore {
				t.Fatalf("turn did not flip after shot by %d", test.input.by)
			}

			last := game.LastShot()
			if last == nil || last.By != test.input.by || last.Position != test.input.pos {
				t.Fatalf("unexpected last shot: %+v", last)
			}
		})
	}
}

func TestFireRefreshesOpponentView(t *testing.T) {
	game := newPlayingGame(t)

	if _, err := game.Fire(HostPlayerIndex, NewPosition(0, 2)); err != nil {
		t.Fatal(err)
	}

	host, _ := game.FetchPlayer(HostPlayerIndex)
	cell, err := host.OpponentView.CellAt(NewPosition(0, 2))
	if err != nil {
		t.Fatal(err)
	}
	if cell.Status != CellStatusHit {
		t.Fatalf("expected view cell: %s\tgot: %s", CellStatusHit, cell.Status)
	}
	if got := countStatus(host.OpponentView, CellStatusShip); got != 0 {
		t.Fatalf("opponent view exposes %d ship cells", got)
	}
}

func TestGameFinishes(t *testing.T) {
	game := newPlayingGame(t)
	join, _ := game.FetchPlayer(JoinPlayerIndex)

	targets := make([]Position, 0)
	for _, ship := range join.Board.Ships {
		targets = append(targets, ship.Positions...)
	}
	misses := waterCells()

	for i, target := range targets {
		result, err := game.Fire(HostPlayerIndex, target)
		if err != nil {
			t.Fatalf("shot %d: %v", i, err)
		}

		if i == len(targets)-1 {
			if result.Outcome != ShotOutcomeSunk {
				t.Fatalf("expected the last shot to sink\tgot: %s", result.Outcome)
			}
			break
		}
		if game.Phase() != PhasePlaying {
			t.Fatalf("game ended early after shot %d", i)
		}
		if _, err := game.Fire(JoinPlayerIndex, misses[i]); err != nil {
			t.Fatalf("join shot %d: %v", i, err)
		}
	}

	if game.Phase() != PhaseFinished {
		t.Fatalf("expected phase: %s\tgot: %s", PhaseFinished, game.Phase())
	}
	winner, ok := game.Winner()
	if !ok || winner != HostPlayerIndex {
		t.Fatalf("expected winner: %d\tgot: %d (%v)", HostPlayerIndex, winner, ok)
	}

	for _, idx := range []int{HostPlayerIndex, JoinPlayerIndex} {
		if _, err := game.Fire(idx, NewPosition(9, 9)); !errors.Is(err, cerr.ErrInvalidPhase) {
			t.Fatalf("player %d: expected err: %v\tgot: %v", idx, cerr.ErrInvalidPhase, err)
		}
	}
}

func TestForfeit(t *testing.T) {
	game := newTestGame(t)
	if game.Forfeit(JoinPlayerIndex) {
		t.Fatal("forfeit outside of play must not decide the game")
	}

	game = newPlayingGame(t)
	if !game.Forfeit(JoinPlayerIndex) {
		t.Fatal("expected forfeit while playing")
	}
	winner, ok := game.Winner()
	if game.Phase() != PhaseFinished || !ok || winner != HostPlayerIndex {
		t.Fatalf("expected host to win by forfeit, phase: %s winner: %d", game.Phase(), winner)
	}
}

func TestReset(t *testing.T) {
	game := newPlayingGame(t)
	if _, err := game.Fire(HostPlayerIndex, NewPosition(0, 0)); err != nil {
		t.Fatal(err)
	}
	game.Forfeit(JoinPlayerIndex)

	game.Reset()

	if game.Phase() != PhaseSetup || game.Turn() != HostPlayerIndex || game.LastShot() != nil {
		t.Fatalf("unexpected state after reset, phase: %s turn: %d", game.Phase(), game.Turn())
	}
	if _, ok := game.Winner(); ok {
		t.Fatal("expected winner cleared")
	}
	for _, p := range game.Players() {
		if p.IsReady() || len(p.Board.Ships) != 0 || len(p.OpponentView.Ships) != 0 {
			t.Fatalf("player %d not reset", p.Index())
		}
		if countStatus(p.Board, CellStatusEmpty) != BoardSize*BoardSize {
			t.Fatalf("player %d board not cleared", p.Index())
		}
	}

	// a reset game can be played again
	for _, idx := range []int{HostPlayerIndex, JoinPlayerIndex} {
		if err := game.SetReady(idx, testFleet()); err != nil {
			t.Fatal(err)
		}
	}
	if game.Phase() != PhasePlaying {
		t.Fatalf("expected phase: %s\tgot: %s", PhasePlaying, game.Phase())
	}
}

func TestConcurrentFiresPassTheTurnOnce(t *testing.T) {
	brm := NewBattleshipRoomManager()
	room, _, err := brm.CreateRoom("host-session", "host")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := brm.JoinRoom(room.Code(), "join-session", "join"); err != nil {
		t.Fatal(err)
	}

	room.Lock()
	for _, idx := range []int{HostPlayerIndex, JoinPlayerIndex} {
		if err := room.Game().SetReady(idx, testFleet()); err != nil {
			room.Unlock()
			t.Fatal(err)
		}
	}
	room.Unlock()

	targets := waterCells()
	const shooters = 50
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		success     int
		notYourTurn int
	)

	for i := 0; i < shooters; i++ {
		wg.Add(1)
		go func(p Position) {
			defer wg.Done()

			room.Lock()
			_, err := room.Game().Fire(HostPlayerIndex, p)
			room.Unlock()

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, cerr.ErrNotYourTurn):
				notYourTurn++
			}
		}(targets[i])
	}
	wg.Wait()

	if success != 1 || notYourTurn != shooters-1 {
		t.Fatalf("expected 1 success and %d rejections\tgot: %d and %d", shooters-1, success, notYourTurn)
	}

	room.Lock()
	defer room.Unlock()
	if room.Game().Turn() != JoinPlayerIndex {
		t.Fatalf("expected turn: %d\tgot: %d", JoinPlayerIndex, room.Game().Turn())
	}
}
