package battleship

import (
	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
)

type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type LastShot struct {
	By int `json:"by"`
	ShotResult
}

// Game is the per-room state machine: setup -> playing -> finished.
// It holds no lock of its own; the owning Room serialises access.
type Game struct {
	phase    Phase
	turn     int
	winner   int
	hasWon   bool
	players  [2]*Player
	lastShot *LastShot
}

func newGame() *Game {
	return &Game{phase: PhaseSetup, turn: HostPlayerIndex}
}

func (g *Game) Phase() Phase {
	return g.phase
}

func (g *Game) Turn() int {
	return g.turn
}

// Winner returns the index of the winning player and whether
// there is one.
func (g *Game) Winner() (int, bool) {
	return g.winner, g.hasWon
}

func (g *Game) LastShot() *LastShot {
	return g.lastShot
}

func (g *Game) FetchPlayer(index int) (*Player, error) {
	if index < 0 || index >= len(g.players) || g.players[index] == nil {
		return nil, cerr.ErrPlayerNotExist(index)
	}
	return g.players[index], nil
}

func (g *Game) Players() []*Player {
	players := make([]*Player, 0, len(g.players))
	for _, p := range g.players {
		if p != nil {
			players = append(players, p)
		}
	}
	return players
}

func (g *Game) PlayerCount() int {
	return len(g.Players())
}

func (g *Game) addPlayer(index int, sessionId, name string) *Player {
	player := NewPlayer(index, sessionId, name)
	g.players[index] = player
	return player
}

func (g *Game) removePlayer(index int) {
	g.players[index] = nil
}

func (g *Game) IsReadyToStart() bool {
	host, join := g.players[HostPlayerIndex], g.players[JoinPlayerIndex]
	return host != nil && join != nil && host.IsReady() && join.IsReady()
}

// SetReady commits the player's fleet. Once both players are ready the
// game starts with the host holding the turn.
func (g *Game) SetReady(playerIndex int, fleet Fleet) error {
	if g.phase != PhaseSetup {
		return cerr.ErrPhaseMismatch(string(PhaseSetup), string(g.phase))
	}

	player, err := g.FetchPlayer(playerIndex)
	if err != nil {
		return err
	}
	if player.IsReady() {
		return cerr.ErrAlreadyReady
	}

	board, err := BuildFleetBoard(fleet)
	if err != nil {
		return err
	}
	player.setReady(board)

	if g.IsReadyToStart() {
		g.phase = PhasePlaying
		g.turn = HostPlayerIndex
	}
	return nil
}

// Fire resolves a shot from requesterIndex against the opponent's board.
// Every accepted shot ends the requester's turn unless it wins the game.
func (g *Game) Fire(requesterIndex int, p Position) (ShotResult, error) {
	if g.phase != PhasePlaying {
		return ShotResult{}, cerr.ErrPhaseMismatch(string(PhasePlaying), string(g.phase))
	}
	if requesterIndex != g.turn {
		return ShotResult{}, cerr.ErrNotTurnForAttacker(requesterIndex)
	}

	attacker, err := g.FetchPlayer(requesterIndex)
	if err != nil {
		return ShotResult{}, err
	}
	defender, err := g.FetchPlayer(otherIndex(requesterIndex))
	if err != nil {
		return ShotResult{}, err
	}

	result, err := defender.Board.Fire(p)
	if err != nil {
		return ShotResult{}, err
	}
	if result.Outcome == ShotOutcomeAlreadyFired {
		return result, cerr.ErrAttackPositionAlreadyFired(p.Row, p.Col)
	}

	attacker.OpponentView = defender.Board.ProjectOpponentView()
	g.lastShot = &LastShot{By: requesterIndex, ShotResult: result}

	if defender.Board.AllSunk() {
		g.finish(requesterIndex)
		return result, nil
	}

	g.turn = otherIndex(g.turn)
	return result, nil
}

// Forfeit ends a game in progress in favour of the player who stayed.
// It reports whether the game was actually decided by it.
func (g *Game) Forfeit(leaverIndex int) bool {
	if g.phase != PhasePlaying {
		return false
	}
	g.finish(otherIndex(leaverIndex))
	return true
}

func (g *Game) Reset() {
	for _, p := range g.Players() {
		p.reset()
	}
	g.phase = PhaseSetup
	g.turn = HostPlayerIndex
	g.winner = 0
	g.hasWon = false
	g.lastShot = nil
}

func (g *Game) finish(winnerIndex int) {
	g.phase = PhaseFinished
	g.winner = winnerIndex
	g.hasWon = true
}

func otherIndex(index int) int {
	return 1 - index
}
