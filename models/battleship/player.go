package battleship

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	HostPlayerIndex int = 0
	JoinPlayerIndex int = 1
)

type Player struct {
	uuid      string
	name      string
	index     int
	sessionId string
	isReady   bool

	// Board holds the player's own fleet. OpponentView is the
	// projection of the opponent's board after this player's last shot.
	Board        *Board
	OpponentView *Board
}

func NewPlayer(index int, sessionId, name string) *Player {
	if name == "" {
		name = fmt.Sprintf("Player %d", index+1)
	}

	return &Player{
		uuid:         uuid.NewString()[:10],
		name:         name,
		index:        index,
		sessionId:    sessionId,
		Board:        NewBoard(),
		OpponentView: NewBoard(),
	}
}

func (p *Player) Uuid() string {
	return p.uuid
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Index() int {
	return p.index
}

func (p *Player) SessionId() string {
	return p.sessionId
}

func (p *Player) IsReady() bool {
	return p.isReady
}

func (p *Player) setReady(board *Board) {
	p.Board = board
	p.isReady = true
}

func (p *Player) reset() {
	p.Board.Clear()
	p.OpponentView = NewBoard()
	p.isReady = false
}
