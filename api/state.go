package api

import (
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
	mc "github.com/saeidalz13/battleship-rooms/models/connection"
)

// BuildGameState projects room for the player at recipient. The
// recipient's own board goes out verbatim, every other board through
// ProjectOpponentView. Caller holds the room lock.
func BuildGameState(room *mb.Room, recipient int) mc.GameState {
	game := room.Game()

	state := mc.GameState{
		Code:     room.Code(),
		Phase:    game.Phase(),
		Turn:     game.Turn(),
		You:      recipient,
		Players:  make([]mc.PlayerState, 0, 2),
		LastShot: game.LastShot(),
		Fleet:    fleetEntries(),
	}

	if winner, ok := game.Winner(); ok {
		state.Winner = &winner
	}

	for _, p := range game.Players() {
		board := p.Board
		if p.Index() != recipient {
			board = p.Board.ProjectOpponentView()
		}

		state.Players = append(state.Players, mc.PlayerState{
			Id:    p.Uuid(),
			Index: p.Index(),
			Name:  p.Name(),
			Ready: p.IsReady(),
			Board: board,
		})
	}
	return state
}

func fleetEntries() []mc.FleetEntry {
	entries := make([]mc.FleetEntry, 0, len(mb.Catalog))
	for _, shipType := range mb.Catalog {
		entries = append(entries, mc.FleetEntry{Type: shipType, Size: shipType.Size()})
	}
	return entries
}
