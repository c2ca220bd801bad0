package battleship

import (
	"math/rand/v2"

	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
)

const (
	maxPlacementTries = 100
	maxFleetAttempts  = 50
)

type ShipPlacement struct {
	Type      ShipType   `json:"type"`
	Positions []Position `json:"positions"`
}

type Fleet []ShipPlacement

// CanPlace reports whether a new ship could occupy positions. Ships may
// neither overlap nor touch, diagonals included.
func (b *Board) CanPlace(positions []Position) bool {
	if len(positions) == 0 {
		return false
	}

	seen := make(map[Position]struct{}, len(positions))
	for _, p := range positions {
		if !p.InBounds(b.Size) {
			return false
		}
		if _, dup := seen[p]; dup {
			return false
		}
		seen[p] = struct{}{}

		if b.Cells.cell(p).Status != CellStatusEmpty {
			return false
		}

		for _, n := range p.Neighbours(b.Size) {
			if b.Cells.cell(n).ShipID != 0 {
				return false
			}
		}
	}
	return true
}

// Place puts a ship of shipType on positions. The board is left
// untouched when the placement is rejected.
func (b *Board) Place(shipType ShipType, positions []Position) (*Ship, error) {
	if !shipType.IsValid() {
		return nil, cerr.ErrShipTypeUnknown(string(shipType))
	}
	if len(positions) != shipType.Size() {
		return nil, cerr.ErrShipCannotBePlaced(string(shipType))
	}
	if !b.CanPlace(positions) {
		return nil, cerr.ErrShipCannotBePlaced(string(shipType))
	}

	ship := newShip(b.nextShipID, shipType, positions)
	b.nextShipID++

	for _, p := range ship.Positions {
		cell := b.Cells.cell(p)
		cell.Status = CellStatusShip
		cell.ShipID = ship.ID
	}
	b.Ships = append(b.Ships, ship)
	return ship, nil
}

// PlaceFleetRandomly tries every ship of catalog at most maxPlacementTries
// times. A false return leaves a partial fleet behind; callers must
// Clear and start over.
func (b *Board) PlaceFleetRandomly(catalog []ShipType, rng *rand.Rand) bool {
	for _, shipType := range catalog {
		placed := false

		for try := 0; try < maxPlacementTries; try++ {
			positions := randomLine(shipType.Size(), b.Size, rng)
			if !b.CanPlace(positions) {
				continue
			}
			if _, err := b.Place(shipType, positions); err == nil {
				placed = true
				break
			}
		}

		if !placed {
			return false
		}
	}
	return true
}

// NewRandomFleet returns a complete catalog fleet laid out at random.
func NewRandomFleet(rng *rand.Rand) (Fleet, bool) {
	board := NewBoard()

	for attempt := 0; attempt < maxFleetAttempts; attempt++ {
		if board.PlaceFleetRandomly(Catalog, rng) {
			fleet := make(Fleet, 0, len(board.Ships))
			for _, ship := range board.Ships {
				fleet = append(fleet, ShipPlacement{Type: ship.Type, Positions: ship.Positions})
			}
			return fleet, true
		}
		board.Clear()
	}
	return nil, false
}

func randomLine(length, size int, rng *rand.Rand) []Position {
	horizontal := rng.IntN(2) == 0

	var origin Position
	if horizontal {
		origin = NewPosition(rng.IntN(size), rng.IntN(size-length+1))
	} else {
		origin = NewPosition(rng.IntN(size-length+1), rng.IntN(size))
	}

	positions := make([]Position, length)
	for i := 0; i < length; i++ {
		if horizontal {
			positions[i] = NewPosition(origin.Row, origin.Col+i)
		} else {
			positions[i] = NewPosition(origin.Row+i, origin.Col)
		}
	}
	return positions
}

func isStraightLine(positions []Position) bool {
	if len(positions) < 2 {
		return len(positions) == 1
	}

	sameRow, sameCol := true, true
	for _, p := range positions[1:] {
		sameRow = sameRow && p.Row == positions[0].Row
		sameCol = sameCol && p.Col == positions[0].Col
	}
	if sameRow == sameCol {
		return false
	}

	lo, hi := positions[0], positions[0]
	for _, p := range positions {
		if p.Row < lo.Row || p.Col < lo.Col {
			lo = p
		}
		if p.Row > hi.Row || p.Col > hi.Col {
			hi = p
		}
	}

	span := hi.Col - lo.Col
	if sameCol {
		span = hi.Row - lo.Row
	}
	return span == len(positions)-1
}

// BuildFleetBoard validates fleet against the catalog and the placement
// rules and returns the resulting board. Positions are checked for
// duplicates by CanPlace, so a straight span of the right length is
// also contiguous.
func BuildFleetBoard(fleet Fleet) (*Board, error) {
	if len(fleet) != len(Catalog) {
		return nil, cerr.ErrFleetInvalid("fleet must contain exactly one ship of each catalog type")
	}

	counts := make(map[ShipType]int, len(Catalog))
	for _, sp := range fleet {
		if !sp.Type.IsValid() {
			return nil, cerr.ErrShipTypeUnknown(string(sp.Type))
		}
		counts[sp.Type]++
	}
	for _, shipType := range Catalog {
		if counts[shipType] != 1 {
			return nil, cerr.ErrFleetInvalid("fleet must contain exactly one " + string(shipType))
		}
	}

	board := NewBoard()
	for _, sp := range fleet {
		if len(sp.Positions) != sp.Type.Size() {
			return nil, cerr.ErrFleetInvalid(string(sp.Type) + " has the wrong number of positions")
		}
		if !isStraightLine(sp.Positions) {
			return nil, cerr.ErrFleetInvalid(string(sp.Type) + " must be a straight, contiguous line")
		}
		if _, err := board.Place(sp.Type, sp.Positions); err != nil {
			return nil, err
		}
	}
	return board, nil
}
