package battleship

import cerr "github.com/saeidalz13/battleship-rooms/internal/error"

const BoardSize int = 10

type CellStatus string

const (
	CellStatusEmpty CellStatus = "empty"
	CellStatusShip  CellStatus = "ship"
	CellStatusHit   CellStatus = "hit"
	CellStatusMiss  CellStatus = "miss"
)

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewPosition(row, col int) Position {
	return Position{Row: row, Col: col}
}

func (p Position) InBounds(size int) bool {
	return p.Row >= 0 && p.Row < size && p.Col >= 0 && p.Col < size
}

// Returns the in-bound positions surrounding p,
// diagonals included.
func (p Position) Neighbours(size int) []Position {
	neighbours := make([]Position, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := NewPosition(p.Row+dr, p.Col+dc)
			if n.InBounds(size) {
				neighbours = append(neighbours, n)
			}
		}
	}
	return neighbours
}

func ValidatePosition(p Position, size int) error {
	if !p.InBounds(size) {
		return cerr.ErrRowOrColOutOfGridBound(p.Row, p.Col)
	}
	return nil
}

type Cell struct {
	Position Position   `json:"position"`
	Status   CellStatus `json:"status"`
	ShipID   int        `json:"shipId,omitempty"`
}

type Grid [][]Cell

// Creates a new default grid
// All cells are CellStatusEmpty
func NewGrid(size int) Grid {
	grid := make(Grid, size)

	for row := 0; row < size; row++ {
		grid[row] = make([]Cell, size)
		for col := 0; col < size; col++ {
			grid[row][col] = Cell{Position: NewPosition(row, col), Status: CellStatusEmpty}
		}
	}
	return grid
}

func (g Grid) cell(p Position) *Cell {
	return &g[p.Row][p.Col]
}

func (g Grid) clone() Grid {
	cp := make(Grid, len(g))
	for row := range g {
		cp[row] = make([]Cell, len(g[row]))
		copy(cp[row], g[row])
	}
	return cp
}
