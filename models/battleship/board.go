package battleship

type ShotOutcome string

const (
	ShotOutcomeWater        ShotOutcome = "water"
	ShotOutcomeHit          ShotOutcome = "hit"
	ShotOutcomeSunk         ShotOutcome = "sunk"
	ShotOutcomeAlreadyFired ShotOutcome = "already_fired"
)

type ShotResult struct {
	Position Position    `json:"position"`
	Outcome  ShotOutcome `json:"outcome"`
	ShipID   int         `json:"shipId,omitempty"`
	ShipType ShipType    `json:"shipType,omitempty"`
}

type Board struct {
	Size  int     `json:"size"`
	Cells Grid    `json:"cells"`
	Ships []*Ship `json:"ships"`

	nextShipID int
}

func NewBoard() *Board {
	return NewBoardOfSize(BoardSize)
}

func NewBoardOfSize(size int) *Board {
	return &Board{
		Size:       size,
		Cells:      NewGrid(size),
		Ships:      make([]*Ship, 0, len(Catalog)),
		nextShipID: 1,
	}
}

func (b *Board) Clear() {
	b.Cells = NewGrid(b.Size)
	b.Ships = make([]*Ship, 0, len(Catalog))
	b.nextShipID = 1
}

func (b *Board) Clone() *Board {
	cp := &Board{
		Size:       b.Size,
		Cells:      b.Cells.clone(),
		Ships:      make([]*Ship, 0, len(b.Ships)),
		nextShipID: b.nextShipID,
	}
	for _, ship := range b.Ships {
		cp.Ships = append(cp.Ships, ship.clone())
	}
	return cp
}

func (b *Board) CellAt(p Position) (Cell, error) {
	if err := ValidatePosition(p, b.Size); err != nil {
		return Cell{}, err
	}
	return *b.Cells.cell(p), nil
}

func (b *Board) findShip(id int) *Ship {
	for _, ship := range b.Ships {
		if ship.ID == id {
			return ship
		}
	}
	return nil
}

// Fire resolves a shot at p. Firing at a cell already marked
// hit or miss changes nothing and reports ShotOutcomeAlreadyFired.
func (b *Board) Fire(p Position) (ShotResult, error) {
	if err := ValidatePosition(p, b.Size); err != nil {
		return ShotResult{}, err
	}

	cell := b.Cells.cell(p)
	result := ShotResult{Position: p}

	switch cell.Status {
	case CellStatusHit, CellStatusMiss:
		result.Outcome = ShotOutcomeAlreadyFired
		return result, nil

	case CellStatusEmpty:
		cell.Status = CellStatusMiss
		result.Outcome = ShotOutcomeWater
		return result, nil
	}

	cell.Status = CellStatusHit
	result.Outcome = ShotOutcomeHit

	ship := b.findShip(cell.ShipID)
	if ship == nil {
		return result, nil
	}
	result.ShipID = ship.ID
	result.ShipType = ship.Type

	if ship.GotHit() {
		result.Outcome = ShotOutcomeSunk
	}
	return result, nil
}

func (b *Board) AllSunk() bool {
	if len(b.Ships) == 0 {
		return false
	}
	for _, ship := range b.Ships {
		if !ship.IsSunk() {
			return false
		}
	}
	return true
}

func (b *Board) SunkCount() int {
	sunk := 0
	for _, ship := range b.Ships {
		if ship.IsSunk() {
			sunk++
		}
	}
	return sunk
}

// ProjectOpponentView returns the board as the opponent may see it:
// undamaged ship cells read as empty, hit and miss cells keep their
// ship linkage, and only sunk ships are listed.
func (b *Board) ProjectOpponentView() *Board {
	view := &Board{
		Size:  b.Size,
		Cells: b.Cells.clone(),
		Ships: make([]*Ship, 0, len(b.Ships)),
	}

	for row := range view.Cells {
		for col := range view.Cells[row] {
			if view.Cells[row][col].Status == CellStatusShip {
				view.Cells[row][col].Status = CellStatusEmpty
				view.Cells[row][col].ShipID = 0
			}
		}
	}

	for _, ship := range b.Ships {
		if ship.IsSunk() {
			view.Ships = append(view.Ships, ship.clone())
		}
	}
	return view
}
