package battleship

type ShipType string

const (
	ShipTypeCarrier    ShipType = "carrier"
	ShipTypeBattleship ShipType = "battleship"
	ShipTypeCruiser    ShipType = "cruiser"
	ShipTypeSubmarine  ShipType = "submarine"
	ShipTypeDestroyer  ShipType = "destroyer"
)

// Catalog lists the fleet every player places, in the order
// random placement tries them (largest first).
var Catalog = []ShipType{
	ShipTypeCarrier,
	ShipTypeBattleship,
	ShipTypeCruiser,
	ShipTypeSubmarine,
	ShipTypeDestroyer,
}

var shipSizes = map[ShipType]int{
	ShipTypeCarrier:    5,
	ShipTypeBattleship: 4,
	ShipTypeCruiser:    3,
	ShipTypeSubmarine:  3,
	ShipTypeDestroyer:  2,
}

func (st ShipType) Size() int {
	return shipSizes[st]
}

func (st ShipType) IsValid() bool {
	_, ok := shipSizes[st]
	return ok
}

type Ship struct {
	ID        int        `json:"id"`
	Type      ShipType   `json:"type"`
	Positions []Position `json:"positions"`
	Hits      int        `json:"hits"`
	Sunk      bool       `json:"sunk"`
}

func newShip(id int, shipType ShipType, positions []Position) *Ship {
	cp := make([]Position, len(positions))
	copy(cp, positions)

	return &Ship{
		ID:        id,
		Type:      shipType,
		Positions: cp,
	}
}

func (sh *Ship) Size() int {
	return sh.Type.Size()
}

func (sh *Ship) IsSunk() bool {
	return sh.Hits >= sh.Size()
}

// Registers one hit and reports whether this very
// hit sank the ship.
func (sh *Ship) GotHit() bool {
	if sh.IsSunk() {
		return false
	}
	sh.Hits++
	sh.Sunk = sh.IsSunk()
	return sh.Sunk
}

func (sh *Ship) clone() *Ship {
	cp := *sh
	cp.Positions = make([]Position, len(sh.Positions))
	copy(cp.Positions, sh.Positions)
	return &cp
}
