package error

import (
	"errors"
	"fmt"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrRoomClosed         = errors.New("room no longer accepts game messages")
	ErrNotInRoom          = errors.New("session is not in a room")
	ErrAlreadyInRoom      = errors.New("session is already in a room")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")

	ErrInvalidPhase   = errors.New("action not allowed in current phase")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrAlreadyReady   = errors.New("player is already ready")
	ErrPlayerNotFound = errors.New("player does not exist")
	ErrAlreadyFired   = errors.New("position already fired at")

	ErrOutOfBounds   = errors.New("position out of board bounds")
	ErrInvalidFleet  = errors.New("invalid fleet")
	ErrPlacement     = errors.New("ship cannot be placed")
	ErrUnknownShip   = errors.New("unknown ship type")
	ErrMissingField  = errors.New("missing required payload field")
	ErrSessionAbsent = errors.New("session does not exist")
)

func ErrRoomNotExists(code string) error {
	return fmt.Errorf("%w, code: %s", ErrRoomNotFound, code)
}

func ErrRoomIsFull(code string) error {
	return fmt.Errorf("%w, code: %s", ErrRoomFull, code)
}

func ErrRoomIsClosed(code string) error {
	return fmt.Errorf("%w, code: %s", ErrRoomClosed, code)
}

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("%w, id: %s", ErrSessionAbsent, sessionId)
}

func ErrPlayerNotExist(playerIndex int) error {
	return fmt.Errorf("%w, index: %d", ErrPlayerNotFound, playerIndex)
}

func ErrNotTurnForAttacker(playerIndex int) error {
	return fmt.Errorf("%w, player: %d", ErrNotYourTurn, playerIndex)
}

func ErrPhaseMismatch(want, got string) error {
	return fmt.Errorf("%w, expected: %s\tgot: %s", ErrInvalidPhase, want, got)
}

func ErrRowOrColOutOfGridBound(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrOutOfBounds, row, col)
}

func ErrAttackPositionAlreadyFired(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrAlreadyFired, row, col)
}

func ErrShipTypeUnknown(shipType string) error {
	return fmt.Errorf("%w: %s", ErrUnknownShip, shipType)
}

func ErrShipCannotBePlaced(shipType string) error {
	return fmt.Errorf("%w: %s overlaps, touches another ship or leaves the grid", ErrPlacement, shipType)
}

func ErrFleetInvalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFleet, reason)
}

func ErrKeyNotExists(key string) error {
	return fmt.Errorf("%w:\t%s", ErrMissingField, key)
}
