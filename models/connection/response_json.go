package connection

import (
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
)

type RespRoomCreated struct {
	Code string `json:"code"`
}

type RespPlayerAssigned struct {
	PlayerId int `json:"playerId"`
}

type RespRoomJoined struct {
	Code        string `json:"code"`
	PlayerCount int    `json:"playerCount"`
}

// Shared by ROOM_FULL, ROOM_NOT_FOUND, ROOM_READY and PLAYER_LEFT.
type RespRoomCode struct {
	Code string `json:"code"`
}

type RespDisconnect struct {
	Message string `json:"message"`
}

type RespError struct {
	Message string `json:"message"`
}

type PlayerState struct {
	Id    string    `json:"id"`
	Index int       `json:"index"`
	Name  string    `json:"name"`
	Ready bool      `json:"ready"`
	Board *mb.Board `json:"board"`
}

// GameState is the per-recipient view of a room. Only the recipient's
// own board is sent unfiltered.
type GameState struct {
	Code     string        `json:"code"`
	Phase    mb.Phase      `json:"phase"`
	Turn     int           `json:"turn"`
	Winner   *int          `json:"winner"`
	You      int           `json:"you"`
	Players  []PlayerState `json:"players"`
	LastShot *mb.LastShot  `json:"lastShot"`
	Fleet    []FleetEntry  `json:"fleet"`
}

type FleetEntry struct {
	Type mb.ShipType `json:"type"`
	Size int         `json:"size"`
}
