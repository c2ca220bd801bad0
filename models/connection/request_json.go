package connection

import (
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
)

type ReqCreateRoom struct {
	Name string `json:"name,omitempty"`
}

type ReqJoinRoom struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

type ReqPlayerReady struct {
	Ships mb.Fleet `json:"ships"`
}

type ReqFire struct {
	Position *mb.Position `json:"position"`
}
