package api

import (
	"encoding/json"

	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
	mc "github.com/saeidalz13/battleship-rooms/models/connection"
)

// Request wraps one inbound message. Handlers decode the payload,
// run the operation and return the domain result; writing to the
// connection is left to RequestProcessor.
type Request struct {
	payload []byte
}

func NewRequest(payload ...[]byte) Request {
	var req Request
	if len(payload) == 1 {
		req.payload = payload[0]
	}
	return req
}

func decodePayload[T any](payload []byte) (T, error) {
	var msg mc.Message[T]
	if len(payload) == 0 {
		return msg.Payload, nil
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg.Payload, err
	}
	return msg.Payload, nil
}

func (r Request) HandleCreateRoom(roomManager mb.RoomManager, sessionId string) (*mb.Room, *mb.Player, error) {
	req, err := decodePayload[mc.ReqCreateRoom](r.payload)
	if err != nil {
		return nil, nil, err
	}
	return roomManager.CreateRoom(sessionId, req.Name)
}

// HandleJoinRoom also returns the normalised code so rejections can
// echo it back.
func (r Request) HandleJoinRoom(roomManager mb.RoomManager, sessionId string) (string, *mb.Room, *mb.Player, error) {
	req, err := decodePayload[mc.ReqJoinRoom](r.payload)
	if err != nil {
		return "", nil, nil, err
	}

	code := mb.NormalizeRoomCode(req.Code)
	if code == "" {
		return "", nil, nil, cerr.ErrKeyNotExists("code")
	}

	room, player, err := roomManager.JoinRoom(code, sessionId, req.Name)
	return code, room, player, err
}

// The following handlers run with the room lock held.

func (r Request) HandleReadyPlayer(room *mb.Room, playerIndex int) error {
	req, err := decodePayload[mc.ReqPlayerReady](r.payload)
	if err != nil {
		return err
	}
	if req.Ships == nil {
		return cerr.ErrKeyNotExists("ships")
	}
	return room.Game().SetReady(playerIndex, req.Ships)
}

func (r Request) HandleFire(room *mb.Room, playerIndex int) (mb.ShotResult, error) {
	req, err := decodePayload[mc.ReqFire](r.payload)
	if err != nil {
		return mb.ShotResult{}, err
	}
	if req.Position == nil {
		return mb.ShotResult{}, cerr.ErrKeyNotExists("position")
	}
	return room.Game().Fire(playerIndex, *req.Position)
}

func (r Request) HandleReset(room *mb.Room) error {
	room.Game().Reset()
	return nil
}
