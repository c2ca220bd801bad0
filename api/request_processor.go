package api

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/saeidalz13/battleship-rooms/db/sqlc"
	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
	mc "github.com/saeidalz13/battleship-rooms/models/connection"
)

const shutdownMessage = "server is shutting down"

type RequestProcessor struct {
	sessionManager mc.SessionManager
	roomManager    mb.RoomManager
	dbManager      sqlc.DbManager
	ipnet          net.IPNet
	upgrader       websocket.Upgrader
}

func NewRequestProcessor(
	sessionManager mc.SessionManager,
	roomManager mb.RoomManager,
	q sqlc.Querier,
	allowedOrigins ...string,
) *RequestProcessor {
	return &RequestProcessor{
		sessionManager: sessionManager,
		roomManager:    roomManager,
		dbManager:      sqlc.NewDbManager(q),
		ipnet:          findServerIpNet(),
		upgrader:       newUpgrader(allowedOrigins),
	}
}

func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	upgrader := websocket.Upgrader{
		// good average time since this is not a high-latency operation such as video streaming
		HandshakeTimeout: time.Second * 5,

		// a full fleet placement fits comfortably
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	if len(allowedOrigins) == 0 {
		return upgrader
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	upgrader.CheckOrigin = func(r *http.Request) bool {
		return allowed[r.Header.Get("Origin")]
	}
	return upgrader
}

// findServerIpNet picks the first non-loopback IPv4 address of an
// interface that is up. It keys the analytics rows; loopback is used
// when nothing else is available.
func findServerIpNet() net.IPNet {
	loopback := net.IPNet{IP: net.IPv4(127, 0, 0, 1), Mask: net.CIDRMask(32, 32)}

	ifaces, err := net.Interfaces()
	if err != nil {
		return loopback
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if ok && ipnet.IP.To4() != nil && !ipnet.IP.IsLoopback() {
				return *ipnet
			}
		}
	}
	return loopback
}

// Expose this method to use it in testing
func (rp *RequestProcessor) GetIpNet() net.IPNet {
	return rp.ipnet
}

func (rp *RequestProcessor) serverInet() pqtype.Inet {
	return pqtype.Inet{IPNet: rp.ipnet, Valid: true}
}

func (rp *RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// use Upgrade method to make a websocket connection
	conn, err := rp.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		log.Warn().Err(err).Msg("could not open websocket connection")
		return
	}

	session := rp.sessionManager.GenerateNewSession(conn)
	log.Info().Str("remote", conn.RemoteAddr().String()).Str("session", session.Id()).Msg("a new connection established")

	rp.processSessionRequests(session)
}

// Drain notifies and closes every connection, then drops all rooms.
func (rp *RequestProcessor) Drain() {
	msg := mc.NewMessage[mc.RespDisconnect](mc.TypeDisconnect)
	msg.AddPayload(mc.RespDisconnect{Message: shutdownMessage})

	sessions := rp.sessionManager.Drain(msg)
	rooms := rp.roomManager.Drain()
	log.Info().Int("sessions", sessions).Int("rooms", rooms).Msg("drained")
}

func (rp *RequestProcessor) processSessionRequests(session *mc.Session) {
	defer func() {
		rp.leaveRoom(session)
		rp.sessionManager.TerminateSession(session.Id())
	}()

sessionLoop:
	for {
		payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			// the connection is gone; leaving the room happens in defer
			break sessionLoop
		}

		msgType, err := mc.FetchTypeFromMsg(payload)
		if err != nil || msgType == "" {
			if err := rp.writeError(session, "incoming message must be a JSON object with a 'type' field"); err != nil {
				break sessionLoop
			}
			continue sessionLoop
		}

		req := NewRequest(payload)

		switch msgType {
		case mc.TypeCreateRoom:
			err = rp.handleCreateRoom(session, req)

		case mc.TypeJoinRoom:
			err = rp.handleJoinRoom(session, req)

		case mc.TypePlayerReady:
			err = rp.handleInRoom(session, func(room *mb.Room) error {
				return req.HandleReadyPlayer(room, session.PlayerIndex())
			})

		case mc.TypeFire:
			var finished bool
			err = rp.handleInRoom(session, func(room *mb.Room) error {
				if _, err := req.HandleFire(room, session.PlayerIndex()); err != nil {
					return err
				}
				finished = room.Game().Phase() == mb.PhaseFinished
				return nil
			})
			if finished {
				rp.recordGameFinished()
			}

		case mc.TypeReset:
			err = rp.handleInRoom(session, req.HandleReset)

		default:
			err = rp.writeError(session, "invalid type in the incoming message: "+msgType)
		}

		if err != nil {
			// only connection failures reach here; rejections were written already
			break sessionLoop
		}
	}
}

func (rp *RequestProcessor) handleCreateRoom(session *mc.Session, req Request) error {
	if rp.inActiveRoom(session) {
		return rp.writeError(session, cerr.ErrAlreadyInRoom.Error())
	}
	rp.leaveRoom(session)

	room, host, err := req.HandleCreateRoom(rp.roomManager, session.Id())
	if err != nil {
		return rp.writeError(session, err.Error())
	}
	session.JoinRoom(room.Code(), host.Index())

	if err := rp.announceCreatedRoom(session, room, host); err != nil {
		return err
	}
	rp.recordRoomCreated()
	return nil
}

// announceCreatedRoom tells the host its code and slot under the room lock.
func (rp *RequestProcessor) announceCreatedRoom(session *mc.Session, room *mb.Room, host *mb.Player) error {
	room.Lock()
	defer room.Unlock()

	respCreated := mc.NewMessage[mc.RespRoomCreated](mc.TypeRoomCreated)
	respCreated.AddPayload(mc.RespRoomCreated{Code: room.Code()})
	if err := rp.sessionManager.WriteToSessionConn(session, respCreated); err != nil {
		return err
	}

	respAssigned := mc.NewMessage[mc.RespPlayerAssigned](mc.TypePlayerAssigned)
	respAssigned.AddPayload(mc.RespPlayerAssigned{PlayerId: host.Index()})
	if err := rp.sessionManager.WriteToSessionConn(session, respAssigned); err != nil {
		return err
	}

	return rp.broadcastState(session, room)
}

func (rp *RequestProcessor) handleJoinRoom(session *mc.Session, req Request) error {
	if rp.inActiveRoom(session) {
		return rp.writeError(session, cerr.ErrAlreadyInRoom.Error())
	}
	rp.leaveRoom(session)

	code, room, player, err := req.HandleJoinRoom(rp.roomManager, session.Id())
	switch {
	case errors.Is(err, cerr.ErrRoomNotFound):
		return rp.writeRoomCode(session, mc.TypeRoomNotFound, code)

	case errors.Is(err, cerr.ErrRoomFull):
		return rp.writeRoomCode(session, mc.TypeRoomFull, code)

	case err != nil:
		return rp.writeError(session, err.Error())
	}
	session.JoinRoom(room.Code(), player.Index())

	room.Lock()
	defer room.Unlock()

	// the host may have left between JoinRoom and here
	if !room.AcceptsGameMessages() {
		return rp.writeError(session, cerr.ErrRoomIsClosed(room.Code()).Error())
	}

	respJoined := mc.NewMessage[mc.RespRoomJoined](mc.TypeRoomJoined)
	respJoined.AddPayload(mc.RespRoomJoined{Code: room.Code(), PlayerCount: room.MemberCount()})
	if err := rp.sessionManager.WriteToSessionConn(session, respJoined); err != nil {
		return err
	}

	respAssigned := mc.NewMessage[mc.RespPlayerAssigned](mc.TypePlayerAssigned)
	respAssigned.AddPayload(mc.RespPlayerAssigned{PlayerId: player.Index()})
	if err := rp.sessionManager.WriteToSessionConn(session, respAssigned); err != nil {
		return err
	}

	if room.IsFull() {
		respReady := mc.NewMessage[mc.RespRoomCode](mc.TypeRoomReady)
		respReady.AddPayload(mc.RespRoomCode{Code: room.Code()})
		if err := rp.sendToRoom(session, room, func(int) interface{} { return respReady }); err != nil {
			return err
		}
	}

	return rp.broadcastState(session, room)
}

// handleInRoom runs op on the session's room under the room lock and
// broadcasts the new state when op succeeds. Rejections are reported
// to the requester only.
func (rp *RequestProcessor) handleInRoom(session *mc.Session, op func(room *mb.Room) error) error {
	if !session.InRoom() {
		return rp.writeError(session, cerr.ErrNotInRoom.Error())
	}

	room, err := rp.roomManager.FetchRoom(session.RoomCode())
	if err != nil {
		return rp.writeError(session, err.Error())
	}

	room.Lock()
	defer room.Unlock()

	if !room.AcceptsGameMessages() {
		return rp.writeError(session, cerr.ErrRoomIsClosed(room.Code()).Error())
	}

	if err := op(room); err != nil {
		return rp.writeError(session, err.Error())
	}
	room.Touch(time.Now())

	return rp.broadcastState(session, room)
}

// leaveRoom removes the session from its room and tells the peer left
// behind. Safe to call for sessions without a room.
func (rp *RequestProcessor) leaveRoom(session *mc.Session) {
	if !session.InRoom() {
		return
	}
	code := session.RoomCode()
	session.LeaveRoom()

	result := rp.roomManager.Leave(code, session.Id())
	if result.Forfeited {
		// runs after the remaining player was notified
		defer rp.recordGameFinished()
	}
	if !result.Found || result.Deleted || result.RemainingSessionId == "" {
		return
	}

	room, err := rp.roomManager.FetchRoom(code)
	if err != nil {
		return
	}

	room.Lock()
	defer room.Unlock()

	respLeft := mc.NewMessage[mc.RespRoomCode](mc.TypePlayerLeft)
	respLeft.AddPayload(mc.RespRoomCode{Code: code})
	if err := rp.sessionManager.Communicate(result.RemainingSessionId, respLeft); err != nil {
		log.Debug().Err(err).Str("session", result.RemainingSessionId).Msg("could not notify remaining player")
		return
	}

	remaining, in := room.SlotOf(result.RemainingSessionId)
	if !in {
		return
	}
	if err := rp.sessionManager.Communicate(result.RemainingSessionId, mc.NewStateMessage(BuildGameState(room, remaining))); err != nil {
		log.Debug().Err(err).Str("session", result.RemainingSessionId).Msg("could not send final state")
	}
}

// inActiveRoom reports whether the session sits in a room that still
// accepts game messages.
func (rp *RequestProcessor) inActiveRoom(session *mc.Session) bool {
	if !session.InRoom() {
		return false
	}
	room, err := rp.roomManager.FetchRoom(session.RoomCode())
	if err != nil {
		return false
	}

	room.Lock()
	defer room.Unlock()
	return room.AcceptsGameMessages()
}

// broadcastState sends every member its own projection of room. Caller
// holds the room lock.
func (rp *RequestProcessor) broadcastState(requester *mc.Session, room *mb.Room) error {
	return rp.sendToRoom(requester, room, func(playerIndex int) interface{} {
		return mc.NewStateMessage(BuildGameState(room, playerIndex))
	})
}

// sendToRoom writes msgFor(index) to every member. Only a failure on the
// requester's own connection is returned; a broken peer connection is
// noticed and cleaned up by that peer's read loop.
func (rp *RequestProcessor) sendToRoom(requester *mc.Session, room *mb.Room, msgFor func(playerIndex int) interface{}) error {
	for _, p := range room.Game().Players() {
		err := rp.sessionManager.Communicate(p.SessionId(), msgFor(p.Index()))
		if err == nil {
			continue
		}

		if p.SessionId() == requester.Id() {
			return err
		}
		log.Debug().Err(err).Str("session", p.SessionId()).Msg("failed to reach room member")
	}
	return nil
}

func (rp *RequestProcessor) writeError(session *mc.Session, message string) error {
	return rp.sessionManager.WriteToSessionConn(session, mc.NewErrorMessage(message))
}

func (rp *RequestProcessor) writeRoomCode(session *mc.Session, msgType, code string) error {
	msg := mc.NewMessage[mc.RespRoomCode](msgType)
	msg.AddPayload(mc.RespRoomCode{Code: code})
	return rp.sessionManager.WriteToSessionConn(session, msg)
}

// Analytics failures never affect a game.
func (rp *RequestProcessor) recordRoomCreated() {
	ctx, cancel := sqlc.QuerierContext()
	defer cancel()
	if err := rp.dbManager.Analytics.IncrementRoomsCreatedCount(ctx, rp.serverInet()); err != nil {
		log.Warn().Err(err).Msg("analytics: rooms created")
	}
}

func (rp *RequestProcessor) recordGameFinished() {
	ctx, cancel := sqlc.QuerierContext()
	defer cancel()
	if err := rp.dbManager.Analytics.IncrementGamesFinishedCount(ctx, rp.serverInet()); err != nil {
		log.Warn().Err(err).Msg("analytics: games finished")
	}
}
