package connection

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait         time.Duration = time.Second * 5
	pongWait          time.Duration = time.Second * 60
	pingPeriod        time.Duration = (pongWait * 9) / 10

	// Upper bound for one inbound message; a full fleet
	// is well below 2KB of JSON.
	maxMessageSize int64 = 8192
)

// WsConn is the part of *websocket.Conn a session relies on.
type WsConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() net.Addr
	Close() error
}

var _ WsConn = (*websocket.Conn)(nil)

type Session struct {
	id        string
	conn      WsConn
	createdAt time.Time

	// gorilla/websocket supports one concurrent writer
	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
	done    chan struct{}

	// Owned by the goroutine reading this session.
	roomCode    string
	playerIndex int
}

func NewSession(id string, conn WsConn) *Session {
	return &Session{
		id:          id,
		conn:        conn,
		createdAt:   time.Now(),
		done:        make(chan struct{}),
		playerIndex: -1,
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Conn() WsConn {
	return s.conn
}

func (s *Session) RoomCode() string {
	return s.roomCode
}

func (s *Session) PlayerIndex() int {
	return s.playerIndex
}

func (s *Session) InRoom() bool {
	return s.roomCode != ""
}

func (s *Session) JoinRoom(code string, playerIndex int) {
	s.roomCode = code
	s.playerIndex = playerIndex
}

func (s *Session) LeaveRoom() {
	s.roomCode = ""
	s.playerIndex = -1
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) IsClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}

func (s *Session) close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	_ = s.conn.Close()
}

func (s *Session) remoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// logConnErr logs a connection error at a level matching its cause.
// Errors from gorilla/websocket are permanent, so none of them is retried.
func (s *Session) logConnErr(err error) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Warn().Err(err).Str("session", s.id).Msg("timeout error")
		return
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
		log.Debug().Err(err).Str("session", s.id).Msg("close error")
		return
	}

	if websocket.IsCloseError(err, websocket.CloseProtocolError, websocket.CloseInternalServerErr, websocket.CloseTLSHandshake, websocket.CloseMandatoryExtension) {
		log.Error().Err(err).Str("session", s.id).Msg("critical error")
		return
	}

	/*
		CloseUnsupportedData (1003) and CloseInvalidFramePayloadData (1007)
		mean the peer is most likely not one of our clients.
	*/
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation, websocket.CloseServiceRestart, websocket.CloseTryAgainLater, websocket.CloseNoStatusReceived) {
		log.Warn().Err(err).Str("session", s.id).Msg("non-critical error")
		return
	}

	log.Debug().Err(err).Str("session", s.id).Msg("unexpected error")
}

// Writes msg as JSON to the session connection. A failed write is
// final; gorilla/websocket keeps returning it for this connection.
func (s *Session) writeToConn(msg interface{}) error {
	if s.IsClosed() {
		return NewConnErr(ConnSessionClosed).AddDesc("session " + s.id + " is closed")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logConnErr(err)
		log.Warn().Str("remote", s.remoteAddr()).Msg("writing json to ws failed")
		return NewConnErr(ConnLoopBreak).AddDesc("breaking write loop due to: " + err.Error())
	}
	return nil
}

// prepareRead installs the read limit, the initial read deadline and
// the pong handler that extends it.
func (s *Session) prepareRead() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// keepAlive pings the peer until the session closes. WriteControl
// may run concurrently with WriteJSON.
func (s *Session) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("session", s.id).Msg("ping failed")
				return
			}
		}
	}
}
