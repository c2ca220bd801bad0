package connection

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-rooms/internal/error"
)

type SessionManager interface {
	GenerateNewSession(conn WsConn) *Session
	FindSession(sessionId string) (*Session, error)
	TerminateSession(sessionId string)

	ReadFromSessionConn(session *Session) ([]byte, error)
	WriteToSessionConn(session *Session, msg interface{}) error
	Communicate(receiverSessionId string, msg interface{}) error

	Drain(msg interface{}) int
	Count() int
}

type BattleshipSessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

var _ SessionManager = (*BattleshipSessionManager)(nil)

func NewBattleshipSessionManager() *BattleshipSessionManager {
	initMapSize := 10

	return &BattleshipSessionManager{
		sessions: make(map[string]*Session, initMapSize),
	}
}

// GenerateNewSession registers conn under a URL-safe id and starts
// its keep-alive pings.
func (bsm *BattleshipSessionManager) GenerateNewSession(conn WsConn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.New().String()))
	session := NewSession(sessionId, conn)
	session.prepareRead()

	bsm.mu.Lock()
	bsm.sessions[sessionId] = session
	bsm.mu.Unlock()

	go session.keepAlive()
	return session
}

func (bsm *BattleshipSessionManager) FindSession(sessionId string) (*Session, error) {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()

	session, prs := bsm.sessions[sessionId]
	if !prs || session == nil {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}
	return session, nil
}

// TerminateSession closes the connection and forgets the session.
// Terminating an unknown session is a no-op.
func (bsm *BattleshipSessionManager) TerminateSession(sessionId string) {
	bsm.mu.Lock()
	session, prs := bsm.sessions[sessionId]
	delete(bsm.sessions, sessionId)
	bsm.mu.Unlock()

	if prs {
		session.close()
		log.Info().Str("session", sessionId).Dur("age", time.Since(session.createdAt)).Msg("session terminated")
	}
}

func (bsm *BattleshipSessionManager) ReadFromSessionConn(session *Session) ([]byte, error) {
	_, payload, err := session.conn.ReadMessage()
	if err != nil {
		session.logConnErr(err)
		return nil, NewConnErr(ConnLoopBreak).AddDesc(err.Error())
	}
	return payload, nil
}

func (bsm *BattleshipSessionManager) WriteToSessionConn(session *Session, msg interface{}) error {
	return session.writeToConn(msg)
}

// This method sends the msg from one session to another
func (bsm *BattleshipSessionManager) Communicate(receiverSessionId string, msg interface{}) error {
	receiverSession, err := bsm.FindSession(receiverSessionId)
	if err != nil {
		return err
	}
	return bsm.WriteToSessionConn(receiverSession, msg)
}

// Drain sends msg to every live session and closes it. Used on shutdown.
func (bsm *BattleshipSessionManager) Drain(msg interface{}) int {
	bsm.mu.Lock()
	sessions := bsm.sessions
	bsm.sessions = make(map[string]*Session)
	bsm.mu.Unlock()

	for _, session := range sessions {
		if err := session.writeToConn(msg); err != nil {
			log.Debug().Err(err).Str("session", session.id).Msg("drain notification failed")
		}
		session.close()
	}
	return len(sessions)
}

func (bsm *BattleshipSessionManager) Count() int {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()
	return len(bsm.sessions)
}

// FetchTypeFromMsg decodes the "type" field of an inbound message.
func FetchTypeFromMsg(payload []byte) (string, error) {
	var signal Signal
	if err := json.Unmarshal(payload, &signal); err != nil {
		return "", err
	}
	return signal.Type, nil
}
