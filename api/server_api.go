package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/saeidalz13/battleship-rooms/db/sqlc"
	"github.com/saeidalz13/battleship-rooms/internal/config"
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
	mc "github.com/saeidalz13/battleship-rooms/models/connection"
)

const defaultPort int = 8000

type Server struct {
	port           int
	stage          string
	allowedOrigins []string
	querier        sqlc.Querier
	roomOpts       []mb.RoomManagerOption

	r                *chi.Mux
	SessionManager   mc.SessionManager
	RoomManager      mb.RoomManager
	RequestProcessor *RequestProcessor
}

type Option func(*Server) error

func NewServer(optFuncs ...Option) *Server {
	server := Server{
		port:  defaultPort,
		stage: config.StageDev,
	}
	for _, opt := range optFuncs {
		if err := opt(&server); err != nil {
			panic(err)
		}
	}

	// origins are only enforced in prod
	var origins []string
	if server.stage == config.StageProd {
		origins = server.allowedOrigins
	}
	if server.acceptsAnyOriginInProd() {
		log.Warn().Msg("no allowed origins configured; accepting websocket upgrades from any origin")
	}

	server.SessionManager = mc.NewBattleshipSessionManager()
	server.RoomManager = mb.NewBattleshipRoomManager(server.roomOpts...)
	server.RequestProcessor = NewRequestProcessor(server.SessionManager, server.RoomManager, server.querier, origins...)
	server.r = server.newRouter()

	return &server
}

func (s *Server) acceptsAnyOriginInProd() bool {
	return s.stage == config.StageProd && len(s.allowedOrigins) == 0
}

func WithPort(port int) Option {
	return func(s *Server) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid port: %d", port)
		}
		s.port = port
		return nil
	}
}

func WithStage(stage string) Option {
	return func(s *Server) error {
		if stage != config.StageProd && stage != config.StageDev {
			return fmt.Errorf("invalid type of development stage: %s", stage)
		}
		s.stage = stage
		return nil
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) error {
		s.allowedOrigins = origins
		return nil
	}
}

// WithQuerier enables analytics persistence. Without it the server
// records nothing.
func WithQuerier(q sqlc.Querier) Option {
	return func(s *Server) error {
		s.querier = q
		return nil
	}
}

func WithRoomManagerOptions(opts ...mb.RoomManagerOption) Option {
	return func(s *Server) error {
		s.roomOpts = append(s.roomOpts, opts...)
		return nil
	}
}

func (s *Server) newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Method(http.MethodGet, "/battleship", s.RequestProcessor)
	r.Get("/health", s.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(struct {
		Ok    bool `json:"ok"`
		Rooms int  `json:"rooms"`
	}{Ok: true, Rooms: s.RoomManager.Count()})
}

func (s *Server) Router() chi.Router {
	return s.r
}

func (s *Server) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", s.port)
}

func (s *Server) Stage() string {
	return s.stage
}

// Drain disconnects every client and drops all rooms.
func (s *Server) Drain() {
	s.RequestProcessor.Drain()
}
