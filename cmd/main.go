package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saeidalz13/battleship-rooms/api"
	"github.com/saeidalz13/battleship-rooms/db"
	"github.com/saeidalz13/battleship-rooms/db/sqlc"
	"github.com/saeidalz13/battleship-rooms/internal/config"
	"github.com/saeidalz13/battleship-rooms/internal/logger"
	mb "github.com/saeidalz13/battleship-rooms/models/battleship"
)

const shutdownTimeout = time.Second * 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.Stage)

	opts := []api.Option{
		api.WithPort(cfg.Port),
		api.WithStage(cfg.Stage),
		api.WithAllowedOrigins(cfg.AllowedOrigins...),
		api.WithRoomManagerOptions(
			mb.WithIdleTimeout(cfg.RoomIdleTimeout),
			mb.WithSweepInterval(cfg.RoomSweepInterval),
		),
	}

	if cfg.DatabaseURL != "" {
		conn := db.MustConnectToDb(cfg.DatabaseURL, cfg.MigrationDir)
		defer conn.Close()
		opts = append(opts, api.WithQuerier(sqlc.New(conn)))
	} else {
		log.Warn().Msg("DATABASE_URL not set, analytics disabled")
	}

	server := api.NewServer(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go server.RoomManager.CleanupPeriodically(ctx)

	httpServer := &http.Server{
		Addr:              server.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("stage", server.Stage()).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	// hijacked websocket connections are not tracked by Shutdown
	server.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
