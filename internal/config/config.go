package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StageProd = "prod"
	StageDev  = "dev"

	defaultPort              = 8000
	defaultLogLevel          = "info"
	defaultRoomIdleTimeout   = time.Minute * 30
	defaultRoomSweepInterval = time.Minute * 5
)

type Config struct {
	Stage             string
	Port              int
	DatabaseURL       string
	MigrationDir      string
	LogLevel          string
	AllowedOrigins    []string
	RoomIdleTimeout   time.Duration
	RoomSweepInterval time.Duration
}

// Load reads the environment. Outside prod a .env file is loaded first
// when present; values already set in the environment win.
func Load() (Config, error) {
	if os.Getenv("STAGE") != StageProd {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading .env: %w", err)
		}
	}

	cfg := Config{
		Stage:             getEnv("STAGE", StageDev),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrationDir:      getEnv("MIGRATION_DIR", "file://db/migration"),
		LogLevel:          getEnv("LOG_LEVEL", defaultLogLevel),
		AllowedOrigins:    splitList(os.Getenv("ALLOWED_ORIGINS")),
		Port:              defaultPort,
		RoomIdleTimeout:   defaultRoomIdleTimeout,
		RoomSweepInterval: defaultRoomSweepInterval,
	}

	if cfg.Stage != StageDev && cfg.Stage != StageProd {
		return Config{}, fmt.Errorf("stage must be either %s or %s, got: %s", StageDev, StageProd, cfg.Stage)
	}

	if portEnv := os.Getenv("PORT"); portEnv != "" {
		port, err := strconv.Atoi(portEnv)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", portEnv, err)
		}
		cfg.Port = port
	}

	var err error
	if cfg.RoomIdleTimeout, err = getDuration("ROOM_IDLE_TIMEOUT", cfg.RoomIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.RoomSweepInterval, err = getDuration("ROOM_SWEEP_INTERVAL", cfg.RoomSweepInterval); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", k, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got: %s", k, v)
	}
	return d, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	items := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
