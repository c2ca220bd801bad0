package config

import (
	"reflect"
	"testing"
	"time"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range []string{"STAGE", "PORT", "DATABASE_URL", "MIGRATION_DIR", "LOG_LEVEL", "ALLOWED_ORIGINS", "ROOM_IDLE_TIMEOUT", "ROOM_SWEEP_INTERVAL"} {
		t.Setenv(k, env[k])
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, nil)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	expected := Config{
		Stage:             StageDev,
		Port:              defaultPort,
		MigrationDir:      "file://db/migration",
		LogLevel:          defaultLogLevel,
		RoomIdleTimeout:   defaultRoomIdleTimeout,
		RoomSweepInterval: defaultRoomSweepInterval,
	}
	if !reflect.DeepEqual(cfg, expected) {
		t.Fatalf("expected: %+v\tgot: %+v", expected, cfg)
	}
}

func TestLoad(t *testing.T) {
	setEnv(t, map[string]string{
		"STAGE":               StageProd,
		"PORT":                "9090",
		"DATABASE_URL":        "postgres://localhost/battleship",
		"LOG_LEVEL":           "debug",
		"ALLOWED_ORIGINS":     "https://a.example, https://b.example,,",
		"ROOM_IDLE_TIMEOUT":   "10m",
		"ROOM_SWEEP_INTERVAL": "30s",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Stage != StageProd || cfg.Port != 9090 || cfg.DatabaseURL != "postgres://localhost/battleship" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("unexpected origins: %q", cfg.AllowedOrigins)
	}
	if cfg.RoomIdleTimeout != time.Minute*10 || cfg.RoomSweepInterval != time.Second*30 {
		t.Fatalf("unexpected durations: %s, %s", cfg.RoomIdleTimeout, cfg.RoomSweepInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown stage", env: map[string]string{"STAGE": "staging"}},
		{name: "port not a number", env: map[string]string{"PORT": "eighty"}},
		{name: "bad duration", env: map[string]string{"ROOM_IDLE_TIMEOUT": "soon"}},
		{name: "negative duration", env: map[string]string{"ROOM_SWEEP_INTERVAL": "-5m"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			setEnv(t, test.env)
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
