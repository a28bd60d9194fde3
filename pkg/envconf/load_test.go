package envconf

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

type pgSection struct {
	DSN string `env:"TEST_ENVCONF_DSN"`
}

type testConfig struct {
	Port     uint16        `env:"TEST_ENVCONF_PORT" default:"8080"`
	LogLevel slog.Level    `env:"TEST_ENVCONF_LOG_LEVEL" default:"INFO"`
	Timeout  time.Duration `env:"TEST_ENVCONF_TIMEOUT" default:"10s"`
	Postgres pgSection
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("TEST_ENVCONF_DSN", "postgres://localhost/app")
	t.Setenv("TEST_ENVCONF_TIMEOUT", "3s")

	cfg := new(testConfig)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("port default: want 8080, got %d", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("log level default: want INFO, got %v", cfg.LogLevel)
	}
	if cfg.Timeout != 3*time.Second {
		t.Errorf("timeout override: want 3s, got %v", cfg.Timeout)
	}
	if cfg.Postgres.DSN != "postgres://localhost/app" {
		t.Errorf("nested dsn: got %q", cfg.Postgres.DSN)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	// TEST_ENVCONF_DSN has no default and is not set here.
	cfg := new(testConfig)

	err := Load(cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

func TestLoad_TextUnmarshaler(t *testing.T) {
	t.Setenv("TEST_ENVCONF_DSN", "x")
	t.Setenv("TEST_ENVCONF_LOG_LEVEL", "DEBUG")

	cfg := new(testConfig)

	err := Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("log level: want DEBUG, got %v", cfg.LogLevel)
	}
}

func TestLoad_RejectsNonStruct(t *testing.T) {
	err := Load(nil)
	if err == nil {
		t.Fatal("want error for nil destination")
	}

	var n int

	err = Load(&n)
	if err == nil {
		t.Fatal("want error for non-struct destination")
	}
}
