package logger

import (
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"development config", Config{Level: "debug", Development: true, Encoding: "console"}},
		{"production config", Config{Level: "info", Development: false, Encoding: "json"}},
		{"invalid level falls back to info", Config{Level: "invalid", Encoding: "json"}},
		{"empty encoding uses default", Config{Level: "warn"}},
		{"custom name", Config{Level: "info", Name: "accounts-test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
			logger.Sync()
		})
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Config{Level: "loud"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer logger.Sync()

	if logger.Core().Enabled(zap.DebugLevel) {
		t.Error("debug should be disabled when the level is invalid")
	}
	if !logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info should be enabled when the level is invalid")
	}
}

func TestDefault(t *testing.T) {
	originalLogLevel := os.Getenv("LOG_LEVEL")
	originalAppEnv := os.Getenv("APP_ENV")
	defer func() {
		os.Setenv("LOG_LEVEL", originalLogLevel)
		os.Setenv("APP_ENV", originalAppEnv)
	}()

	for _, env := range []string{"development", "production", ""} {
		t.Run("env="+env, func(t *testing.T) {
			os.Setenv("LOG_LEVEL", "debug")
			os.Setenv("APP_ENV", env)

			logger := Default()
			if logger == nil {
				t.Fatal("Default() returned nil")
			}
			logger.Sync()
		})
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}

	logger := zap.NewExample()
	if OrNop(logger) != logger {
		t.Error("OrNop() should return the given logger")
	}
}

func TestForComponent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ForComponent(base, "mongo", zap.String("database", "accounts")).Info("connected")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "mongo" {
		t.Errorf("LoggerName = %q, want %q", entries[0].LoggerName, "mongo")
	}
	if entries[0].ContextMap()["database"] != "accounts" {
		t.Errorf("database field = %v", entries[0].ContextMap()["database"])
	}
}

func TestForComponent_NilLogger(t *testing.T) {
	logger := ForComponent(nil, "adaptor")
	if logger == nil {
		t.Fatal("ForComponent(nil) returned nil")
	}
	logger.Info("dropped")
}
