package config

import (
	"log/slog"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("DB_PATH", t.TempDir()+"/test.db")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "9000" {
		t.Errorf("APIPort = %q, want 9000", cfg.APIPort)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.MaxFilesPerRequest != DefaultMaxFilesPerRequest {
		t.Errorf("MaxFilesPerRequest = %d, want %d", cfg.MaxFilesPerRequest, DefaultMaxFilesPerRequest)
	}
	if cfg.MaxFileBytes != DefaultMaxFileBytes {
		t.Errorf("MaxFileBytes = %d, want %d", cfg.MaxFileBytes, DefaultMaxFileBytes)
	}
	if cfg.MaxManualTextChars != DefaultMaxManualTextChars {
		t.Errorf("MaxManualTextChars = %d, want %d", cfg.MaxManualTextChars, DefaultMaxManualTextChars)
	}
	if cfg.HeavyweightModel == "" || cfg.LightweightModel == "" {
		t.Error("model names should have defaults")
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("DB_PATH", t.TempDir()+"/test.db")

	if _, err := Load(); err == nil {
		t.Fatal("Load() without ANTHROPIC_API_KEY should fail")
	}
}

func TestLoadInvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	if _, err := Load(); err == nil {
		t.Fatal("Load() with invalid LOG_LEVEL should fail")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_FILES_PER_REQUEST", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.MaxFilesPerRequest != 3 {
		t.Errorf("MaxFilesPerRequest = %d, want 3", cfg.MaxFilesPerRequest)
	}
}

func TestLoadInvalidInt(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_FILE_BYTES", "lots")

	if _, err := Load(); err == nil {
		t.Fatal("Load() with non-integer MAX_FILE_BYTES should fail")
	}
}
