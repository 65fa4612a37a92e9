package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Autocreate input ceilings. Inputs exceeding these are rejected before
// any remote model call is made.
const (
	DefaultMaxFilesPerRequest = 5
	DefaultMaxFileBytes       = 5 * 1024 * 1024
	DefaultMaxManualTextChars = 500
)

// Config holds all configuration for the application.
type Config struct {
	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	// Anthropic API settings. HeavyweightModel handles vision analysis of
	// chord diagram images and PDFs; LightweightModel handles text-only
	// chord-name and tablature extraction.
	AnthropicAPIKey  string
	HeavyweightModel string
	LightweightModel string
	// ModelRequestsPerMinute throttles remote model calls.
	ModelRequestsPerMinute int

	// TesseractPath is the OCR binary used for local text extraction.
	// PDFToPPMPath renders PDF pages to images for OCR.
	TesseractPath string
	PDFToPPMPath  string

	// TranscriptBaseURL is the endpoint used to fetch YouTube transcripts.
	TranscriptBaseURL string

	MaxFilesPerRequest int
	MaxFileBytes       int
	MaxManualTextChars int
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load() // Try current directory

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		DBPath:           getEnv("DB_PATH", "./data/practicepad.db"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		HeavyweightModel: getEnv("HEAVYWEIGHT_MODEL", "claude-sonnet-4-5-20250929"),
		LightweightModel: getEnv("LIGHTWEIGHT_MODEL", "claude-3-5-haiku-20241022"),
		TesseractPath:    getEnv("TESSERACT_PATH", "tesseract"),
		PDFToPPMPath:     getEnv("PDFTOPPM_PATH", "pdftoppm"),

		TranscriptBaseURL: getEnv("TRANSCRIPT_BASE_URL", "https://www.youtube.com"),
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.ModelRequestsPerMinute, err = getEnvInt("MODEL_REQUESTS_PER_MINUTE", 20)
	if err != nil {
		return nil, err
	}
	cfg.MaxFilesPerRequest, err = getEnvInt("MAX_FILES_PER_REQUEST", DefaultMaxFilesPerRequest)
	if err != nil {
		return nil, err
	}
	cfg.MaxFileBytes, err = getEnvInt("MAX_FILE_BYTES", DefaultMaxFileBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxManualTextChars, err = getEnvInt("MAX_MANUAL_TEXT_CHARS", DefaultMaxManualTextChars)
	if err != nil {
		return nil, err
	}

	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}

	// Create ./data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}
