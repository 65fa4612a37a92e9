package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"practicepad/internal/autocreate"
	"practicepad/internal/config"
	"practicepad/internal/http"
	"practicepad/internal/llm"
	"practicepad/internal/ocr"
	"practicepad/internal/storage"
	"practicepad/internal/transcript"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	itemRepo := storage.NewItemRepo(db)
	routineRepo := storage.NewRoutineRepo(db)
	chartRepo := storage.NewChartRepo(db)
	commonChordRepo := storage.NewCommonChordRepo(db)

	// Local OCR is optional; without it every file upload goes straight
	// to the vision model.
	ocrClient := ocr.NewClient(cfg.TesseractPath, cfg.PDFToPPMPath)
	if ocrClient.Available() {
		slog.Info("Local OCR available", "tesseract", cfg.TesseractPath)
	} else {
		slog.Warn("Local OCR unavailable, file uploads will use the vision model directly")
	}

	llmClient := llm.NewClient(cfg.AnthropicAPIKey, cfg.HeavyweightModel, cfg.LightweightModel, cfg.ModelRequestsPerMinute)
	transcriptClient := transcript.NewClient(cfg.TranscriptBaseURL)

	autocreateService := autocreate.NewService(
		chartRepo,
		commonChordRepo,
		llmClient,
		ocrClient,
		transcriptClient,
		autocreate.Limits{
			MaxFiles:     cfg.MaxFilesPerRequest,
			MaxFileBytes: cfg.MaxFileBytes,
			MaxTextChars: cfg.MaxManualTextChars,
		},
	)
	slog.Info("Autocreate pipeline initialized",
		"heavyweight_model", cfg.HeavyweightModel,
		"lightweight_model", cfg.LightweightModel)

	// Create router with dependencies
	deps := &http.Deps{
		Items:      itemRepo,
		Routines:   routineRepo,
		Charts:     chartRepo,
		Commons:    commonChordRepo,
		Autocreate: autocreateService,
		OCR:        ocrClient,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
