package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"meal-planner/internal/app"
	"meal-planner/internal/clipper"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"
	"meal-planner/internal/logging"
	"meal-planner/internal/planner"
	"meal-planner/internal/telegram"
)

const (
	metricsRetentionDays = 30
	cleanupInterval      = 24 * time.Hour
)

func main() {
	_ = godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		// The logger is not configured yet.
		logging.New("info")
		zap.S().Fatalw("Failed to load config", "error", err)
	}
	_, flush := logging.New(cfg.LogLevel)
	defer flush()

	if err := cfg.RequireTelegram(); err != nil {
		zap.S().Fatalw("Telegram is not configured", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Storage
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		zap.S().Fatalw("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// 3. Initialize Recipe Sources
	var ghostClient ghost.Client
	if cfg.GhostURL != "" {
		ghostClient = ghost.NewClient(cfg)
	}

	var textGen llm.TextGenerator
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			zap.S().Fatalw("Failed to create Gemini client", "error", err)
		}
		defer geminiClient.Close()
		textGen = geminiClient
	}

	// 4. Initialize Services
	application := app.NewApp(cfg, db, planner.NewEngine(nil), ghostClient, clipper.NewClipper(textGen))

	cfg.WatchMenuOptions(func(s config.MenuSettings) {
		zap.S().Infow("Menu options reloaded", "settings", s)
	})
	go cleanupMetrics(ctx, application)

	// 5. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, application)
	if err != nil {
		zap.S().Fatalw("Failed to initialize Telegram Bot", "error", err)
	}

	mux := http.NewServeMux()
	bot.RegisterHandlers(mux)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("Telegram Bot Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	zap.S().Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zap.S().Errorw("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	zap.S().Info("Server exiting")
}

// cleanupMetrics drops old metric rows once a day until ctx is done.
func cleanupMetrics(ctx context.Context, a *app.App) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.CleanupMetrics(ctx, metricsRetentionDays); err != nil {
				zap.S().Warnw("Metrics cleanup failed", "error", err)
			}
		}
	}
}
