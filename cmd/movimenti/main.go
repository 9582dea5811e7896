package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"movimenti/internal/advisor"
	"movimenti/internal/chat"
	"movimenti/internal/cli"
	apphttp "movimenti/internal/http"
	"movimenti/internal/ingest"
	applog "movimenti/internal/log"
	"movimenti/internal/services"
)

const chatIdleTTL = 30 * time.Minute

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger.Logger)

	ctx := context.Background()
	repo, closeRepo := cli.OpenRepository(ctx, logger.Logger, cfg)
	categorizer := cli.LoadCategorizer(logger.Logger, cfg)

	transactions := services.NewTransactionService(repo, categorizer)
	goals := services.NewGoalService(repo)

	if cfg.ImportCSVPath != "" {
		res, err := transactions.Import(ctx, ingest.CSVFile(cfg.ImportCSVPath))
		if err != nil {
			logger.Error("Initial import failed", "error", err, "path", cfg.ImportCSVPath)
		} else {
			logger.Info("Initial import complete",
				"path", cfg.ImportCSVPath,
				"imported", res.Imported,
				applog.FieldRowsSkipped, res.Skipped)
		}
	}

	// The assistant is optional; without Gemini credentials the AI routes answer 503.
	var (
		assistant *advisor.Service
		history   *chat.Store
	)
	llm, err := advisor.NewGenAIClient(ctx, cfg.GeminiModel)
	if err != nil {
		logger.Warn("AI assistant disabled", "error", err)
	} else {
		history = chat.NewStore(chat.DefaultLimit, chatIdleTTL)
		assistant = advisor.NewService(llm, history, repo, cfg.AdvisorTimeout)
		logger.Info("AI assistant enabled", "model", cfg.GeminiModel)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	}, apphttp.Services{
		Transactions: transactions,
		Goals:        goals,
		Alerts:       repo,
		Advisor:      assistant,
	})
	if history != nil {
		srv.RegisterCleaner(history)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := closeRepo(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
	})

	logger.Info("Starting movimenti server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
