// Package cli provides common CLI initialization utilities.
// This package consolidates the start-up sequence shared by cmd/movimenti,
// cmd/alert-worker, cmd/notify-worker and cmd/movimenti-cli.
package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"movimenti/internal/backend"
	"movimenti/internal/categorizer"
	"movimenti/internal/config"
	applog "movimenti/internal/log"
	"movimenti/internal/notify"
	"movimenti/internal/ports"
	"movimenti/internal/services"
)

// SetupLogger initializes structured logging at the given level for a
// component and installs it as the default logger. An unknown level falls
// back to info.
func SetupLogger(level, component string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	logger := applog.New(applog.Config{
		Level:     lvl,
		Component: component,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", "level", level)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenRepository creates the storage backend selected by DATA_BACKEND.
// Returns the repository with its cleanup or exits the process on failure.
func OpenRepository(ctx context.Context, logger *slog.Logger, cfg *config.Config) (ports.Repository, backend.CleanupFunc) {
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid storage backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return result.Repository, result.Cleanup
}

// LoadCategorizer loads CATEGORY_RULES_FILE, or the built-in rules when unset.
// Exits the process when the rules cannot be compiled.
func LoadCategorizer(logger *slog.Logger, cfg *config.Config) *categorizer.Categorizer {
	c, err := categorizer.LoadFile(cfg.CategoryRulesFile)
	if err != nil {
		logger.Error("Failed to load category rules", "error", err, "path", cfg.CategoryRulesFile)
		os.Exit(1)
	}
	return c
}

// WhatsAppConfig maps the application settings onto the WhatsApp client.
func WhatsAppConfig(cfg *config.Config) notify.WhatsAppConfig {
	return notify.WhatsAppConfig{
		BaseURL:     cfg.WhatsAppAPIBase,
		Token:       cfg.WhatsAppToken,
		AccountID:   cfg.WhatsAppAccountID,
		To:          cfg.WhatsAppTo,
		MaxAttempts: uint(cfg.NotifyMaxAttempts),
		RetryDelay:  time.Second,
	}
}

// DirectNotifier delivers through WhatsApp when credentials are configured
// and otherwise only logs the message.
func DirectNotifier(logger *slog.Logger, cfg *config.Config) notify.Notifier {
	if !cfg.WhatsAppEnabled() {
		logger.Warn("WhatsApp credentials not configured, alerts will only be logged")
		return notify.LogNotifier{Logger: logger}
	}
	client := &http.Client{Timeout: cfg.NotifyTimeout}
	return notify.NewWhatsApp(WhatsAppConfig(cfg), client)
}

// SchedulerConfig maps the alert settings onto the scheduler. The values
// are already validated by config.Validate.
func SchedulerConfig(cfg *config.Config) (services.AlertSchedulerConfig, error) {
	dailyAt, err := services.ParseTimeOfDay(cfg.AlertDailyAt)
	if err != nil {
		return services.AlertSchedulerConfig{}, err
	}
	return services.AlertSchedulerConfig{
		Enabled:       cfg.AlertEnabled,
		LossThreshold: cfg.AlertLossThreshold,
		DailyAt:       dailyAt,
		Location:      cfg.Location(),
		NotifyTimeout: cfg.NotifyTimeout,
	}, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *slog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ran.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
