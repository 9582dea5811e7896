package main

import (
	"context"
	"os"
	"time"

	"movimenti/internal/alerts"
	"movimenti/internal/amqp"
	"movimenti/internal/cli"
	"movimenti/internal/config"
	applog "movimenti/internal/log"
	"movimenti/internal/notify"
	"movimenti/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentAlerts)
	logger.Info("Starting alert-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger)

	ctx := context.Background()
	repo, closeRepo := cli.OpenRepository(ctx, logger.Logger, cfg)

	notifier, closeNotifier := buildNotifier(logger, cfg)

	schedulerConfig, err := cli.SchedulerConfig(cfg)
	if err != nil {
		logger.Error("Invalid alert schedule", "error", err)
		os.Exit(1)
	}
	scheduler := services.NewAlertScheduler(repo, repo, notifier, alerts.DefaultFormatter(), schedulerConfig)

	runCtx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		logger.Info("Shutting down alert-worker...")
		if err := scheduler.Stop(ctx); err != nil {
			logger.Error("Alert scheduler stop error", "error", err)
		}
		closeNotifier()
		if err := closeRepo(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
	})

	if err := scheduler.Start(runCtx); err != nil {
		logger.Error("Failed to start alert scheduler", "error", err)
		os.Exit(1)
	}
	logger.Info("Next daily check scheduled", "at", scheduler.NextRun(time.Now()).Format(time.RFC3339))

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Alert-worker shutdown complete")
}

// buildNotifier prefers the AMQP queue, then WhatsApp, then logging. The
// returned func releases the AMQP connection.
func buildNotifier(logger *applog.Logger, cfg *config.Config) (notify.Notifier, func()) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled - alerts are delivered in-process")
		return cli.DirectNotifier(logger.Logger, cfg), func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, delivering alerts in-process", "error", err)
		return cli.DirectNotifier(logger.Logger, cfg), func() {}
	}
	logger.Info("AMQP client initialized - alerts are delivered by notify-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return amqp.NewQueueNotifier(client), func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close AMQP client", "error", err)
		}
	}
}
