package main

import (
	"context"
	"os"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/cli"
	applog "tutorbook/internal/log"
	"tutorbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentReminder)
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the reminder worker")
		os.Exit(1)
	}

	src := cli.InitDataSource(context.Background(), logger, cfg)
	defer src.Close()

	// The tutorbook-worker consumes these and posts them to Discord.
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reminders := worker.NewReminderWorker(src, amqpClient, logger)
	logger.Info("Reminder scan configured", "interval", cfg.ReminderInterval)

	loop := worker.NewLoop("reminder-scan", cfg.ReminderInterval, func(ctx context.Context) error {
		_, err := reminders.ProcessDue(ctx, time.Now())
		return err
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := loop.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop reminder loop", applog.FieldError, err)
		}
	})

	if err := loop.Start(ctx); err != nil {
		logger.Error("Failed to start reminder loop", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Reminder worker stopped")
}
