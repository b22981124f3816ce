package main

import (
	"context"
	"errors"
	"maps"
	"os"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/cli"
	"tutorbook/internal/datasource"
	applog "tutorbook/internal/log"
	"tutorbook/internal/sheets"
	gsheet "tutorbook/internal/sheets/google"
	mem "tutorbook/internal/sheets/memory"
	"tutorbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting tutorbook-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.DataSource == string(datasource.KindFixture) {
		logger.Warn("Worker is running on fixture data; API writes will not be seen")
	}

	src := cli.InitDataSource(context.Background(), logger, cfg)
	defer src.Close()

	// Statement sheet (optional): without a spreadsheet rows are kept in memory.
	var statement sheets.Statement
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewClient(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		statement = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		statement = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Discord (optional): without a token reminders are only logged.
	var notifier *worker.Notifier
	if cfg.DiscordToken != "" {
		n, session, err := worker.NewDiscordNotifier(cfg.DiscordToken, cfg.DiscordChannelID, logger)
		if err != nil {
			logger.Error("Failed to connect to Discord", applog.FieldError, err)
			os.Exit(1)
		}
		defer session.Close()
		notifier = n
		logger.Info("Discord notifier connected", "channel_id", cfg.DiscordChannelID)
	} else {
		notifier = worker.NewNotifier(nil, "", logger)
		logger.Info("Discord disabled - reminders will be logged only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	statementWorker := worker.NewStatementWorker(src.Store(), src, statement, statement, cfg.SyncBatchSize, logger)

	pending := worker.NewLoop("pending-sync", cfg.SyncInterval, func(ctx context.Context) error {
		_, err := statementWorker.ProcessPending(ctx)
		return err
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := pending.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop pending sync loop", applog.FieldError, err)
		}
	})

	// Catch up on payments written while the worker was down.
	logger.Info("Performing startup sync check...")
	if n, err := statementWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	} else {
		logger.Info("Startup sync check complete", "synced", n)
	}

	if err := pending.Start(ctx); err != nil {
		logger.Error("Failed to start pending sync loop", applog.FieldError, err)
		os.Exit(1)
	}

	handlers := statementWorker.Handlers()
	maps.Copy(handlers, notifier.Handlers())

	go func() {
		if err := amqpClient.ConsumeMessages(ctx, handlers); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
