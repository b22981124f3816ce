package main

import (
	"context"
	"os"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/cache"
	"tutorbook/internal/cli"
	apphttp "tutorbook/internal/http"
	applog "tutorbook/internal/log"
	"tutorbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	src := cli.InitDataSource(context.Background(), logger, cfg)

	// Without a broker the API still serves; statement sync relies on the
	// worker's pending scan instead.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - payments will not be pushed to the statement sheet")
	}

	ledger := services.NewLedgerService(src, publisher, services.Options{
		CacheSize: cfg.SummaryCacheSize,
		CacheTTL:  cfg.SummaryCacheTTL,
	}, logger)

	caches := cache.NewManager(logger)
	ledger.RegisterCaches(caches)
	caches.StartCleanup(context.Background(), time.Minute)

	srv := apphttp.NewServer(ledger, apphttp.Options{
		Addr:          ":" + cfg.Port,
		RateLimitRPS:  cfg.RateLimitRPS,
		AllowedOrigin: cfg.AllowedOrigin,
	}, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		caches.Stop()
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", applog.FieldError, err)
		}
	})

	logger.Info("Starting tutorbook server",
		"port", cfg.Port,
		applog.FieldDataSource, src.Kind().String())
	if err := srv.Start(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
