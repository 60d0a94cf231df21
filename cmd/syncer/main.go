package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"cms_syncer/internal/config"
	"cms_syncer/internal/publisher"
	"cms_syncer/internal/scheduler"
	"cms_syncer/internal/service"
	"cms_syncer/internal/source/duda"
	"cms_syncer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// The event bus is optional; without a URL the pipeline runs
	// webhook-only.
	var events service.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:       cfg.RabbitMQ.URL,
			Exchange:  cfg.RabbitMQ.Exchange,
			QueueName: cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	siteStore := postgres.NewSiteStore(db)
	submissionStore := postgres.NewSubmissionStore(db)
	orderStore := postgres.NewOrderStore(db)
	productStore := postgres.NewProductStore(db)
	deliveryLog := postgres.NewDeliveryLogStore(db)
	txManager := postgres.NewTransactionManager(db)

	cmsSource := duda.New(duda.Config{
		BaseURL:        cfg.CMS.BaseURL,
		User:           cfg.CMS.User,
		Password:       cfg.CMS.Password,
		PageSize:       cfg.CMS.PageSize,
		Timeout:        cfg.CMS.Timeout,
		MaxAttempts:    cfg.CMS.Retry.MaxAttempts,
		InitialBackoff: cfg.CMS.Retry.InitialBackoff,
		MaxBackoff:     cfg.CMS.Retry.MaxBackoff,
	}, logger)

	syncService := service.NewSyncService(
		cmsSource,
		siteStore,
		submissionStore,
		orderStore,
		productStore,
		txManager,
		events,
		logger,
		cfg.Sync,
	)

	notifier := service.NewNotifier(cfg.Webhooks.Destinations, cfg.Webhooks.Timeout, deliveryLog, logger)
	notifyService := service.NewNotifyService(submissionStore, orderStore, siteStore, notifier, logger)

	sched := scheduler.NewScheduler(syncService, notifyService, cfg.Sync.Interval, cfg.Sync.NotifyInterval, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting cms syncer",
		"source", cmsSource.ID(),
		"sync_interval", cfg.Sync.Interval,
		"notify_interval", cfg.Sync.NotifyInterval,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
