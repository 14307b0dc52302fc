package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"corpus_syncer/internal/config"
	"corpus_syncer/internal/ingest"
	"corpus_syncer/internal/publisher"
	"corpus_syncer/internal/scheduler"
	"corpus_syncer/internal/service"
	"corpus_syncer/internal/source/ddr"
	"corpus_syncer/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runOnce := flag.Bool("once", false, "run a single sync and exit")
	validate := flag.Bool("validate", false, "dry-run: report the batch/corpus diff and exit")
	listPIDs := flag.Bool("pids", false, "print every pid in the corpus and exit")
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

	documentStore := postgres.NewDocumentStore(db)
	syncRunStore := postgres.NewSyncRunStore(db)
	txManager := postgres.NewTransactionManager(db)

	archiveSource := ddr.New(ddr.Config{
		Endpoint:       cfg.Archive.Endpoint,
		APIToken:       cfg.Archive.APIToken,
		Timeout:        cfg.Archive.Timeout,
		MaxAttempts:    cfg.Archive.Retry.MaxAttempts,
		InitialBackoff: cfg.Archive.Retry.InitialBackoff,
		MaxBackoff:     cfg.Archive.Retry.MaxBackoff,
	}, logger)

	// The read-only modes never publish.
	var events service.Publisher
	if !*validate && !*listPIDs {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		events = rabbitMQ
	}

	syncService := service.NewSyncService(
		archiveSource,
		documentStore,
		syncRunStore,
		txManager,
		events,
		ingest.NewParser(ingest.FileLevelPolicy{}),
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	switch {
	case *listPIDs:
		pids, err := syncService.CorpusPIDs(ctx)
		if err != nil {
			logger.Error("list corpus pids failed", "error", err)
			os.Exit(1)
		}
		for _, pid := range pids {
			fmt.Println(pid)
		}
		logger.Info("corpus pids listed", "count", len(pids))

	case *validate:
		report, err := syncService.Validate(ctx)
		if err != nil {
			logger.Error("validation failed", "error", err)
			os.Exit(1)
		}
		logger.Info("validation report",
			"batch_pids", report.BatchPIDCount,
			"corpus_pids", report.CorpusPIDCount,
			"needs_sync", len(report.NeedsSync),
			"already_synced", len(report.AlreadySynced),
			"orphaned", len(report.Orphaned),
		)
		if len(report.Orphaned) > 0 {
			logger.Warn("orphaned pids", "pids", report.Orphaned)
		}

	case *runOnce:
		runCtx, runCancel := context.WithTimeout(ctx, cfg.Sync.RunTimeout)
		defer runCancel()

		summary, err := syncService.Run(runCtx, service.RunOptions{
			Mode:        cfg.Sync.Mode,
			TriggeredBy: "cli",
		})
		if err != nil {
			logger.Error("sync failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sync finished",
			"sync_id", summary.SyncID,
			"status", summary.Status,
			"new", summary.RecordsNew,
			"updated", summary.RecordsUpdated,
			"failed", summary.RecordsFailed,
		)

	default:
		logger.Info("starting corpus syncer",
			"source", archiveSource.Name(),
			"interval", cfg.Sync.Interval,
			"mode", cfg.Sync.Mode,
		)

		sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, cfg.Sync.RunTimeout, cfg.Sync.Mode, logger)
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("scheduler error", "error", err)
			os.Exit(1)
		}
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
