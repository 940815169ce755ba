package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mailgenie/config"
	"mailgenie/internal/ai"
	"mailgenie/internal/db"
	"mailgenie/internal/engine"
	"mailgenie/internal/gmail"
	"mailgenie/internal/job"
	"mailgenie/internal/poller"
	redisclient "mailgenie/internal/redis"
	"mailgenie/internal/repository"
	"mailgenie/internal/util"
	applogger "mailgenie/pkg/logger"
	"mailgenie/pkg/mq"
	"mailgenie/pkg/outbox"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger := applogger.NewLogger()
	defer logger.Sync()

	logger.Info("Starting worker service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	logger.Info("Database connection established")

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, 24*time.Hour, logger)

	// Init MQ publisher and outbox dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(dbConn)
	dispatcher := outbox.NewDispatcher(outboxRepo, publisher, logger)
	go dispatcher.Start(ctx)

	// Init repositories
	accountRepo := repository.NewAccountRepository(dbConn)
	ruleRepo := repository.NewRuleRepository(dbConn)
	statusRepo := repository.NewStatusRepository(dbConn)
	recorder := repository.NewProcessedRecorder(dbConn, outboxRepo)

	// Init clients
	gmailClient := gmail.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret, logger)
	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, logger)

	// Init pipeline
	mailboxPoller := poller.NewPoller(gmailClient, accountRepo, logger)
	categorizer := engine.NewCategorizer(aiClient, logger)
	actor := job.WithLabelLock(gmailClient, util.NewLabelLock(rdb, 10*time.Second, logger))
	processor := job.NewProcessor(
		accountRepo, ruleRepo, mailboxPoller, categorizer,
		actor, deduper, recorder, statusRepo,
		logger,
	)

	// Expose Prometheus metrics
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Poller.MetricsPort, nil); err != nil {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	logger.Info("Worker ready",
		zap.Duration("poll_interval", cfg.Poller.Interval),
		zap.String("metrics_port", cfg.Poller.MetricsPort),
	)

	runPass(ctx, processor, logger)

	ticker := time.NewTicker(cfg.Poller.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker shutting down")
			return
		case <-ticker.C:
			runPass(ctx, processor, logger)
		}
	}
}

func runPass(ctx context.Context, processor *job.Processor, logger *zap.Logger) {
	summary, err := processor.Run(ctx)
	if err != nil {
		logger.Error("Processing pass failed", zap.Error(err))
		return
	}
	logger.Info("Processing pass completed",
		zap.String("status", string(summary.Status)),
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("errors", summary.ErrorCount),
	)
}
