package main

import (
	"time"

	"mailgenie/config"
	"mailgenie/internal/ai"
	"mailgenie/internal/api"
	"mailgenie/internal/db"
	"mailgenie/internal/engine"
	"mailgenie/internal/gmail"
	"mailgenie/internal/job"
	"mailgenie/internal/poller"
	redisclient "mailgenie/internal/redis"
	"mailgenie/internal/repository"
	"mailgenie/internal/service"
	"mailgenie/internal/util"
	applogger "mailgenie/pkg/logger"
	"mailgenie/pkg/mq"
	"mailgenie/pkg/outbox"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger := applogger.NewLogger()
	defer logger.Sync()

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, 24*time.Hour, logger)

	// Init MQ publisher for outbox writes and replays
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	outboxRepo := outbox.NewRepository(dbConn)
	replayService := outbox.NewReplayService(outboxRepo, publisher)

	// Init repositories
	userRepo := repository.NewUserRepository(dbConn)
	accountRepo := repository.NewAccountRepository(dbConn)
	ruleRepo := repository.NewRuleRepository(dbConn)
	logRepo := repository.NewLogRepository(dbConn)
	statusRepo := repository.NewStatusRepository(dbConn)
	recorder := repository.NewProcessedRecorder(dbConn, outboxRepo)

	// Init clients
	gmailClient := gmail.NewClient(cfg.Google.ClientID, cfg.Google.ClientSecret, logger)
	aiClient := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, logger)

	// Init processing pipeline for manual runs
	mailboxPoller := poller.NewPoller(gmailClient, accountRepo, logger)
	categorizer := engine.NewCategorizer(aiClient, logger)
	actor := job.WithLabelLock(gmailClient, util.NewLabelLock(rdb, 10*time.Second, logger))
	processor := job.NewProcessor(
		accountRepo, ruleRepo, mailboxPoller, categorizer,
		actor, deduper, recorder, statusRepo,
		logger,
	)

	// Init services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)

	// Init handlers
	authHandler := api.NewAuthHandler(authService)
	accountHandler := api.NewAccountHandler(accountRepo)
	ruleHandler := api.NewRuleHandler(ruleRepo)
	logHandler := api.NewLogHandler(logRepo, accountRepo)
	jobHandler := api.NewJobHandler(processor, statusRepo, logger)
	eventHandler := api.NewEventHandler(replayService)

	// Init router
	router := api.NewRouter(
		authHandler, accountHandler, ruleHandler,
		logHandler, jobHandler, eventHandler,
		cfg.JWT.Secret,
	)

	// Run server
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
