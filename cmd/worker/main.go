// The worker drains the completion retry queue: reportbacks that could not
// be delivered to the content system are re-run here without messaging the
// member again.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/content"
	"sms_chatbot_backend/internal/conversations"
	"sms_chatbot_backend/internal/dedup"
	"sms_chatbot_backend/internal/events"
	"sms_chatbot_backend/internal/gateway"
	"sms_chatbot_backend/internal/scheduler"
	"sms_chatbot_backend/platform/config"
	"sms_chatbot_backend/platform/db"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting completion retry worker", "env", cfg.Env)

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the retry worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	pool, err := db.NewPool(poolCtx, cfg)
	cancel()
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	completionScheduler, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer completionScheduler.Close()

	campaignProvider := campaigns.NewProvider(campaigns.NewRepository(pool), log)
	if err := campaignProvider.Reload(ctx); err != nil {
		log.Warn("initial campaign config load failed", "error", err)
	}

	conversationsModule := conversations.NewModule(
		pool,
		campaignProvider,
		gateway.NewClient(cfg, log),
		content.NewClient(cfg, log),
		completionScheduler,
		dedup.Noop{},
		eventBus,
		validator.New(),
		log,
	)

	worker, err := scheduler.NewWorker(cfg, conversationsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("worker listening", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("worker stopped")
}
