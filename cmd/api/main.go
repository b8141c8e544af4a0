package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sms_chatbot_backend/internal/alerts"
	"sms_chatbot_backend/internal/campaigns"
	"sms_chatbot_backend/internal/content"
	"sms_chatbot_backend/internal/conversations"
	"sms_chatbot_backend/internal/dedup"
	"sms_chatbot_backend/internal/events"
	"sms_chatbot_backend/internal/gateway"
	apphttp "sms_chatbot_backend/internal/http"
	"sms_chatbot_backend/internal/http/router"
	"sms_chatbot_backend/internal/scheduler"
	"sms_chatbot_backend/platform/config"
	"sms_chatbot_backend/platform/db"
	"sms_chatbot_backend/platform/logger"
	"sms_chatbot_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	completionScheduler, closeScheduler := initCompletionScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	deduper := initDeduper(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// External clients
	gatewayClient := gateway.NewClient(cfg, log)
	contentClient := content.NewClient(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	campaignsModule := campaigns.NewModule(pool, val, log)
	if err := campaignsModule.Provider().Reload(ctx); err != nil {
		log.Warn("initial campaign config load failed", "error", err)
	}

	conversationsModule := conversations.NewModule(
		pool,
		campaignsModule.Provider(),
		gatewayClient,
		contentClient,
		completionScheduler,
		deduper,
		eventBus,
		val,
		log,
	)

	// Alerts module subscribes to domain events (not HTTP-facing)
	if cfg.GetAlertsEnabled() {
		alerts.NewModule(alerts.NewSMTPSender(cfg), log).Subscribe(eventBus)
		log.Info("ops alerts enabled", "to", cfg.GetAlertToAddress())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			conversationsModule,
			campaignsModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initCompletionScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; completion retries disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize completion scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initDeduper(cfg *config.Config, log *logger.Logger) dedup.Deduper {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; inbound dedup disabled")
		return dedup.Noop{}
	}

	opt, err := goredis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("invalid REDIS_URL; inbound dedup disabled", "error", err)
		return dedup.Noop{}
	}

	return dedup.NewRedisDeduper(goredis.NewClient(opt), cfg.GetDedupTTL())
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
