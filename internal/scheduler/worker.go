package scheduler

import (
	"context"
	"fmt"

	"sms_chatbot_backend/platform/config"
	"sms_chatbot_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// CompletionRunner re-runs the completion sequence for a leftover record.
type CompletionRunner interface {
	RetryCompletion(ctx context.Context, phone, campaign string, attempt int) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner CompletionRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner CompletionRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskCompletionRetry, w.handleCompletionRetry)

	return w, nil
}

// handleCompletionRetry never reports failure back to asynq: a retryable
// completion failure schedules its own follow-up task, so an asynq-level
// retry on top of that would double the chain.
func (w *Worker) handleCompletionRetry(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCompletionRetryPayload(task)
	if err != nil {
		return err
	}

	if err := w.runner.RetryCompletion(ctx, payload.Phone, payload.Campaign, payload.Attempt); err != nil {
		w.log.Warn("completion retry failed",
			"phone", payload.Phone,
			"campaign", payload.Campaign,
			"attempt", payload.Attempt,
			"error", err,
		)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
