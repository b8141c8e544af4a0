// Package scheduler queues delayed completion retries on asynq. A reportback
// that could not be delivered to the content system is re-run from here
// without waiting for the member's next inbound message.
package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"

	"sms_chatbot_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// maxCompletionAttempts bounds the internal retry chain. The next inbound
// message from the member still re-enters the completion sequence after the
// chain is exhausted.
const maxCompletionAttempts = 5

type Client struct {
	client *asynq.Client
	queue  string
	cfg    config.SchedulerConfig
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
		cfg:    cfg,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleCompletionRetry enqueues a delayed re-run of the completion
// sequence. Attempts past the cap are dropped.
func (c *Client) ScheduleCompletionRetry(ctx context.Context, phone, campaign string, attempt int) error {
	if c == nil || c.client == nil {
		return nil
	}
	if attempt > maxCompletionAttempts {
		return nil
	}

	task, err := NewCompletionRetryTask(CompletionRetryPayload{
		Phone:    phone,
		Campaign: campaign,
		Attempt:  attempt,
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(c.cfg.GetCompletionRetryDelay()),
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
	)
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
