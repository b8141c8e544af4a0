// Package dedup suppresses duplicate webhook deliveries. Gateways redeliver
// on timeouts, so the webhook handler checks each provider message id once.
// The check is best-effort: a dedup failure never blocks processing, the
// conversation store's last-write-wins semantics remain the real guarantee.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper reports whether a delivery key has been seen recently.
type Deduper interface {
	// Seen marks the key and reports whether it was already marked.
	Seen(ctx context.Context, key string) (bool, error)
}

// RedisDeduper marks keys with SETNX and a TTL.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a redis-backed deduper.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// Seen implements Deduper. The first caller for a key sets it and gets
// false; every caller within the TTL after that gets true.
func (d *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	set, err := d.client.SetNX(ctx, "dedup:"+key, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}

// Noop never reports a duplicate. Used when redis is not configured.
type Noop struct{}

// Seen implements Deduper.
func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }

var (
	_ Deduper = (*RedisDeduper)(nil)
	_ Deduper = Noop{}
)
