package cache

import (
	"academy/config"
	"academy/logger"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyStore remembers which provider events were already handled
type IdempotencyStore interface {
	// MarkProcessed returns true if key was newly marked, false if it was already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so a retried delivery is processed again
	Release(ctx context.Context, key string) error
	Close() error
}

// WebhookEvents is the store used by the webhook receivers
var WebhookEvents IdempotencyStore = NewInMemoryIdempotencyStore()

// Init points WebhookEvents at Redis when REDIS_ADDR is reachable, in-memory otherwise
func Init(cfg *config.Config) IdempotencyStore {
	if cfg.RedisAddr == "" {
		logger.Log.Warn("REDIS_ADDR not set, webhook idempotency is process-local")
		return WebhookEvents
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Error("failed to connect to Redis, using in-memory idempotency store", zap.Error(err))
		_ = client.Close()
		return WebhookEvents
	}

	logger.Log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	WebhookEvents = NewRedisIdempotencyStore(client, "")
	return WebhookEvents
}
