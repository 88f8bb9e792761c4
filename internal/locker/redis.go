package locker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockTTL       = 30 * time.Second
	lockRetryWait = 50 * time.Millisecond
)

// RedisLocker backs the lock and the dedup set with redis so several
// instances can share them.
type RedisLocker struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisLocker(addr, password string, db int, logger *zap.Logger) (*RedisLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisLocker{client: client, logger: logger}, nil
}

func (l *RedisLocker) Lock(key string) func() {
	ctx := context.Background()
	lockKey := "lock:conversation:" + key

	for {
		ok, err := l.client.SetNX(ctx, lockKey, 1, lockTTL).Result()
		if err != nil {
			// Redis down: proceed unlocked rather than stall the webhook.
			l.logger.Error("Failed to acquire conversation lock", zap.Error(err), zap.String("key", key))
			return func() {}
		}
		if ok {
			break
		}
		time.Sleep(lockRetryWait)
	}

	return func() {
		if err := l.client.Del(ctx, lockKey).Err(); err != nil {
			l.logger.Error("Failed to release conversation lock", zap.Error(err), zap.String("key", key))
		}
	}
}

func (l *RedisLocker) FirstDelivery(ctx context.Context, sid string) bool {
	if sid == "" {
		return true
	}
	seen, err := l.client.Exists(ctx, "dedup:message:"+sid).Result()
	if err != nil {
		l.logger.Error("Failed to check delivery dedup", zap.Error(err), zap.String("sid", sid))
		return true
	}
	return seen == 0
}

func (l *RedisLocker) MarkDelivered(ctx context.Context, sid string) {
	if sid == "" {
		return
	}
	if err := l.client.Set(ctx, "dedup:message:"+sid, 1, dedupTTL).Err(); err != nil {
		l.logger.Error("Failed to record delivery dedup", zap.Error(err), zap.String("sid", sid))
	}
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
