package util

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockPollInterval = 100 * time.Millisecond

// LabelLock serializes label get-or-create calls across processes so
// concurrent passes do not race Gmail's create endpoint. Like the deduper
// it fails open: a redis outage falls back to running unlocked, and the
// mailbox client's conflict recovery absorbs the remaining race.
type LabelLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewLabelLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *LabelLock {
	return &LabelLock{rdb: rdb, ttl: ttl, logger: logger}
}

// WithLock runs fn while holding the named lock, waiting up to the lock
// TTL for a holder to finish.
func (l *LabelLock) WithLock(ctx context.Context, key string, fn func() error) error {
	lockKey := "label_lock:" + key
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.rdb.SetNX(ctx, lockKey, "1", l.ttl).Result()
		if err != nil {
			l.logger.Warn("Label lock unavailable, proceeding unlocked",
				zap.String("key", key),
				zap.Error(err),
			)
			return fn()
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			l.logger.Warn("Label lock wait timed out, proceeding unlocked",
				zap.String("key", key),
			)
			return fn()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}

	defer l.rdb.Del(context.WithoutCancel(ctx), lockKey)
	return fn()
}
