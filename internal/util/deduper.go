package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper suppresses reprocessing of a message id across overlapping
// passes. Actions are idempotent, so this is an optimization, not a
// correctness requirement: when redis is unavailable processing proceeds.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func dedupKey(accountID, messageID string) string {
	return fmt.Sprintf("dedup:%s:%s", accountID, messageID)
}

// AcquireOnce tries to acquire a dedup lock for an account + message id.
// Returns true if this is the FIRST time processing, false on a duplicate.
func (d *Deduper) AcquireOnce(ctx context.Context, accountID, messageID string) bool {
	key := dedupKey(accountID, messageID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		// Redis down? Fail open: at-least-once beats dropped messages.
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("account_id", accountID),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicate message",
			zap.String("account_id", accountID),
			zap.String("message_id", messageID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release drops the dedup lock so a failed message can be retried by a
// later pass. Without this a transient failure would suppress the message
// for the full TTL even though the overlap window re-lists it.
func (d *Deduper) Release(ctx context.Context, accountID, messageID string) {
	key := dedupKey(accountID, messageID)

	if err := d.rdb.Del(ctx, key).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Failed to release dedup key",
			zap.String("account_id", accountID),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
