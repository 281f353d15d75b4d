package admission

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "seiza:quota:"

// RedisLimiter backs quota counters with Redis so all api instances share
// one view. INCR the counter, arm the window TTL on the first hit, and read
// the remaining TTL as the retry hint on denial.
type RedisLimiter struct {
	rdb *redis.Client
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb}
}

func (l *RedisLimiter) Take(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := redisKeyPrefix + key

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(limit) {
		ttl, err := l.rdb.TTL(ctx, k).Result()
		if err != nil {
			return false, 0, err
		}
		if ttl < 0 {
			// Counter lost its TTL (crash between INCR and EXPIRE): re-arm.
			l.rdb.Expire(ctx, k, window)
			ttl = window
		}
		return false, ttl, nil
	}
	return true, 0, nil
}
