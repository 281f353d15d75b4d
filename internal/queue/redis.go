package queue

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// pushIfBelowCap enforces the capacity bound and the push as one atomic
// script, so two api instances cannot both squeeze past the limit.
var pushIfBelowCap = redis.NewScript(`
if redis.call("LLEN", KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("LPUSH", KEYS[1], ARGV[1])
return 1
`)

// RedisQueue is a Redis list shared between api and worker processes.
// LPUSH on submit, BRPOP on the worker side keeps FIFO order.
type RedisQueue struct {
	rdb      *redis.Client
	key      string
	capacity int
}

func NewRedisQueue(rdb *redis.Client, key string, capacity int) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key, capacity: capacity}
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	pushed, err := pushIfBelowCap.Run(ctx, q.rdb, []string{q.key}, jobID, q.capacity).Int()
	if err != nil {
		return err
	}
	if pushed == 0 {
		return ErrQueueFull
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, 0, q.key).Result()
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value]
	return res[1], nil
}

func (q *RedisQueue) Depth(ctx context.Context) (int, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	return int(n), err
}
