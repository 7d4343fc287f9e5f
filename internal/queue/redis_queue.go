// Package queue carries render job ids between the API process and the
// worker on a Redis list. LPUSH on submit, BRPOP in the worker, so jobs
// come out in submission order.
package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/metrics"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

type RedisQueue struct {
	rdb  *redis.Client
	name string
}

func NewRedisQueue(rdb *redis.Client, name string) *RedisQueue {
	return &RedisQueue{rdb: rdb, name: name}
}

var _ render.Dispatcher = (*RedisQueue)(nil)

// Enqueue pushes the job id for the worker to pick up.
func (q *RedisQueue) Enqueue(ctx context.Context, jobID string) error {
	if err := q.rdb.LPush(ctx, q.name, jobID).Err(); err != nil {
		return errors.Wrap(err, "queue.enqueue", "pushing job id")
	}
	if depth, err := q.rdb.LLen(ctx, q.name).Result(); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}
	return nil
}

// Pop blocks until a job id is available or the timeout elapses. An empty
// id with a nil error means the timeout fired; callers just loop.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	if depth, err := q.rdb.LLen(ctx, q.name).Result(); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}
	return res[1], nil
}
