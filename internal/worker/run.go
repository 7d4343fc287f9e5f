package worker

import (
	"context"
	"sync"
	"time"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/queue"
)

const popTimeout = 30 * time.Second

// Run consumes the render queue until ctx is canceled. Each consumer
// goroutine blocks on the queue and drives one job at a time; the engine
// applies the per-job timeout and persists the terminal state, so a
// Drive error here is logging material, not a retry signal.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	q := queue.NewRedisQueue(d.RDB, d.QueueName)

	n := d.Concurrency
	if n < 1 {
		n = 1
	}
	log.Info("worker starting", "consumers", n, "queue", d.QueueName)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			consume(ctx, d, q, log.WithFields(map[string]any{"consumer": id}))
		}(i)
	}
	wg.Wait()

	log.Info("worker stopped")
	return ctx.Err()
}

func consume(ctx context.Context, d Deps, q *queue.RedisQueue, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := q.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("queue pop error, retrying", "error", err.Error())
			time.Sleep(1 * time.Second)
			continue
		}
		if jobID == "" {
			continue
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.WithJobID(jobID)

		jobLog.Info("processing job")
		start := time.Now()

		if err := d.Engine.Drive(jobCtx, jobID); err != nil {
			jobLog.Error("job failed",
				"error", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		} else {
			jobLog.Info("job completed",
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}
