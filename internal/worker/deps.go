package worker

import (
	"github.com/redis/go-redis/v9"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/render"
)

// Deps wires the worker loop. Engine owns the job lifecycle; the worker
// only pulls ids off the queue and hands them to Drive.
type Deps struct {
	RDB       *redis.Client
	QueueName string
	Engine    *render.Engine
	// Concurrency is the number of consumer goroutines. Values below 1
	// fall back to a single consumer.
	Concurrency int
	Log         *logger.Logger
}
