package render

import (
	"context"
	"sync"

	"github.com/hyeonjw1106/really-big-bang/internal/pkg/errors"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/logger"
	"github.com/hyeonjw1106/really-big-bang/internal/pkg/metrics"
)

// DriveFunc advances one job to a terminal state.
type DriveFunc func(ctx context.Context, jobID string) error

// LocalPool is a bounded in-process dispatcher: a fixed number of worker
// goroutines drain a buffered queue of job ids and drive each one. It
// replaces unbounded fire-and-forget dispatch so concurrent renders cannot
// spawn without limit.
type LocalPool struct {
	drive   DriveFunc
	queue   chan string
	log     *logger.Logger
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// NewLocalPool creates a pool with the given worker count and queue depth.
func NewLocalPool(drive DriveFunc, workers, depth int, log *logger.Logger) *LocalPool {
	if workers < 1 {
		workers = 1
	}
	if depth < workers {
		depth = workers * 16
	}
	if log == nil {
		log = logger.NewDefault()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &LocalPool{
		drive:   drive,
		queue:   make(chan string, depth),
		log:     log.WithComponent("localpool"),
		baseCtx: ctx,
		cancel:  cancel,
	}
	p.start(workers)
	return p
}

func (p *LocalPool) start(workers int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	p.log.Info("local render pool started", "workers", workers, "depth", cap(p.queue))
}

func (p *LocalPool) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.baseCtx.Done():
			return
		case jobID, ok := <-p.queue:
			if !ok {
				return
			}
			metrics.QueueDepth.Dec()
			// Drive gets the pool's lifetime context, not the HTTP
			// request's; the engine applies the per-job timeout.
			jobCtx := logger.ContextWithJobID(p.baseCtx, jobID)
			if err := p.drive(jobCtx, jobID); err != nil {
				p.log.WithJobID(jobID).Error("drive failed", "error", err.Error())
			}
		}
	}
}

// Enqueue hands a job to the pool. It fails fast when the queue is full
// rather than blocking the submit path.
func (p *LocalPool) Enqueue(ctx context.Context, jobID string) error {
	select {
	case p.queue <- jobID:
		metrics.QueueDepth.Inc()
		return nil
	default:
		return errors.New(errors.CodeResourceExhaust, "render queue is full")
	}
}

// Close stops the workers without draining the queue; undelivered jobs
// remain queued in persistence and can be picked up by a worker binary.
func (p *LocalPool) Close() {
	p.cancel()
	p.wg.Wait()
}
