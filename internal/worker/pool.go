package worker

import (
	"context"
	"sync"
	"time"

	"seiza/internal/metrics"
	"seiza/internal/pkg/logger"
	"seiza/internal/queue"
)

// Pool runs a fixed number of workers over the ingress queue. Each
// worker blocks on Dequeue and hands the id to the processor.
type Pool struct {
	queue   queue.Queue
	proc    *Processor
	workers int
	log     *logger.Logger
}

func NewPool(q queue.Queue, proc *Processor, workers int, log *logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Pool{
		queue:   q,
		proc:    proc,
		workers: workers,
		log:     log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled and every worker has returned.
// In-flight jobs finish their current stage; nothing is requeued.
func (p *Pool) Run(ctx context.Context) {
	p.log.Info("worker pool starting", "workers", p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.runWorker(ctx, n)
		}(i)
	}
	wg.Wait()

	p.log.Info("worker pool stopped")
}

func (p *Pool) runWorker(ctx context.Context, n int) {
	log := p.log.WithFields(map[string]any{"worker": n})

	for {
		jobID, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping")
				return
			}
			log.Warn("dequeue error, retrying", "error", err.Error())
			time.Sleep(1 * time.Second)
			continue
		}
		if jobID == "" {
			continue
		}

		if depth, depthErr := p.queue.Depth(ctx); depthErr == nil {
			metrics.QueueDepth.Set(float64(depth))
		}

		jobCtx := logger.ContextWithJobID(ctx, jobID)
		jobLog := log.WithJobID(jobID)
		jobLog.Info("processing job")

		start := time.Now()
		if procErr := p.proc.ProcessJob(jobCtx, jobID); procErr != nil {
			jobLog.Error("job processing failed",
				"error", procErr.Error(),
				"duration_ms", time.Since(start).Milliseconds())
			continue
		}
		jobLog.Info("job done", "duration_ms", time.Since(start).Milliseconds())
	}
}
