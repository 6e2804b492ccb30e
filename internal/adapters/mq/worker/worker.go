// Package worker runs the goroutines that rebuild event result snapshots.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/yogascore/internal/adapters/mq/queue"
	"github.com/okian/yogascore/pkg/logger"
	"github.com/okian/yogascore/pkg/metrics"
)

// Rebuilder recomputes and stores the results of one event.
type Rebuilder interface {
	RebuildResults(ctx context.Context, eventID int) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker consumes jobs until its queue closes or ctx is cancelled.
type Worker struct {
	name      string
	queue     Queue
	rebuilder Rebuilder
	logger    logger.Logger
	processed *atomic.Int64
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, r Rebuilder, opts ...Option) *Worker {
	w := &Worker{
		name:      "worker",
		queue:     q,
		rebuilder: r,
		processed: new(atomic.Int64),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get()
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue is closed or ctx is done.
func (w *Worker) Run(ctx context.Context) {
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "results rebuild failed", logger.Int("event_id", job.EventID), logger.Error(err))
			}
		}
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if err := w.rebuilder.RebuildResults(ctx, job.EventID); err != nil {
		metrics.RecordResultsRebuildError()
		metrics.RecordErrorByComponent("worker", "rebuild")
		return fmt.Errorf("rebuild event %d: %w", job.EventID, err)
	}
	w.processed.Add(1)
	metrics.RecordResultsRebuild()
	w.logger.Debug(ctx, "results rebuilt",
		logger.Int("event_id", job.EventID),
		logger.Duration("queued_for", start.Sub(job.EnqueuedAt)),
	)
	return nil
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers   []*Worker
	queue     Queue
	processed atomic.Int64
	wg        sync.WaitGroup
	logger    logger.Logger
}

// NewPool creates count workers. A count below 1 defaults to the CPU count.
func NewPool(count int, q Queue, r Rebuilder, opts ...Option) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	p := &Pool{queue: q}
	for i := 0; i < count; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewWorker(q, r, wopts...)
		w.processed = &p.processed
		p.workers = append(p.workers, w)
	}
	p.logger = p.workers[0].logger
	metrics.UpdateWorkerCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs completed successfully.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Warn(ctx, "closing queue", logger.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		metrics.UpdateWorkerCount(0)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
	}
}
