// Package worker runs scoring jobs off the queue, one engine call per job.
// A failure in one job never stops the worker or the pool.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/clipscore/internal/adapters/mq/queue"
	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/pkg/logger"
	"github.com/okian/clipscore/pkg/metrics"
)

// Scorer computes a result for a validated document.
type Scorer interface {
	Score(doc *model.Document) model.Result
}

// Outcome is the result of one job. Err is set when scoring failed and
// Result must then be ignored.
type Outcome struct {
	Job    queue.Job
	Result model.Result
	Err    error
}

// Sink receives every outcome. Sink errors are logged and counted; they do
// not stop the worker.
type Sink interface {
	Handle(ctx context.Context, o Outcome) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, o Outcome) error

// Handle calls f.
func (f SinkFunc) Handle(ctx context.Context, o Outcome) error { return f(ctx, o) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue drains or it is stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue  Queue
	scorer Scorer
	sink   Sink
	name   string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, scorer Scorer, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named(w.name)
	}
	return w
}

// Run processes jobs until the queue channel closes, ctx is done or
// Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	o := w.score(j)
	if o.Err != nil {
		metrics.RecordWorkerError("scoring")
		w.logger.Error(ctx, "scoring failed",
			logger.String("job_id", j.ID),
			logger.String("video_id", j.Document.Meta.VideoID),
			logger.Error(o.Err),
		)
	} else {
		metrics.RecordDocumentScored(
			float64(time.Since(start).Microseconds())/1000,
			o.Result.Overall,
			len(o.Result.Diagnostics.Missing),
			o.Result.Flags.Incomplete,
		)
	}

	if err := w.sink.Handle(ctx, o); err != nil {
		metrics.RecordWorkerError("sink")
		metrics.RecordErrorByComponent("worker", "sink")
		w.logger.Error(ctx, "recording outcome failed",
			logger.String("job_id", j.ID),
			logger.Error(err),
		)
	}
}

// score isolates the engine call so a panic fails only this job.
func (w *InMemoryWorker) score(j queue.Job) (o Outcome) { //nolint:gocritic // hugeParam: jobs travel by value
	o.Job = j
	defer func() {
		if r := recover(); r != nil {
			o.Err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	o.Result = w.scorer.Score(&o.Job.Document)
	return o
}

// Pool manages a fixed set of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool. workerCount < 1 means runtime.NumCPU().
func NewPool(workerCount int, q Queue, scorer Scorer, sink Sink) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, scorer, sink, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned, which happens once the
// queue is closed and drained.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
		}
	}
	return nil
}

// Shutdown closes the queue when it can, then lets workers drain it until
// ctx expires. Workers still busy at the deadline are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	err := p.Wait(ctx)
	if err != nil {
		p.logger.Warn(ctx, "worker pool did not drain in time", logger.Error(err))
		for _, w := range p.workers {
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	return err
}
