// Package worker applies queued measurements to athlete profiles.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/wpr/internal/adapters/mq/queue"
	"github.com/okian/wpr/pkg/logger"
	"github.com/okian/wpr/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Processor applies a measurement. The app service implements it.
type Processor interface {
	Process(ctx context.Context, m queue.Measurement) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, m queue.Measurement) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, m queue.Measurement) error { //nolint:gocritic // hugeParam
	return f(ctx, m)
}

// Source is where workers receive measurements from.
type Source interface {
	Dequeue(ctx context.Context) <-chan queue.Measurement
}

// InMemoryWorker drains a Source into a Processor.
type InMemoryWorker struct {
	source    Source
	processor Processor
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(source Source, processor Processor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		source:    source,
		processor: processor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes measurements until ctx is done, Shutdown is called or
// the source channel closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.source.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			w.process(ctx, m)
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, m queue.Measurement) { //nolint:gocritic // hugeParam
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := w.processor.Process(ctx, m); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "process_error")
		w.logger.Error(ctx, "measurement processing failed",
			logger.String("measurement_id", m.ID),
			logger.String("athlete_id", m.AthleteID),
			logger.Error(err),
		)
	}
}

// Shutdown stops the worker and waits for the in-flight measurement.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Pool runs several workers over one source.
type Pool struct {
	workers []*InMemoryWorker
	source  Source
	logger  logger.Logger
}

// NewPool creates a pool. A count below 1 uses runtime.NumCPU.
func NewPool(count int, source Source, processor Processor) *Pool {
	if count < 1 {
		count = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, count),
		source:  source,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range count {
		p.workers[i] = NewInMemoryWorker(source, processor, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Drain closes the source and waits for the workers to finish what is
// already queued.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	return p.wait(ctx)
}

// Shutdown stops every worker without draining the source.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	return p.wait(ctx)
}

func (p *Pool) wait(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	defer metrics.UpdateWorkerActiveCount(0)

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
