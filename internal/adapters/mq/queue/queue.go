// Package queue buffers accepted measurements until a worker applies them.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Measurement is the payload flowing through the queue.
type Measurement = model.Measurement

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a measurement, failing fast with ErrFull or ErrClosed.
	Enqueue(ctx context.Context, m Measurement) error

	// Dequeue returns the shared consumer channel. It is closed once the
	// queue is closed and drained, or ctx is done.
	Dequeue(ctx context.Context) <-chan Measurement

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

type envelope struct {
	m          Measurement
	enqueuedAt time.Time
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan envelope
	capacity int

	mu     sync.RWMutex
	closed bool

	once sync.Once
	out  chan Measurement
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan envelope, q.capacity)
	q.out = make(chan Measurement)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a measurement to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, m Measurement) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.enqueueFailed("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.enqueueFailed("context_cancelled")
		return fmt.Errorf("enqueue: %w", err)
	}

	select {
	case q.items <- envelope{m: m, enqueuedAt: time.Now()}:
		metrics.RecordQueueEnqueue()
		q.observeSize()
		return nil
	default:
		q.enqueueFailed("queue_full")
		return ErrFull
	}
}

func (q *InMemoryQueue) enqueueFailed(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

// Dequeue returns the consumer channel. Every caller receives the same
// channel so several workers can share it.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Measurement {
	q.once.Do(func() {
		go q.pump(ctx)
	})
	return q.out
}

func (q *InMemoryQueue) pump(ctx context.Context) {
	defer close(q.out)
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-q.items:
			if !ok {
				return
			}
			select {
			case q.out <- env.m:
				metrics.RecordQueueDequeue()
				metrics.RecordQueueProcessingLatency(float64(time.Since(env.enqueuedAt).Milliseconds()))
				q.observeSize()
			case <-ctx.Done():
				return
			}
		}
	}
}

// Len returns the number of pending measurements.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observeSize()
}

func (q *InMemoryQueue) observeSize() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close stops accepting measurements. Pending ones are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
