package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/wpr/internal/domain/model"
)

func measurement(id, athlete string) model.Measurement {
	return model.Measurement{ID: id, AthleteID: athlete, FTP: 250, Weight: 70}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, measurement("m1", "a1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "m1" || got.AthleteID != "a1" {
		t.Errorf("unexpected measurement %+v", got)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for i := range 2 {
		if err := q.Enqueue(ctx, measurement(fmt.Sprintf("m%d", i), "a1")); err != nil {
			t.Fatalf("expected enqueue to succeed, got %v", err)
		}
	}
	if err := q.Enqueue(ctx, measurement("m3", "a1")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, measurement("m1", "a1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_SharedConsumers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers, perProducer = 5, 40

	var consumed sync.Map
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range q.Dequeue(ctx) {
				consumed.Store(m.ID, struct{}{})
			}
		}()
	}

	var pwg sync.WaitGroup
	for p := range producers {
		pwg.Add(1)
		go func(p int) {
			defer pwg.Done()
			for j := range perProducer {
				m := measurement(fmt.Sprintf("m%d_%d", p, j), fmt.Sprintf("a%d", p))
				for errors.Is(q.Enqueue(ctx, m), ErrFull) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	pwg.Wait()

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	wg.Wait()

	count := 0
	consumed.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != producers*perProducer {
		t.Errorf("expected %d consumed, got %d", producers*perProducer, count)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, measurement("m1", "a1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, measurement("m2", "a2")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, measurement("m3", "a1")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// pending measurements drain before the channel closes
	var ids []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				if len(ids) != 2 {
					t.Errorf("expected 2 drained measurements, got %v", ids)
				}
				if err := q.Close(); err != nil {
					t.Errorf("expected second close to succeed, got error: %v", err)
				}
				return
			}
			ids = append(ids, m.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to close within timeout")
		}
	}
}
