package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"

	"github.com/okian/wpr/internal/adapters/mq/queue"
	"github.com/okian/wpr/internal/adapters/mq/worker"
	"github.com/okian/wpr/internal/domain/model"
	logging "github.com/okian/wpr/pkg/logger"
)

func TestMain(m *testing.M) {
	_ = logging.Init(logging.WithLevel("error"))
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu   sync.Mutex
	seen map[string]int
	fail map[string]error
}

func newRecorder() *recorder {
	return &recorder{seen: make(map[string]int), fail: make(map[string]error)}
}

func (r *recorder) Process(_ context.Context, m model.Measurement) error { //nolint:gocritic // hugeParam
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[m.AthleteID]; ok {
		return err
	}
	r.seen[m.AthleteID]++
	return nil
}

func (r *recorder) count(athleteID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[athleteID]
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.seen {
		n += c
	}
	return n
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		rec := newRecorder()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-worker"))
		go w.Run(ctx)

		convey.Convey("When a measurement is enqueued", func() {
			convey.So(q.Enqueue(ctx, model.Measurement{ID: "m1", AthleteID: "a1", FTP: 250, Weight: 70}), convey.ShouldBeNil)

			convey.Convey("Then it is processed", func() {
				convey.So(eventually(func() bool { return rec.count("a1") == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When processing fails", func() {
			rec.mu.Lock()
			rec.fail["a2"] = errors.New("boom")
			rec.mu.Unlock()
			convey.So(q.Enqueue(ctx, model.Measurement{ID: "m2", AthleteID: "a2"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, model.Measurement{ID: "m3", AthleteID: "a3"}), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(eventually(func() bool { return rec.count("a3") == 1 }), convey.ShouldBeTrue)
				convey.So(rec.count("a2"), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})

		convey.Reset(func() {
			cancel()
			<-w.Done()
		})
	})
}

func TestWorkerCancellation(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := queue.NewInMemoryQueue()
		ctx, cancel := context.WithCancel(context.Background())
		w := worker.NewInMemoryWorker(q, worker.ProcessorFunc(func(context.Context, model.Measurement) error { return nil }))
		go w.Run(ctx)

		convey.Convey("When its context is cancelled", func() {
			cancel()

			convey.Convey("Then Run returns", func() {
				select {
				case <-w.Done():
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(256))
		rec := newRecorder()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pool := worker.NewPool(4, q, rec)
		convey.So(pool.Size(), convey.ShouldEqual, 4)
		pool.Start(ctx)

		convey.Convey("When many measurements are enqueued and the pool drains", func() {
			for i := range 100 {
				m := model.Measurement{ID: fmt.Sprintf("m%d", i), AthleteID: fmt.Sprintf("a%d", i%10)}
				convey.So(q.Enqueue(ctx, m), convey.ShouldBeNil)
			}
			dctx, dcancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer dcancel()

			convey.So(pool.Drain(dctx), convey.ShouldBeNil)

			convey.Convey("Then every measurement was processed exactly once", func() {
				convey.So(rec.total(), convey.ShouldEqual, 100)
				convey.So(rec.count("a3"), convey.ShouldEqual, 10)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the pool is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(pool.Shutdown(sctx), convey.ShouldBeNil)
		})

		convey.Reset(func() {
			cancel()
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			_ = pool.Shutdown(sctx)
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newRecorder())

		convey.Convey("Then it falls back to one worker per CPU", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
