package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/examboard/internal/adapters/mq/queue"
	"github.com/okian/examboard/internal/adapters/mq/worker"
	"github.com/okian/examboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
	hit  chan string
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{fail: map[string]error{}, hit: make(chan string, 100)}
}

func (p *recordingProcessor) Process(_ context.Context, j worker.Job) error {
	p.mu.Lock()
	p.seen = append(p.seen, j.RunID)
	err := p.fail[j.RunID]
	p.mu.Unlock()
	p.hit <- j.RunID
	return err
}

func (p *recordingProcessor) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seen)
}

func waitFor(ch <-chan string, n int) bool {
	timeout := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-timeout:
			return false
		}
	}
	return true
}

func TestWorker(t *testing.T) {
	convey.Convey("Given a worker on an in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		proc := newRecordingProcessor()
		w := worker.NewInMemoryWorker(q, proc, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are enqueued", func() {
			convey.So(q.Enqueue(ctx, queue.Job{RunID: "a"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.Job{RunID: "b"}), convey.ShouldBeNil)

			convey.Convey("Then each job is processed once", func() {
				convey.So(waitFor(proc.hit, 2), convey.ShouldBeTrue)
				convey.So(proc.count(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a job fails", func() {
			proc.fail["bad"] = errors.New("boom")
			convey.So(q.Enqueue(ctx, queue.Job{RunID: "bad"}), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, queue.Job{RunID: "good"}), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(waitFor(proc.hit, 2), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		proc := newRecordingProcessor()
		pool := worker.NewPool(4, q, proc)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many jobs arrive", func() {
			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, queue.Job{RunID: string(rune('a' + i))}), convey.ShouldBeNil)
			}

			convey.Convey("Then all are processed and shutdown closes the queue", func() {
				convey.So(waitFor(proc.hit, 20), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), worker.ProcessorFunc(func(context.Context, worker.Job) error { return nil }))
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
