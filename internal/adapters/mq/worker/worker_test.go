package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/clipscore/internal/adapters/mq/queue"
	"github.com/okian/clipscore/internal/adapters/mq/worker"
	"github.com/okian/clipscore/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(videoID string) {
	mq.jobs <- queue.Job{ID: "job-" + videoID, Document: model.Document{Meta: model.Meta{VideoID: videoID}}}
}

// mockScorer scores 42 and panics for the video ID "boom".
type mockScorer struct{}

func (mockScorer) Score(doc *model.Document) model.Result {
	if doc.Meta.VideoID == "boom" {
		panic("formula exploded")
	}
	return model.Result{VideoID: doc.Meta.VideoID, Overall: 42}
}

type collector struct {
	mu       sync.Mutex
	outcomes map[string]worker.Outcome
	fail     bool
}

func newCollector() *collector {
	return &collector{outcomes: make(map[string]worker.Outcome)}
}

func (c *collector) Handle(_ context.Context, o worker.Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[o.Job.Document.Meta.VideoID] = o
	if c.fail {
		return errors.New("sink unavailable")
	}
	return nil
}

func (c *collector) get(id string) (worker.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.outcomes[id]
	return o, ok
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outcomes)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		sink := newCollector()
		w := worker.NewInMemoryWorker(q, mockScorer{}, sink, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job is queued", func() {
			q.add("v1")
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then its result reaches the sink", func() {
				o, ok := sink.get("v1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(o.Err, convey.ShouldBeNil)
				convey.So(o.Result.Overall, convey.ShouldEqual, 42)
				convey.So(o.Job.ID, convey.ShouldEqual, "job-v1")
			})
		})

		convey.Convey("When one job panics between two good ones", func() {
			q.add("a")
			q.add("boom")
			q.add("b")
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then only that job fails", func() {
				convey.So(sink.len(), convey.ShouldEqual, 3)
				o, _ := sink.get("boom")
				convey.So(errors.Is(o.Err, worker.ErrPanic), convey.ShouldBeTrue)
				a, _ := sink.get("a")
				b, _ := sink.get("b")
				convey.So(a.Err, convey.ShouldBeNil)
				convey.So(b.Err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the sink fails", func() {
			sink.mu.Lock()
			sink.fail = true
			sink.mu.Unlock()
			q.add("x")
			q.add("y")
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then the worker keeps going", func() {
				convey.So(sink.len(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		q := newMockQueue()
		sink := newCollector()
		pool := worker.NewPool(4, q, mockScorer{}, sink)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When jobs are queued and the pool shuts down", func() {
			ids := []string{"a", "b", "boom", "c", "d", "e"}
			for _, id := range ids {
				q.add(id)
			}
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then every job is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sink.len(), convey.ShouldEqual, len(ids))
			})
		})

		convey.Convey("When waiting on a queue that never closes", func() {
			wctx, wcancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer wcancel()
			err := pool.Wait(wctx)

			convey.Convey("Then Wait times out", func() {
				convey.So(errors.Is(err, worker.ErrShutdownTimeout), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with no worker count", t, func() {
		pool := worker.NewPool(0, newMockQueue(), mockScorer{}, worker.SinkFunc(func(context.Context, worker.Outcome) error { return nil }))
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
