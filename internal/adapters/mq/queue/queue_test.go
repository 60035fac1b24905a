package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/acerank/internal/adapters/mq/queue"
	"github.com/okian/acerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func snap(id string) model.Snapshot {
	return model.Snapshot{ID: id, ClanTag: "#CLAN", Players: []model.PlayerInput{{Tag: "#P1"}}}
}

func TestEnqueueDequeue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))

		Convey("When enqueuing snapshots", func() {
			So(q.Enqueue(ctx, snap("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, snap("b")), ShouldBeTrue)

			Convey("Then they come out in order", func() {
				ch := q.Dequeue(ctx)
				So((<-ch).ID, ShouldEqual, "a")
				So((<-ch).ID, ShouldEqual, "b")
			})

			Convey("And Len reflects the backlog", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})
	})
}

func TestBackpressure(t *testing.T) {
	ctx := context.Background()

	Convey("Given a full queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))
		So(q.Enqueue(ctx, snap("a")), ShouldBeTrue)
		So(q.Enqueue(ctx, snap("b")), ShouldBeTrue)

		Convey("When another snapshot arrives", func() {
			ok := q.Enqueue(ctx, snap("c"))

			Convey("Then it is rejected without blocking", func() {
				So(ok, ShouldBeFalse)
				So(q.Len(ctx), ShouldEqual, 2)
			})
		})
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with a backlog", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		for i := 0; i < 3; i++ {
			So(q.Enqueue(ctx, snap(fmt.Sprintf("s%d", i))), ShouldBeTrue)
		}

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected", func() {
				So(q.IsClosed(), ShouldBeTrue)
				So(q.Enqueue(ctx, snap("late")), ShouldBeFalse)
			})

			Convey("And the backlog drains before the channel closes", func() {
				var drained []string
				for s := range q.Dequeue(ctx) {
					drained = append(drained, s.ID)
				}
				So(drained, ShouldResemble, []string{"s0", "s1", "s2"})
			})

			Convey("And closing twice is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})
		})
	})
}

func TestConcurrentProducersConsumer(t *testing.T) {
	Convey("Given several producers and one consumer", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(256))

		const producers = 4
		const perProducer = 50
		done := make(chan struct{})
		received := make(map[string]bool)

		go func() {
			defer close(done)
			for s := range q.Dequeue(ctx) {
				received[s.ID] = true
				if len(received) == producers*perProducer {
					return
				}
			}
		}()

		for p := 0; p < producers; p++ {
			go func(p int) {
				for i := 0; i < perProducer; i++ {
					for !q.Enqueue(ctx, snap(fmt.Sprintf("p%d-%d", p, i))) {
						time.Sleep(time.Millisecond)
					}
				}
			}(p)
		}

		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}

		Convey("Then every snapshot is delivered exactly once", func() {
			So(len(received), ShouldEqual, producers*perProducer)
		})
	})
}
