package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/acerank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a new snapshot ID", func() {
			seen := d.SeenAndRecord(ctx, "snap-1")

			Convey("Then it reports newly recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same ID is a duplicate afterwards", func() {
				So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a seen ID", func() {
			d.SeenAndRecord(ctx, "snap-1")
			d.Unrecord(ctx, "snap-1")

			Convey("Then it can be recorded again", func() {
				So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown ID", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing breaks", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a deduper bounded to three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When a fourth ID arrives", func() {
			for i := 1; i <= 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("snap-%d", i))
			}

			Convey("Then the size stays at the bound", func() {
				So(d.Size(), ShouldEqual, 3)
			})

			Convey("And the oldest ID was evicted", func() {
				So(d.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "snap-4"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many IDs arrive", func() {
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("snap-%d", i))
			}

			Convey("Then none are evicted", func() {
				So(d.Size(), ShouldEqual, 1000)
			})
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	Convey("Given concurrent writers racing on the same IDs", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10000))

		const goroutines = 8
		const perGoroutine = 200
		firstClaims := make([]int64, goroutines)
		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				for i := 0; i < perGoroutine; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("snap-%d", i)) {
						firstClaims[g]++
					}
				}
			}(g)
		}
		wg.Wait()

		Convey("Then each ID is claimed exactly once", func() {
			var total int64
			for _, c := range firstClaims {
				total += c
			}
			So(total, ShouldEqual, perGoroutine)
			So(d.Size(), ShouldEqual, perGoroutine)
		})
	})
}
