package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/okian/acerank/internal/app"
	"github.com/okian/acerank/internal/domain/ace"
	"github.com/okian/acerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int { return &v }

func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with small limits", t, func() {
		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(8),
			service.WithDedupeSize(100),
		)

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop(ctx)

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And stats report the configuration", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["queueSize"], ShouldEqual, 8)
			})

			Convey("And dedupe round-trips", func() {
				So(svc.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
				So(svc.SeenAndRecord(ctx, "snap-1"), ShouldBeTrue)
				svc.Unrecord(ctx, "snap-1")
				So(svc.SeenAndRecord(ctx, "snap-1"), ShouldBeFalse)
			})
		})
	})
}

func TestSnapshotFlow(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service", t, func() {
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When a roster snapshot is enqueued", func() {
			snapshot := model.Snapshot{
				ID:      "snap-1",
				ClanTag: "#CLAN",
				Players: []model.PlayerInput{
					{Tag: "#AAA", Name: "alpha", Participation: &model.ParticipationSample{
						PrimaryUsed: intp(6), PrimaryAvailable: intp(6), DaysActiveLast30: intp(26),
					}},
					{Tag: "#BBB", Name: "bravo", Participation: &model.ParticipationSample{
						PrimaryUsed: intp(1), PrimaryAvailable: intp(6), DaysActiveLast30: intp(2),
					}},
				},
			}
			So(svc.Enqueue(ctx, snapshot), ShouldBeTrue)

			Convey("Then the leaderboard eventually reflects the scores", func() {
				So(waitFor(func() bool {
					entries, err := svc.TopN(ctx, 10)
					return err == nil && len(entries) == 2
				}, 2*time.Second), ShouldBeTrue)

				entries, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(entries[0].Tag, ShouldEqual, "#AAA")
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Score, ShouldBeGreaterThan, entries[1].Score)

				Convey("And Rank serves the standing with its breakdown", func() {
					standing, err := svc.Rank(ctx, "#BBB")
					So(err, ShouldBeNil)
					So(standing.Rank, ShouldEqual, 2)
					So(standing.Breakdown.Participation.SampleSize, ShouldBeGreaterThan, 0)
				})
			})
		})
	})
}

func TestEngineOptionsPropagate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a custom default availability", t, func() {
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithEngineOptions(ace.WithDefaultAvailability(1.0)),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When a player with no signals is scored", func() {
			So(svc.Enqueue(ctx, model.Snapshot{
				ID:      "snap-opts",
				ClanTag: "#CLAN",
				Players: []model.PlayerInput{{Tag: "#AAA"}},
			}), ShouldBeTrue)

			So(waitFor(func() bool {
				entries, err := svc.TopN(ctx, 1)
				return err == nil && len(entries) == 1
			}, 2*time.Second), ShouldBeTrue)

			Convey("Then the availability multiplier reflects the override", func() {
				entries, err := svc.TopN(ctx, 1)
				So(err, ShouldBeNil)
				So(entries[0].Availability, ShouldEqual, 1.0)
				So(entries[0].Score, ShouldAlmostEqual, 50.0, 0.0001)
			})
		})
	})
}
