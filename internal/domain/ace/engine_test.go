package ace_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/acerank/internal/domain/ace"
	"github.com/okian/acerank/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

// filler returns n players each carrying a single attack in the given
// matchup context, used to anchor the expectation model.
func filler(n, attTier, defTier, starsBefore, starsGained int) []model.PlayerInput {
	players := make([]model.PlayerInput, n)
	for i := range players {
		players[i] = model.PlayerInput{
			Tag:  fmt.Sprintf("#FILL%d", i),
			Name: fmt.Sprintf("filler-%d", i),
			Attacks: []model.AttackRecord{{
				AttackerTier: attTier,
				DefenderTier: defTier,
				StarsBefore:  starsBefore,
				StarsGained:  starsGained,
			}},
		}
	}
	return players
}

func findResult(results []model.ScoreResult, tag string) model.ScoreResult {
	for _, r := range results {
		if r.Tag == tag {
			return r
		}
	}
	return model.ScoreResult{}
}

func TestEngineScoreBasics(t *testing.T) {
	Convey("Given a default engine", t, func() {
		engine := ace.New()
		ctx := context.Background()

		Convey("When scoring an empty batch", func() {
			results := engine.Score(ctx, nil)

			Convey("Then the output is empty, not nil panic", func() {
				So(results, ShouldBeEmpty)
			})
		})

		Convey("When scoring a single player with zero evidence everywhere", func() {
			results := engine.Score(ctx, []model.PlayerInput{{Tag: "#GHOST", Name: "ghost"}})

			Convey("Then the score is the logistic midpoint scaled by default availability", func() {
				So(results, ShouldHaveLength, 1)
				So(results[0].Final, ShouldAlmostEqual, 50*0.92, 1e-9)
				So(results[0].Availability, ShouldAlmostEqual, 0.92, 1e-12)
			})

			Convey("And every component is fully neutral", func() {
				b := results[0].Breakdown
				for _, c := range []model.ComponentScore{b.Offense, b.Defense, b.Participation, b.Capital, b.Donation} {
					So(c.Shrunk, ShouldEqual, 0)
					So(c.SampleSize, ShouldEqual, 0)
				}
			})
		})

		Convey("When scoring a busy mixed roster", func() {
			players := filler(10, 12, 12, 0, 2)
			players = append(players,
				model.PlayerInput{
					Tag:  "#ALL",
					Name: "all-rounder",
					Tier: 12,
					Attacks: []model.AttackRecord{
						{AttackerTier: 12, DefenderTier: 12, StarsGained: 3, Order: 1},
						{AttackerTier: 12, DefenderTier: 13, StarsBefore: 1, StarsGained: 2, Recency: model.RoundsAgo(1)},
					},
					Defenses: []model.DefenseRecord{
						{AttackerTier: 13, DefenderTier: 12, StarsConceded: 1},
					},
					Participation: &model.ParticipationSample{
						PrimaryUsed: intp(4), PrimaryAvailable: intp(4),
						DaysActiveLast30: intp(28),
					},
					Capital:   &model.CapitalSample{Loot: 18000, Attacks: 12, FinisherRate: floatp(0.4)},
					Donations: &model.DonationSample{Given: 900, Received: 300},
				},
				model.PlayerInput{Tag: "#IDLE", Name: "idler"},
			)
			results := engine.Score(ctx, players)

			Convey("Then every final score and availability stays in bounds", func() {
				So(results, ShouldHaveLength, len(players))
				for _, r := range results {
					So(r.Final, ShouldBeBetweenOrEqual, 0, 100)
					So(r.Availability, ShouldBeBetweenOrEqual, 0.70, 1.05)
				}
			})

			Convey("And the output is sorted by final score descending", func() {
				for i := 1; i < len(results); i++ {
					So(results[i-1].Final, ShouldBeGreaterThanOrEqualTo, results[i].Final)
				}
			})

			Convey("And every input tag appears exactly once", func() {
				seen := make(map[string]int)
				for _, r := range results {
					seen[r.Tag]++
				}
				for _, p := range players {
					So(seen[p.Tag], ShouldEqual, 1)
				}
			})

			Convey("And scoring the same batch twice is deterministic", func() {
				again := engine.Score(ctx, players)
				So(again, ShouldResemble, results)
			})
		})
	})
}

func TestEngineOffenseScenario(t *testing.T) {
	Convey("Given a roster where expectations are anchored by fillers", t, func() {
		engine := ace.New()
		players := filler(20, 10, 10, 0, 2)
		players = append(players,
			model.PlayerInput{Tag: "#A", Name: "meets-expectation", Attacks: repeatAttack(5, 10, 10, 0, 2)},
			model.PlayerInput{Tag: "#B", Name: "beats-expectation", Attacks: repeatAttack(5, 10, 10, 0, 3)},
		)

		results := engine.Score(context.Background(), players)
		a := findResult(results, "#A")
		b := findResult(results, "#B")

		Convey("Then the over-performer's raw offense exceeds the conformist's", func() {
			So(b.Breakdown.Offense.Raw, ShouldBeGreaterThan, a.Breakdown.Offense.Raw)
		})

		Convey("And the shrunk offense and final score follow", func() {
			So(b.Breakdown.Offense.Shrunk, ShouldBeGreaterThan, a.Breakdown.Offense.Shrunk)
			So(b.Final, ShouldBeGreaterThan, a.Final)
		})
	})
}

func repeatAttack(n, attTier, defTier, starsBefore, starsGained int) []model.AttackRecord {
	out := make([]model.AttackRecord, n)
	for i := range out {
		out[i] = model.AttackRecord{
			AttackerTier: attTier,
			DefenderTier: defTier,
			StarsBefore:  starsBefore,
			StarsGained:  starsGained,
		}
	}
	return out
}

func TestEngineShrinkageMonotonicity(t *testing.T) {
	Convey("Given players with identical raw offense but different evidence", t, func() {
		// Offense raws are injected via the precomputed escape hatch; the
		// dummy attack records only carry the sample size.
		engine := ace.New()
		players := []model.PlayerInput{
			{Tag: "#NEG", Overrides: model.Overrides{Offense: model.PrecomputedRaw(-1)}},
			{Tag: "#ZERO", Overrides: model.Overrides{Offense: model.PrecomputedRaw(0)}},
			{
				Tag:       "#THIN",
				Attacks:   repeatAttack(2, 0, 0, 0, 0),
				Overrides: model.Overrides{Offense: model.PrecomputedRaw(1)},
			},
			{
				Tag:       "#THICK",
				Attacks:   repeatAttack(10, 0, 0, 0, 0),
				Overrides: model.Overrides{Offense: model.PrecomputedRaw(1)},
			},
		}

		results := engine.Score(context.Background(), players)
		thin := findResult(results, "#THIN").Breakdown.Offense
		thick := findResult(results, "#THICK").Breakdown.Offense

		Convey("Then both players share the same z-score", func() {
			So(thin.Z, ShouldAlmostEqual, thick.Z, 1e-12)
			So(thin.Z, ShouldBeGreaterThan, 0)
		})

		Convey("And more evidence moves the shrunk value toward z", func() {
			So(thick.Shrunk, ShouldBeGreaterThan, thin.Shrunk)
			So(thick.Shrunk, ShouldBeLessThan, thick.Z)
			// n/(n+k) with k=6: 2/8 and 10/16.
			So(thin.Shrunk, ShouldAlmostEqual, thin.Z*2.0/8.0, 1e-12)
			So(thick.Shrunk, ShouldAlmostEqual, thick.Z*10.0/16.0, 1e-12)
		})
	})

	Convey("Given a zero shrinkage constant", t, func() {
		engine := ace.New(ace.WithShrinkage(ace.Shrinkage{}))
		players := []model.PlayerInput{
			{Tag: "#NEG", Overrides: model.Overrides{Offense: model.PrecomputedRaw(-1)}},
			{Tag: "#ZERO", Overrides: model.Overrides{Offense: model.PrecomputedRaw(0)}},
			{Tag: "#POS", Attacks: repeatAttack(1, 0, 0, 0, 0), Overrides: model.Overrides{Offense: model.PrecomputedRaw(1)}},
		}

		results := engine.Score(context.Background(), players)
		pos := findResult(results, "#POS").Breakdown.Offense

		Convey("Then the z-score passes through unshrunk", func() {
			So(pos.Shrunk, ShouldAlmostEqual, pos.Z, 1e-12)
			So(pos.Z, ShouldBeGreaterThan, 0)
		})
	})
}

func TestEngineAvailability(t *testing.T) {
	ctx := context.Background()

	Convey("Given a player with days-active data", t, func() {
		engine := ace.New()
		results := engine.Score(ctx, []model.PlayerInput{{
			Tag: "#P",
			Participation: &model.ParticipationSample{
				DaysActiveLast30: intp(13),
				// Conflicting full war usage: days-active still wins.
				PrimaryUsed: intp(4), PrimaryAvailable: intp(4),
			},
		}})

		Convey("Then availability comes from days active", func() {
			So(results[0].Availability, ShouldAlmostEqual, 0.85+0.15*13.0/26.0, 1e-12)
		})
	})

	Convey("Given a player with only war usage data", t, func() {
		engine := ace.New()
		results := engine.Score(ctx, []model.PlayerInput{{
			Tag: "#P",
			Participation: &model.ParticipationSample{
				PrimaryUsed: intp(1), PrimaryAvailable: intp(2),
			},
		}})

		Convey("Then the usage-ratio fallback applies", func() {
			So(results[0].Availability, ShouldAlmostEqual, 0.85+0.15*0.5, 1e-12)
		})
	})

	Convey("Given full activity", t, func() {
		engine := ace.New()
		results := engine.Score(ctx, []model.PlayerInput{{
			Tag:           "#P",
			Participation: &model.ParticipationSample{DaysActiveLast30: intp(30)},
		}})

		Convey("Then the multiplier tops out at 1.0", func() {
			So(results[0].Availability, ShouldAlmostEqual, 1.0, 1e-12)
		})
	})

	Convey("Given a configured default availability", t, func() {
		engine := ace.New(ace.WithDefaultAvailability(0.8))
		results := engine.Score(ctx, []model.PlayerInput{{Tag: "#P"}})

		Convey("Then it applies to players with no presence signal", func() {
			So(results[0].Availability, ShouldAlmostEqual, 0.8, 1e-12)
			So(results[0].Final, ShouldAlmostEqual, 40, 1e-9)
		})
	})
}

func TestEngineConfigOverrides(t *testing.T) {
	ctx := context.Background()

	Convey("Given an all-offense weight override", t, func() {
		players := []model.PlayerInput{
			{Tag: "#NEG", Overrides: model.Overrides{Offense: model.PrecomputedRaw(-1)}},
			{Tag: "#ZERO", Overrides: model.Overrides{Offense: model.PrecomputedRaw(0)}},
			{Tag: "#POS", Attacks: repeatAttack(30, 0, 0, 0, 0), Overrides: model.Overrides{Offense: model.PrecomputedRaw(1)}},
		}
		base := ace.New().Score(ctx, players)
		tuned := ace.New(ace.WithWeights(ace.Weights{Offense: 1})).Score(ctx, players)

		Convey("Then the positive outlier gains from the heavier weight", func() {
			So(findResult(tuned, "#POS").Final, ShouldBeGreaterThan, findResult(base, "#POS").Final)
		})
	})

	Convey("Given a steeper logistic slope", t, func() {
		players := []model.PlayerInput{
			{Tag: "#NEG", Overrides: model.Overrides{Offense: model.PrecomputedRaw(-1)}},
			{Tag: "#ZERO", Overrides: model.Overrides{Offense: model.PrecomputedRaw(0)}},
			{Tag: "#POS", Attacks: repeatAttack(30, 0, 0, 0, 0), Overrides: model.Overrides{Offense: model.PrecomputedRaw(1)}},
		}
		shallow := ace.New(ace.WithLogisticAlpha(0.5)).Score(ctx, players)
		steep := ace.New(ace.WithLogisticAlpha(2.0)).Score(ctx, players)

		Convey("Then positive cores squash closer to the top", func() {
			So(findResult(steep, "#POS").Final, ShouldBeGreaterThan, findResult(shallow, "#POS").Final)
		})
	})
}

func TestEngineRecencyDecay(t *testing.T) {
	Convey("Given identical attacks that differ only in recency", t, func() {
		now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		engine := ace.New(ace.WithClock(func() time.Time { return now }))

		players := filler(20, 10, 10, 0, 1)
		players = append(players,
			model.PlayerInput{Tag: "#FRESH", Attacks: []model.AttackRecord{
				{AttackerTier: 10, DefenderTier: 10, StarsGained: 3},
			}},
			model.PlayerInput{Tag: "#ROUNDS", Attacks: []model.AttackRecord{
				{AttackerTier: 10, DefenderTier: 10, StarsGained: 3, Recency: model.RoundsAgo(2)},
			}},
			model.PlayerInput{Tag: "#STALE", Attacks: []model.AttackRecord{
				{AttackerTier: 10, DefenderTier: 10, StarsGained: 3, Recency: model.At(now.Add(-4 * 24 * time.Hour))},
			}},
		)

		results := engine.Score(context.Background(), players)
		fresh := findResult(results, "#FRESH").Breakdown.Offense.Raw
		rounds := findResult(results, "#ROUNDS").Breakdown.Offense.Raw
		stale := findResult(results, "#STALE").Breakdown.Offense.Raw

		Convey("Then two rounds ago decays by 0.75 squared", func() {
			So(fresh, ShouldBeGreaterThan, 0)
			So(rounds, ShouldAlmostEqual, fresh*0.5625, 1e-9)
		})

		Convey("And four days ago is equivalent to two rounds", func() {
			So(stale, ShouldAlmostEqual, rounds, 1e-9)
		})
	})
}
