// Package ace computes the composite ACE score (0-100) for every member
// of a roster from heterogeneous performance signals: war attack and
// defense outcomes, participation, capital raid contribution, and
// donations. The computation is a pure, deterministic batch: expectation
// baselines and roster statistics are built once per invocation and
// consulted read-only afterward.
package ace

import (
	"context"
	"sort"
	"time"

	"github.com/okian/acerank/internal/domain/expectation"
	"github.com/okian/acerank/internal/domain/model"
)

// Weights blends the five shrunk component scores into the core value.
// Callers overriding them should keep the sum near 1; the engine does
// not enforce convexity.
type Weights struct {
	Offense       float64 `koanf:"offense" json:"offense"`
	Defense       float64 `koanf:"defense" json:"defense"`
	Participation float64 `koanf:"participation" json:"participation"`
	Capital       float64 `koanf:"capital" json:"capital"`
	Donation      float64 `koanf:"donation" json:"donation"`
}

// Shrinkage holds the per-component shrinkage constants k. A zero k
// disables shrinkage for that component.
type Shrinkage struct {
	Offense       float64 `koanf:"offense" json:"offense"`
	Defense       float64 `koanf:"defense" json:"defense"`
	Participation float64 `koanf:"participation" json:"participation"`
	Capital       float64 `koanf:"capital" json:"capital"`
}

// Documented defaults. Overrides are merged over these.
const (
	defaultAlpha        = 1.1  // logistic squashing slope
	defaultAvailability = 0.92 // fallback availability multiplier
	defaultDecayBase    = 0.75 // per-round recency decay
)

// DefaultWeights returns the documented component blend.
func DefaultWeights() Weights {
	return Weights{
		Offense:       0.40,
		Defense:       0.15,
		Participation: 0.20,
		Capital:       0.15,
		Donation:      0.10,
	}
}

// DefaultShrinkage returns the documented shrinkage constants.
// Participation is unshrunk by default; donation is never shrunk.
func DefaultShrinkage() Shrinkage {
	return Shrinkage{Offense: 6, Defense: 4, Participation: 0, Capital: 8}
}

// Engine scores roster batches. The zero value is not usable; construct
// with New.
type Engine struct {
	weights      Weights
	shrinkage    Shrinkage
	alpha        float64
	availability float64
	decayBase    float64
	now          func() time.Time
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights overrides the component blend.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithShrinkage overrides the shrinkage constants.
func WithShrinkage(s Shrinkage) Option {
	return func(e *Engine) { e.shrinkage = s }
}

// WithLogisticAlpha sets the squashing slope.
func WithLogisticAlpha(alpha float64) Option {
	return func(e *Engine) {
		if alpha > 0 {
			e.alpha = alpha
		}
	}
}

// WithDefaultAvailability sets the availability multiplier used when a
// player has neither activity days nor a war usage ratio.
func WithDefaultAvailability(v float64) Option {
	return func(e *Engine) {
		if v > 0 {
			e.availability = v
		}
	}
}

// WithDecayBase sets the per-round recency decay base in (0, 1].
func WithDecayBase(base float64) Option {
	return func(e *Engine) {
		if base > 0 && base <= 1 {
			e.decayBase = base
		}
	}
}

// WithClock fixes the wall clock used to resolve timestamp recency.
// Intended for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Engine with the documented defaults.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights:      DefaultWeights(),
		shrinkage:    DefaultShrinkage(),
		alpha:        defaultAlpha,
		availability: defaultAvailability,
		decayBase:    defaultDecayBase,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes ACE scores for the whole batch and returns them sorted
// by final score descending (tag ascending on ties). Missing or
// non-finite signals contribute zero evidence rather than failing; an
// empty batch yields an empty result.
func (e *Engine) Score(_ context.Context, players []model.PlayerInput) []model.ScoreResult {
	if len(players) == 0 {
		return []model.ScoreResult{}
	}

	now := e.now()

	// Roster-wide aggregation pass one: expectation baselines from the
	// pooled attack/defense records.
	var attacks []model.AttackRecord
	var defenses []model.DefenseRecord
	for _, p := range players {
		attacks = append(attacks, p.Attacks...)
		defenses = append(defenses, p.Defenses...)
	}
	attackModel := expectation.BuildAttackModel(attacks)
	defenseModel := expectation.BuildDefenseModel(defenses)

	// Per-player raw values.
	raws := make([]rawComponents, len(players))
	for i, p := range players {
		raws[i] = rawComponents{
			offense:       e.offenseRaw(p, attackModel, now),
			defense:       e.defenseRaw(p, defenseModel, now),
			participation: participationRaw(p),
		}
	}
	// Capital and donation need roster-wide statistics of their own,
	// so they run as batch passes.
	capitalRaw(players, raws)
	donationRaw(players, raws)

	// Roster-wide aggregation pass two: standardize and shrink.
	breakdowns := e.shrink(raws)

	results := make([]model.ScoreResult, len(players))
	for i, p := range players {
		avail := e.availabilityMultiplier(p)
		results[i] = model.ScoreResult{
			Tag:          p.Tag,
			Name:         p.Name,
			Final:        e.finalScore(breakdowns[i], avail),
			Availability: avail,
			Breakdown:    breakdowns[i],
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Final != results[j].Final {
			return results[i].Final > results[j].Final
		}
		return results[i].Tag < results[j].Tag
	})
	return results
}

// rawComponent is an unstandardized component value plus the amount of
// evidence behind it.
type rawComponent struct {
	value float64
	n     float64
}

// rawComponents collects all five raw values for one player.
type rawComponents struct {
	offense       rawComponent
	defense       rawComponent
	participation rawComponent
	capital       rawComponent
	donation      rawComponent
}
