// Package expectation builds empirical outcome baselines per matchup
// context from the roster's own pooled attack and defense records.
package expectation

import (
	"math"

	"github.com/okian/acerank/internal/domain/model"
)

// Star outcomes are clamped to the game's valid range before summarizing.
const (
	minStars = 0
	maxStars = 3
)

// sdFloor keeps tiny matchup groups from producing explosive residuals.
const sdFloor = 0.35

// Priors used when a pooled set has no records at all.
const (
	attackPriorMean  = 1.2
	defensePriorMean = 2.0
)

// AttackKey identifies an attack matchup context: the tier difference
// between attacker and defender, and how many stars were already on the
// base. Structural equality makes it safe as a map key.
type AttackKey struct {
	TierDelta   int
	StarsBefore int
}

// DefenseKey identifies a defense matchup context by tier difference only.
type DefenseKey struct {
	TierDelta int
}

// Expectation is the empirical mean/spread of star outcomes in one context.
type Expectation struct {
	Mean float64
	SD   float64
}

// AttackModel maps attack matchup contexts to expectations, with a
// roster-wide default for contexts never observed.
type AttackModel struct {
	byKey    map[AttackKey]Expectation
	fallback Expectation
}

// DefenseModel is the defensive counterpart of AttackModel.
type DefenseModel struct {
	byKey    map[DefenseKey]Expectation
	fallback Expectation
}

// BuildAttackModel groups the pooled attacks by matchup context and
// summarizes star outcomes per group. Records missing either tier only
// contribute to the roster-wide default.
func BuildAttackModel(records []model.AttackRecord) AttackModel {
	groups := make(map[AttackKey][]float64)
	pooled := make([]float64, 0, len(records))
	for _, r := range records {
		stars := clampStars(r.StarsGained)
		pooled = append(pooled, stars)
		if k, ok := attackKeyFor(r); ok {
			groups[k] = append(groups[k], stars)
		}
	}

	m := AttackModel{
		byKey:    make(map[AttackKey]Expectation, len(groups)),
		fallback: summarize(pooled, attackPriorMean),
	}
	for k, outcomes := range groups {
		m.byKey[k] = summarize(outcomes, attackPriorMean)
	}
	return m
}

// BuildDefenseModel is BuildAttackModel for defensive engagements, with
// stars conceded as the outcome.
func BuildDefenseModel(records []model.DefenseRecord) DefenseModel {
	groups := make(map[DefenseKey][]float64)
	pooled := make([]float64, 0, len(records))
	for _, r := range records {
		stars := clampStars(r.StarsConceded)
		pooled = append(pooled, stars)
		if k, ok := defenseKeyFor(r); ok {
			groups[k] = append(groups[k], stars)
		}
	}

	m := DefenseModel{
		byKey:    make(map[DefenseKey]Expectation, len(groups)),
		fallback: summarize(pooled, defensePriorMean),
	}
	for k, outcomes := range groups {
		m.byKey[k] = summarize(outcomes, defensePriorMean)
	}
	return m
}

// Expect returns the expectation for one attack record, falling back to
// the roster-wide default when the context was never observed or the
// record carries no tier information.
func (m AttackModel) Expect(r model.AttackRecord) Expectation {
	if k, ok := attackKeyFor(r); ok {
		if e, found := m.byKey[k]; found {
			return e
		}
	}
	return m.fallback
}

// Expect is the defensive counterpart of AttackModel.Expect.
func (m DefenseModel) Expect(r model.DefenseRecord) Expectation {
	if k, ok := defenseKeyFor(r); ok {
		if e, found := m.byKey[k]; found {
			return e
		}
	}
	return m.fallback
}

// Default exposes the roster-wide fallback expectation.
func (m AttackModel) Default() Expectation { return m.fallback }

// Default exposes the roster-wide fallback expectation.
func (m DefenseModel) Default() Expectation { return m.fallback }

func attackKeyFor(r model.AttackRecord) (AttackKey, bool) {
	if r.AttackerTier == 0 || r.DefenderTier == 0 {
		return AttackKey{}, false
	}
	return AttackKey{
		TierDelta:   r.AttackerTier - r.DefenderTier,
		StarsBefore: r.StarsBefore,
	}, true
}

func defenseKeyFor(r model.DefenseRecord) (DefenseKey, bool) {
	if r.AttackerTier == 0 || r.DefenderTier == 0 {
		return DefenseKey{}, false
	}
	return DefenseKey{TierDelta: r.AttackerTier - r.DefenderTier}, true
}

// summarize computes mean and floored sample standard deviation of
// outcomes, falling back to the prior mean when the group is empty.
func summarize(outcomes []float64, priorMean float64) Expectation {
	n := len(outcomes)
	if n == 0 {
		return Expectation{Mean: priorMean, SD: sdFloor}
	}

	var sum float64
	for _, v := range outcomes {
		sum += v
	}
	mean := sum / float64(n)

	sd := sdFloor
	if n > 1 {
		var ss float64
		for _, v := range outcomes {
			d := v - mean
			ss += d * d
		}
		sd = math.Max(math.Sqrt(ss/float64(n-1)), sdFloor)
	}
	return Expectation{Mean: mean, SD: sd}
}

func clampStars(s int) float64 {
	if s < minStars {
		s = minStars
	}
	if s > maxStars {
		s = maxStars
	}
	return float64(s)
}
