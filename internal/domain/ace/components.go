package ace

import (
	"math"
	"time"

	"github.com/okian/acerank/internal/domain/expectation"
	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/internal/domain/robust"
)

// Attack weighting constants.
const (
	cleanupBonus   = 1.1 // reward for finishing a partially-damaged base
	timingFloor    = 0.95
	timingCeil     = 1.05
	orderStep      = 0.005  // per-position penalty from the earliest attack
	orderBase      = 1.03   // weight of the very first attack
	marginStep     = 0.0005 // per-point bonus for attacking while behind
	maxStarsBefore = 2
)

// Capital composite blend over roster-wide z-scores.
const (
	capitalValueWeight    = 0.6
	capitalFinisherWeight = 0.2
	capitalOneHitWeight   = 0.2
)

// Donation constants.
const (
	donationRatioWeight = 0.5
	donationClampZ      = 2.5
	donationClipRank    = 0.99
)

// Participation blend and bounds.
const (
	participationPrimaryWeight   = 0.55
	participationSecondaryWeight = 0.30
	participationStreakWeight    = 0.15
	participationRatioCap        = 1.5
	defaultStreakWindow          = 8
)

// offenseRaw sums decay- and context-weighted standardized residuals of
// the player's attacks against the roster's expectation model.
func (e *Engine) offenseRaw(p model.PlayerInput, m expectation.AttackModel, now time.Time) rawComponent {
	if v, ok := p.Overrides.Offense.Precomputed(); ok {
		return rawComponent{value: sanitize(v), n: float64(len(p.Attacks))}
	}
	var sum float64
	for _, a := range p.Attacks {
		exp := m.Expect(a)
		residual := (clampStars(a.StarsGained) - exp.Mean) / exp.SD
		sum += residual * cleanupWeight(a) * timingWeight(a) * a.Recency.Decay(e.decayBase, now)
	}
	return rawComponent{value: sanitize(sum), n: float64(len(p.Attacks))}
}

// defenseRaw mirrors offenseRaw with the residual inverted (conceding
// fewer stars than expected is good) and only recency decay applied.
func (e *Engine) defenseRaw(p model.PlayerInput, m expectation.DefenseModel, now time.Time) rawComponent {
	if v, ok := p.Overrides.Defense.Precomputed(); ok {
		return rawComponent{value: sanitize(v), n: float64(len(p.Defenses))}
	}
	var sum float64
	for _, d := range p.Defenses {
		exp := m.Expect(d)
		residual := (exp.Mean - clampStars(d.StarsConceded)) / exp.SD
		sum += residual * d.Recency.Decay(e.decayBase, now)
	}
	return rawComponent{value: sanitize(sum), n: float64(len(p.Defenses))}
}

// cleanupWeight rewards finishing a base somebody already damaged.
func cleanupWeight(a model.AttackRecord) float64 {
	if a.StarsBefore > 0 {
		return cleanupBonus
	}
	return 1
}

// timingWeight combines a slight bonus for attacking early in the war
// with a slight bonus for attacking while the clan is behind. Each
// factor and their product are clamped to [0.95, 1.05].
func timingWeight(a model.AttackRecord) float64 {
	order := 1.0
	if a.Order > 0 {
		order = clamp(orderBase-orderStep*float64(a.Order-1), timingFloor, timingCeil)
	}
	margin := 1.0
	if a.ScoreMargin != nil && isFinite(*a.ScoreMargin) {
		margin = clamp(1-marginStep*(*a.ScoreMargin), timingFloor, timingCeil)
	}
	return clamp(order*margin, timingFloor, timingCeil)
}

// participationRaw blends primary/secondary war usage with the recent
// full-usage streak.
func participationRaw(p model.PlayerInput) rawComponent {
	sample := p.Participation
	n := participationSampleSize(sample)
	if v, ok := p.Overrides.Participation.Precomputed(); ok {
		return rawComponent{value: sanitize(v), n: n}
	}
	if sample == nil {
		return rawComponent{}
	}

	window := defaultStreakWindow
	if sample.StreakWindow != nil {
		window = *sample.StreakWindow
	}
	raw := participationPrimaryWeight*usageRatio(sample.PrimaryUsed, sample.PrimaryAvailable) +
		participationSecondaryWeight*usageRatio(sample.SecondaryUsed, sample.SecondaryAvailable) +
		participationStreakWeight*usageRatio(sample.FullUseStreak, &window)
	return rawComponent{value: sanitize(raw), n: n}
}

func participationSampleSize(sample *model.ParticipationSample) float64 {
	switch {
	case sample == nil:
		return 0
	case sample.StreakWindow != nil:
		return float64(*sample.StreakWindow)
	case sample.PrimaryAvailable != nil:
		return float64(*sample.PrimaryAvailable)
	default:
		return 0
	}
}

// usageRatio computes used/available clamped to [0, 1.5]. A player who
// used attacks without a known budget is fully credited; no signal at
// all scores zero.
func usageRatio(used, available *int) float64 {
	u := 0
	if used != nil {
		u = *used
	}
	if available != nil && *available > 0 {
		return clamp(float64(u)/float64(*available), 0, participationRatioCap)
	}
	if u > 0 {
		return 1
	}
	return 0
}

// capitalRaw fills the capital component for every player. The raw value
// is a blend of roster-wide robust z-scores of loot per attack, finisher
// rate, and one-hit rate, so it must run as a batch pass.
func capitalRaw(players []model.PlayerInput, raws []rawComponents) {
	valuePerAttack := make([]float64, len(players))
	finisher := make([]float64, len(players))
	oneHit := make([]float64, len(players))
	for i := range valuePerAttack {
		valuePerAttack[i] = math.NaN()
		finisher[i] = math.NaN()
		oneHit[i] = math.NaN()
	}

	for i, p := range players {
		c := p.Capital
		if c == nil {
			continue
		}
		if c.Attacks > 0 && isFinite(c.Loot) {
			valuePerAttack[i] = c.Loot / math.Max(1, float64(c.Attacks))
		}
		if c.FinisherRate != nil && isFinite(*c.FinisherRate) {
			finisher[i] = *c.FinisherRate
		}
		if c.OneHitRate != nil && isFinite(*c.OneHitRate) {
			oneHit[i] = *c.OneHitRate
		}
	}

	valueStats := robust.Describe(valuePerAttack)
	finisherStats := robust.Describe(finisher)
	oneHitStats := robust.Describe(oneHit)

	for i, p := range players {
		var n float64
		if p.Capital != nil {
			n = float64(p.Capital.Attacks)
		}
		if v, ok := p.Overrides.Capital.Precomputed(); ok {
			raws[i].capital = rawComponent{value: sanitize(v), n: n}
			continue
		}
		if p.Capital == nil {
			continue
		}
		raw := capitalValueWeight*robust.Z(valuePerAttack[i], valueStats) +
			capitalFinisherWeight*robust.Z(finisher[i], finisherStats) +
			capitalOneHitWeight*robust.Z(oneHit[i], oneHitStats)
		raws[i].capital = rawComponent{value: sanitize(raw), n: n}
	}
}

// donationRaw fills the donation component for every player: reciprocity
// surplus plus a give/take ratio clipped at the batch's 99th percentile
// to suppress near-zero-received outliers. The result is already
// roster-standardized, so the shrinkage stage passes it through.
func donationRaw(players []model.PlayerInput, raws []rawComponents) {
	balances := make([]float64, len(players))
	ratios := make([]float64, len(players))
	for i := range balances {
		balances[i] = math.NaN()
		ratios[i] = math.NaN()
	}

	for i, p := range players {
		d := p.Donations
		if d == nil {
			continue
		}
		balances[i] = float64(d.Given - d.Received)
		if d.Given > 0 {
			ratios[i] = float64(d.Given) / math.Max(1, float64(d.Received))
		} else {
			ratios[i] = 0
		}
	}

	ceiling := robust.Percentile(ratios, donationClipRank)
	for i, r := range ratios {
		if isFinite(r) && r > ceiling {
			ratios[i] = ceiling
		}
	}

	balanceStats := robust.Describe(balances)
	ratioStats := robust.Describe(ratios)

	for i, p := range players {
		var n float64
		if p.Donations != nil {
			n = float64(p.Donations.Given + p.Donations.Received)
		}
		if v, ok := p.Overrides.Donation.Precomputed(); ok {
			raws[i].donation = rawComponent{value: clamp(sanitize(v), -donationClampZ, donationClampZ), n: n}
			continue
		}
		if p.Donations == nil {
			continue
		}
		raw := robust.Z(balances[i], balanceStats) + donationRatioWeight*robust.Z(ratios[i], ratioStats)
		raws[i].donation = rawComponent{value: clamp(raw, -donationClampZ, donationClampZ), n: n}
	}
}

func clampStars(s int) float64 {
	return clamp(float64(s), 0, 3)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// sanitize maps non-finite values to zero evidence.
func sanitize(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
