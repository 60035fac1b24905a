package ace

import (
	"math"

	"github.com/okian/acerank/internal/domain/model"
)

// Core and availability bounds.
const (
	coreFloor         = -6.0
	coreCeil          = 6.0
	availabilityFloor = 0.70
	availabilityCeil  = 1.05
	availabilityBase  = 0.85
	availabilitySpan  = 0.15
	fullActivityDays  = 26 // days active in the last 30 that count as fully present
	maxScore          = 100.0
)

// finalScore blends the shrunk components, squashes the core through a
// logistic, and scales by the availability multiplier.
func (e *Engine) finalScore(b model.Breakdown, availability float64) float64 {
	core := e.weights.Offense*b.Offense.Shrunk +
		e.weights.Defense*b.Defense.Shrunk +
		e.weights.Participation*b.Participation.Shrunk +
		e.weights.Capital*b.Capital.Shrunk +
		e.weights.Donation*b.Donation.Shrunk
	core = clamp(sanitize(core), coreFloor, coreCeil)

	logistic := 1 / (1 + math.Exp(-e.alpha*core))
	return clamp(logistic*maxScore*availability, 0, maxScore)
}

// availabilityMultiplier reflects how much of the scoring window the
// player was present for. Days-active takes precedence over the war
// usage ratio when both are known; this mirrors the upstream behavior
// even though the two signals can disagree.
func (e *Engine) availabilityMultiplier(p model.PlayerInput) float64 {
	v := e.availability
	if sample := p.Participation; sample != nil {
		switch {
		case sample.DaysActiveLast30 != nil:
			days := math.Max(0, float64(*sample.DaysActiveLast30))
			v = availabilityBase + availabilitySpan*math.Min(1, days/fullActivityDays)
		case sample.PrimaryAvailable != nil || sample.PrimaryUsed != nil:
			ratio := usageRatio(sample.PrimaryUsed, sample.PrimaryAvailable)
			v = availabilityBase + availabilitySpan*clamp(ratio, 0, 1)
		}
	}
	return clamp(v, availabilityFloor, availabilityCeil)
}
