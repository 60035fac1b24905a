package ace

import (
	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/internal/domain/robust"
)

// shrink standardizes every raw component against the roster and pulls
// low-evidence z-scores toward zero by n/(n+k). The donation component
// is self-standardized in donationRaw and passes through untouched.
func (e *Engine) shrink(raws []rawComponents) []model.Breakdown {
	offense := shrinkColumn(raws, e.shrinkage.Offense, func(r rawComponents) rawComponent { return r.offense })
	defense := shrinkColumn(raws, e.shrinkage.Defense, func(r rawComponents) rawComponent { return r.defense })
	participation := shrinkColumn(raws, e.shrinkage.Participation, func(r rawComponents) rawComponent { return r.participation })
	capital := shrinkColumn(raws, e.shrinkage.Capital, func(r rawComponents) rawComponent { return r.capital })

	breakdowns := make([]model.Breakdown, len(raws))
	for i := range raws {
		d := raws[i].donation
		breakdowns[i] = model.Breakdown{
			Offense:       offense[i],
			Defense:       defense[i],
			Participation: participation[i],
			Capital:       capital[i],
			Donation: model.ComponentScore{
				Raw:        d.value,
				Z:          d.value,
				Shrunk:     d.value,
				SampleSize: d.n,
			},
		}
	}
	return breakdowns
}

// shrinkColumn runs the standardize-then-shrink transform for one
// component across the whole roster.
func shrinkColumn(raws []rawComponents, k float64, pick func(rawComponents) rawComponent) []model.ComponentScore {
	values := make([]float64, len(raws))
	for i, r := range raws {
		values[i] = pick(r).value
	}
	stats := robust.Describe(values)

	scores := make([]model.ComponentScore, len(raws))
	for i, r := range raws {
		c := pick(r)
		z := robust.Z(c.value, stats)
		scores[i] = model.ComponentScore{
			Raw:        c.value,
			Z:          z,
			Shrunk:     applyShrinkage(z, c.n, k),
			SampleSize: c.n,
		}
	}
	return scores
}

// applyShrinkage scales z by n/(n+k). k == 0 disables shrinkage; n == 0
// yields a fully neutral score.
func applyShrinkage(z, n, k float64) float64 {
	if k <= 0 {
		return z
	}
	if n <= 0 {
		return 0
	}
	return z * n / (n + k)
}
