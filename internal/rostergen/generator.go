package rostergen

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/acerank/internal/domain/model"
)

// Player archetypes. The mix is tuned so a generated roster produces a
// spread of final scores instead of a tight cluster.
const (
	caseAnchor   = 0 // strong attacker, reliable participation
	caseCleanup  = 1 // second-wave attacker on damaged bases
	caseCapital  = 2 // capital raid specialist
	caseDonor    = 3 // high donation balance, average elsewhere
	caseBench    = 4 // rarely uses attacks, low presence
	caseAverage  = 5 // everything near the roster median
	archetypeCnt = 6
)

const tagAlphabet = "0289PYLQGRJCUV"

// Generate builds a synthetic roster snapshot. The same seed yields the
// same snapshot, except for the uuid snapshot ID.
func Generate(cfg *Config) model.Snapshot {
	cfg.normalize()

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	players := make([]model.PlayerInput, 0, cfg.Players)
	for i := 0; i < cfg.Players; i++ {
		players = append(players, generatePlayer(rng, i))
	}

	return model.Snapshot{
		ID:         uuid.New().String(),
		ClanTag:    "#" + randomTag(rng),
		ReceivedAt: time.Now().UTC(),
		Players:    players,
	}
}

func generatePlayer(rng *rand.Rand, index int) model.PlayerInput {
	tier := 12 + rng.IntN(5) // town halls 12-16
	p := model.PlayerInput{
		Tag:  "#" + randomTag(rng),
		Name: fmt.Sprintf("member-%02d", index),
		Tier: tier,
	}

	switch rng.IntN(archetypeCnt) {
	case caseAnchor:
		p.Attacks = attacks(rng, tier, 6, 2.4, 1)
		p.Defenses = defenses(rng, tier, 4, 1.4)
		p.Participation = participation(6, 6, 24)
		p.Capital = capital(rng, 14000, 5)
		p.Donations = donations(rng, 600, 200)
	case caseCleanup:
		p.Attacks = cleanupAttacks(rng, tier, 5)
		p.Defenses = defenses(rng, tier, 3, 1.8)
		p.Participation = participation(5, 6, 20)
		p.Capital = capital(rng, 9000, 4)
		p.Donations = donations(rng, 250, 250)
	case caseCapital:
		p.Attacks = attacks(rng, tier, 3, 1.8, 1)
		p.Participation = participation(3, 6, 18)
		p.Capital = capital(rng, 22000, 6)
		p.Donations = donations(rng, 150, 300)
	case caseDonor:
		p.Attacks = attacks(rng, tier, 4, 2.0, 2)
		p.Defenses = defenses(rng, tier, 2, 2.0)
		p.Participation = participation(4, 6, 26)
		p.Capital = capital(rng, 7000, 3)
		p.Donations = donations(rng, 1200, 100)
	case caseBench:
		p.Attacks = attacks(rng, tier, 1, 1.2, 5)
		p.Participation = participation(1, 6, 4)
		p.Donations = donations(rng, 0, 400)
	default:
		p.Attacks = attacks(rng, tier, 4, 2.0, 2)
		p.Defenses = defenses(rng, tier, 3, 1.9)
		p.Participation = participation(4, 6, 15)
		p.Capital = capital(rng, 10000, 4)
		p.Donations = donations(rng, 300, 280)
	}

	return p
}

// attacks synthesizes fresh-hit attack records around meanStars.
func attacks(rng *rand.Rand, tier, count int, meanStars float64, maxRoundsAgo int) []model.AttackRecord {
	out := make([]model.AttackRecord, 0, count)
	for i := 0; i < count; i++ {
		stars := int(meanStars + rng.Float64()*1.5 - 0.75)
		if stars < 0 {
			stars = 0
		}
		if stars > 3 {
			stars = 3
		}
		out = append(out, model.AttackRecord{
			AttackerTier: tier,
			DefenderTier: tier + rng.IntN(3) - 1,
			StarsGained:  stars,
			Order:        1 + rng.IntN(8),
			Recency:      model.RoundsAgo(rng.IntN(maxRoundsAgo + 1)),
		})
	}
	return out
}

// cleanupAttacks synthesizes second-wave hits on already damaged bases.
func cleanupAttacks(rng *rand.Rand, tier, count int) []model.AttackRecord {
	out := attacks(rng, tier, count, 2.6, 2)
	for i := range out {
		out[i].StarsBefore = 1 + rng.IntN(2)
		out[i].Order = 10 + rng.IntN(10)
	}
	return out
}

func defenses(rng *rand.Rand, tier, count int, meanStars float64) []model.DefenseRecord {
	out := make([]model.DefenseRecord, 0, count)
	for i := 0; i < count; i++ {
		stars := int(meanStars + rng.Float64()*1.5 - 0.75)
		if stars < 0 {
			stars = 0
		}
		if stars > 3 {
			stars = 3
		}
		out = append(out, model.DefenseRecord{
			AttackerTier:  tier + rng.IntN(3) - 1,
			DefenderTier:  tier,
			StarsConceded: stars,
			Recency:       model.RoundsAgo(rng.IntN(3)),
		})
	}
	return out
}

func participation(used, available, daysActive int) *model.ParticipationSample {
	return &model.ParticipationSample{
		PrimaryUsed:      &used,
		PrimaryAvailable: &available,
		DaysActiveLast30: &daysActive,
	}
}

func capital(rng *rand.Rand, meanLoot float64, attacks int) *model.CapitalSample {
	finisher := 0.2 + rng.Float64()*0.5
	return &model.CapitalSample{
		Loot:         meanLoot * (0.8 + rng.Float64()*0.4),
		Attacks:      attacks,
		FinisherRate: &finisher,
	}
}

func donations(rng *rand.Rand, given, received int) *model.DonationSample {
	jitter := func(v int) int {
		if v == 0 {
			return 0
		}
		return v - v/5 + rng.IntN(v*2/5+1)
	}
	return &model.DonationSample{
		Given:    jitter(given),
		Received: jitter(received),
	}
}

func randomTag(rng *rand.Rand) string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = tagAlphabet[rng.IntN(len(tagAlphabet))]
	}
	return string(b)
}
