// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Hours per decay half-step when recency is expressed as a timestamp.
const hoursPerDay = 24

// Recency describes how old an observation is. It is a tagged value with
// three variants: a discrete rounds-ago count, an absolute timestamp, or
// unknown. The zero value is Unknown (no decay).
type Recency struct {
	kind   recencyKind
	rounds int
	at     time.Time
}

type recencyKind uint8

const (
	recencyUnknown recencyKind = iota
	recencyRounds
	recencyTimestamp
)

// RoundsAgo returns a Recency measured in whole war rounds.
// Negative counts are treated as zero rounds ago.
func RoundsAgo(n int) Recency {
	if n < 0 {
		n = 0
	}
	return Recency{kind: recencyRounds, rounds: n}
}

// At returns a Recency anchored to an absolute timestamp.
func At(t time.Time) Recency {
	return Recency{kind: recencyTimestamp, at: t}
}

// IsUnknown reports whether no recency information is available.
func (r Recency) IsUnknown() bool { return r.kind == recencyUnknown }

// Decay resolves the recency into a single multiplicative weight in (0, 1].
// Rounds decay as base^rounds; timestamps decay as base^(ageDays/2) so one
// round is roughly equivalent to two days. Unknown recency means no decay.
func (r Recency) Decay(base float64, now time.Time) float64 {
	if base <= 0 || base > 1 {
		return 1
	}
	switch r.kind {
	case recencyRounds:
		return math.Pow(base, float64(r.rounds))
	case recencyTimestamp:
		ageDays := now.Sub(r.at).Hours() / hoursPerDay
		if ageDays <= 0 {
			return 1
		}
		return math.Pow(base, ageDays/2)
	default:
		return 1
	}
}

// recencyJSON mirrors the wire shape of a Recency: exactly one of the
// fields is set; an absent/null object means unknown.
type recencyJSON struct {
	RoundsAgo *int       `json:"rounds_ago,omitempty"`
	TS        *time.Time `json:"ts,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Recency) MarshalJSON() ([]byte, error) {
	var v recencyJSON
	switch r.kind {
	case recencyRounds:
		n := r.rounds
		v.RoundsAgo = &n
	case recencyTimestamp:
		t := r.at
		v.TS = &t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal recency: %w", err)
	}
	return b, nil
}

// UnmarshalJSON implements json.Unmarshaler. Rounds-ago wins when both
// representations are present.
func (r *Recency) UnmarshalJSON(data []byte) error {
	var v recencyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal recency: %w", err)
	}
	switch {
	case v.RoundsAgo != nil:
		*r = RoundsAgo(*v.RoundsAgo)
	case v.TS != nil:
		*r = At(*v.TS)
	default:
		*r = Recency{}
	}
	return nil
}

// RawSource selects how a component's raw value is obtained: computed
// from the player's samples (the default, zero value) or supplied
// pre-computed by the caller when samples are unavailable.
type RawSource struct {
	kind  rawKind
	value float64
}

type rawKind uint8

const (
	rawFromSamples rawKind = iota
	rawPrecomputed
)

// FromSamples returns the default RawSource: derive the raw value from samples.
func FromSamples() RawSource { return RawSource{} }

// PrecomputedRaw returns a RawSource carrying an externally computed raw value.
func PrecomputedRaw(v float64) RawSource {
	return RawSource{kind: rawPrecomputed, value: v}
}

// Precomputed reports whether a pre-computed raw value was supplied,
// and returns it if so.
func (r RawSource) Precomputed() (float64, bool) {
	return r.value, r.kind == rawPrecomputed
}

// AttackRecord is one war attack performed by a player. Strength tiers
// (town-hall levels) are 0 when unknown.
type AttackRecord struct {
	AttackerTier int      `json:"attacker_tier,omitempty"`
	DefenderTier int      `json:"defender_tier,omitempty"`
	StarsBefore  int      `json:"stars_before"`          // stars already on the base before this attack (0-2)
	StarsGained  int      `json:"stars_gained"`          // stars added by this attack (0-3)
	Recency      Recency  `json:"recency,omitzero"`      // how long ago the attack happened
	Order        int      `json:"order,omitempty"`       // 1-based attack order within the war; 0 when unknown
	ScoreMargin  *float64 `json:"score_margin,omitempty"` // own minus opposing war score when the attack was made
}

// DefenseRecord is one defensive engagement: the worst result an
// opponent achieved against this player's base.
type DefenseRecord struct {
	AttackerTier  int     `json:"attacker_tier,omitempty"`
	DefenderTier  int     `json:"defender_tier,omitempty"`
	StarsConceded int     `json:"stars_conceded"` // worst stars conceded (0-3)
	Recency       Recency `json:"recency,omitzero"`
}

// ParticipationSample aggregates war participation counters. All fields
// are optional; nil means the signal was not observed.
type ParticipationSample struct {
	PrimaryUsed        *int `json:"primary_used,omitempty"`
	PrimaryAvailable   *int `json:"primary_available,omitempty"`
	SecondaryUsed      *int `json:"secondary_used,omitempty"`
	SecondaryAvailable *int `json:"secondary_available,omitempty"`
	FullUseStreak      *int `json:"full_use_streak,omitempty"`  // consecutive recent wars with all attacks used
	StreakWindow       *int `json:"streak_window,omitempty"`    // wars the streak was measured over
	DaysActiveLast30   *int `json:"days_active_last30,omitempty"`
}

// CapitalSample aggregates capital raid contribution counters.
type CapitalSample struct {
	Loot         float64  `json:"loot"`
	Attacks      int      `json:"attacks"`
	FinisherRate *float64 `json:"finisher_rate,omitempty"` // share of attacks that finished a district (0-1)
	OneHitRate   *float64 `json:"one_hit_rate,omitempty"`  // share of districts cleared in a single hit (0-1)
}

// DonationSample aggregates troop donation counters for the season.
type DonationSample struct {
	Given    int `json:"given"`
	Received int `json:"received"`
}

// Overrides carries optional pre-computed raw component values. The zero
// value of each RawSource means "derive from samples".
type Overrides struct {
	Offense       RawSource `json:"-"`
	Defense       RawSource `json:"-"`
	Participation RawSource `json:"-"`
	Capital       RawSource `json:"-"`
	Donation      RawSource `json:"-"`
}

// PlayerInput is everything the scoring engine knows about one roster
// member for a single batch.
type PlayerInput struct {
	Tag           string               `json:"tag"`
	Name          string               `json:"name"`
	Tier          int                  `json:"tier,omitempty"` // current town-hall level; 0 when unknown
	Attacks       []AttackRecord       `json:"attacks,omitempty"`
	Defenses      []DefenseRecord      `json:"defenses,omitempty"`
	Participation *ParticipationSample `json:"participation,omitempty"`
	Capital       *CapitalSample       `json:"capital,omitempty"`
	Donations     *DonationSample      `json:"donations,omitempty"`
	Overrides     Overrides            `json:"-"`
}

// ComponentScore is one component of a player's breakdown.
type ComponentScore struct {
	Raw        float64 `json:"raw"`         // unstandardized per-player value
	Z          float64 `json:"z"`           // roster-relative robust z-score
	Shrunk     float64 `json:"shrunk"`      // z pulled toward zero by sample size
	SampleSize float64 `json:"sample_size"` // evidence count behind the raw value
}

// Breakdown holds the five component scores behind a final ACE value.
type Breakdown struct {
	Offense       ComponentScore `json:"offense"`
	Defense       ComponentScore `json:"defense"`
	Participation ComponentScore `json:"participation"`
	Capital       ComponentScore `json:"capital"`
	Donation      ComponentScore `json:"donation"`
}

// ScoreResult is the engine output for one player.
type ScoreResult struct {
	Tag          string    `json:"tag"`
	Name         string    `json:"name"`
	Final        float64   `json:"final"`        // bounded 0-100 ACE score
	Availability float64   `json:"availability"` // multiplier in [0.70, 1.05]
	Breakdown    Breakdown `json:"breakdown"`
}

// Snapshot is a full roster snapshot submitted for scoring. ID is the
// idempotency key; re-submitting the same ID is a no-op.
type Snapshot struct {
	ID         string        `json:"snapshot_id"`
	ClanTag    string        `json:"clan_tag"`
	ReceivedAt time.Time     `json:"received_at,omitzero"`
	Players    []PlayerInput `json:"players"`
}
