// Package types contains common read-side types used across the application.
package types

import "github.com/okian/acerank/internal/domain/model"

// Entry represents a leaderboard row.
type Entry struct {
	Rank         int     `json:"rank"`
	Tag          string  `json:"tag"`
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Availability float64 `json:"availability"`
}

// Standing is a leaderboard entry together with the full per-component
// breakdown, served by the rank endpoint.
type Standing struct {
	Entry
	Breakdown model.Breakdown `json:"breakdown"`
}

// FromResult converts an engine result into a leaderboard entry.
func FromResult(rank int, r model.ScoreResult) Entry {
	return Entry{
		Rank:         rank,
		Tag:          r.Tag,
		Name:         r.Name,
		Score:        r.Final,
		Availability: r.Availability,
	}
}
