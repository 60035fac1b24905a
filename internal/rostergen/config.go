// Package rostergen generates synthetic clan roster snapshots and drives
// them through a running acerank service. It exists for load tests and
// local smoke testing; production snapshots come from real clan data.
package rostergen

import "time"

// Default configuration values.
const (
	DefaultPlayers = 50
	DefaultTopN    = 25
	DefaultTimeout = 30 * time.Second
)

// Config controls snapshot generation and submission.
type Config struct {
	// BaseURL of the running service, e.g. http://localhost:9080.
	BaseURL string

	// Players is the roster size of the generated snapshot.
	Players int

	// TopN is how many leaderboard entries to fetch after scoring.
	TopN int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// Seed makes generation reproducible. Zero picks a random seed.
	Seed uint64

	// Verbose enables debug logging.
	Verbose bool
}

// normalize fills zero fields with defaults.
func (c *Config) normalize() {
	if c.Players <= 0 {
		c.Players = DefaultPlayers
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}
