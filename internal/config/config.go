// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"

	"github.com/okian/acerank/internal/domain/ace"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SnapshotQueueSize bounds the in-memory snapshot queue.
	SnapshotQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the snapshot deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Weights overrides the component blend of the scoring engine.
	Weights ace.Weights `koanf:"weights"`

	// Shrinkage overrides the per-component shrinkage constants.
	Shrinkage ace.Shrinkage `koanf:"shrinkage"`

	// LogisticAlpha sets the squashing slope of the final score.
	LogisticAlpha float64 `koanf:"logistic_alpha"`

	// DefaultAvailability is the multiplier for players with no presence signal.
	DefaultAvailability float64 `koanf:"default_availability"`

	// DecayBase is the per-round recency decay of attack/defense evidence.
	DecayBase float64 `koanf:"decay_base"`
}

// New creates a Config with the documented defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		SnapshotQueueSize:   1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		Weights:             ace.DefaultWeights(),
		Shrinkage:           ace.DefaultShrinkage(),
		LogisticAlpha:       1.1,
		DefaultAvailability: 0.92,
		DecayBase:           0.75,
	}
}
