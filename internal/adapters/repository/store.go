// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"

	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/internal/domain/types"
)

// Store provides read/write access to the ranking state.
type Store interface {
	// ReplaceAll swaps the full roster standings with a freshly scored
	// batch. The previous standings are discarded.
	ReplaceAll(ctx context.Context, results []model.ScoreResult) error

	// Rank returns the current standing for a player, including the
	// per-component breakdown. Returns ErrNotFound if the player is
	// unknown.
	Rank(ctx context.Context, tag string) (types.Standing, error)

	// TopN returns the top-N entries ordered by score desc, tag asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of players tracked in the store.
	Count(ctx context.Context) int
}
