// Package repository defines the ranking store interface and errors.
package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/internal/domain/types"
	"github.com/okian/acerank/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then tag ASC (deterministic). The BST comparator
// treats "less" as "ranks earlier", so an in-order traversal produces the
// leaderboard from best to worst. Subtree sizes give O(log n) rank lookups.

// scoreScale controls fixed-point scaling from float64. Final scores are
// bounded to [0, 100], so six decimal places fit comfortably in int64.
const scoreScale = 1_000_000

const defaultInitialCapacity = 64

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	if math.IsInf(x, 1) {
		return scoreFP(math.MaxInt64)
	}
	if math.IsInf(x, -1) {
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

// treap node
type node struct {
	tag   string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aTag) should appear before (bScore, bTag)
// in the leaderboard (higher ranks first).
func less(aScore scoreFP, aTag string, bScore scoreFP, bTag string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aTag < bTag // tie-breaker by tag asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, tag string, score scoreFP) *node {
	if n == nil {
		// Random priorities keep the tree balanced in expectation
		// regardless of insertion order.
		return &node{tag: tag, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, tag, n.score, n.tag) {
		n.left = insert(n.left, tag, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, tag, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// rankOf returns the 1-based leaderboard position of (score, tag).
func rankOf(n *node, score scoreFP, tag string) int {
	rank := 1
	for n != nil {
		switch {
		case score == n.score && tag == n.tag:
			return rank + nsize(n.left)
		case less(score, tag, n.score, n.tag):
			n = n.left
		default:
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return rank
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, byTag map[string]model.ScoreResult, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}

	collectTopN(n.left, limit, byTag, out)

	if len(*out) < limit {
		if r, ok := byTag[n.tag]; ok {
			*out = append(*out, types.FromResult(len(*out)+1, r))
		}
	}

	if len(*out) < limit {
		collectTopN(n.right, limit, byTag, out)
	}
}

// TreapStore holds the standings of the most recently scored roster.
type TreapStore struct {
	mu              sync.RWMutex
	root            *node
	byTag           map[string]model.ScoreResult
	initialCapacity int
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{initialCapacity: defaultInitialCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.byTag = make(map[string]model.ScoreResult, s.initialCapacity)
	return s
}

// ReplaceAll swaps the standings with a freshly scored roster in one shot.
// Duplicate tags in the batch keep the last occurrence.
func (s *TreapStore) ReplaceAll(_ context.Context, results []model.ScoreResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	byTag := make(map[string]model.ScoreResult, len(results))
	for _, r := range results {
		if r.Tag == "" {
			continue
		}
		byTag[r.Tag] = r
	}

	var root *node
	for tag, r := range byTag {
		root = insert(root, tag, toFixedPoint(r.Final))
	}

	s.mu.Lock()
	s.root = root
	s.byTag = byTag
	s.mu.Unlock()

	metrics.UpdateRosterSize(len(byTag))
	return nil
}

// Rank returns the current standing for a player in O(log n).
func (s *TreapStore) Rank(_ context.Context, tag string) (types.Standing, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byTag[tag]
	if !ok {
		return types.Standing{}, ErrNotFound
	}

	rank := rankOf(s.root, toFixedPoint(r.Final), tag)
	return types.Standing{
		Entry:     types.FromResult(rank, r),
		Breakdown: r.Breakdown,
	}, nil
}

// TopN returns the top N entries ordered by score desc, tag asc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.byTag)))
	collectTopN(s.root, n, s.byTag, &out)
	return out, nil
}

// Count returns the number of tracked players.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byTag)
}
