// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"

	snapshotqueue "github.com/okian/acerank/internal/adapters/mq/queue"
	workerpool "github.com/okian/acerank/internal/adapters/mq/worker"
	"github.com/okian/acerank/internal/adapters/repository"
	"github.com/okian/acerank/internal/domain/ace"
	"github.com/okian/acerank/internal/domain/dedupe"
	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/internal/domain/types"
	"github.com/okian/acerank/pkg/logger"
	"github.com/okian/acerank/pkg/metrics"
)

// Service implements the API dependencies for the ranking system.
type Service struct {
	mu sync.RWMutex

	// Core components
	standings     repository.Store
	deduper       dedupe.Deduper
	snapshotQueue snapshotqueue.Queue
	engine        *ace.Engine
	workerPool    *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	engineOptions []ace.Option

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithEngineOptions forwards options to the scoring engine.
func WithEngineOptions(opts ...ace.Option) Option {
	return func(s *Service) {
		s.engineOptions = append(s.engineOptions, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting ranking service...")

	s.standings = repository.NewTreapStore()
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.snapshotQueue = snapshotqueue.NewInMemoryQueue(
		snapshotqueue.WithCapacity(s.queueSize),
	)
	s.engine = ace.New(s.engineOptions...)

	s.workerPool = workerpool.NewPool(s.workerCount, s.snapshotQueue, s.engine, s.standings)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service. The snapshot queue is closed
// first so workers drain the backlog before exiting.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping ranking service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(ctx)
	}

	s.started = false
	s.logger.Info(ctx, "ranking service stopped")
}

// SeenAndRecord atomically checks if a snapshot id was seen and records it
// if not. Returns true if the snapshot was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a snapshot ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a roster snapshot for asynchronous scoring.
func (s *Service) Enqueue(ctx context.Context, snapshot model.Snapshot) bool {
	s.logger.Debug(ctx, "received snapshot",
		logger.String("snapshotID", snapshot.ID),
		logger.String("clanTag", snapshot.ClanTag),
		logger.Int("players", len(snapshot.Players)),
	)
	return s.snapshotQueue.Enqueue(ctx, snapshot)
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	return s.standings.TopN(ctx, n)
}

// Rank returns the standing, with breakdown, for a given player tag.
func (s *Service) Rank(ctx context.Context, tag string) (types.Standing, error) {
	return s.standings.Rank(ctx, tag)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.snapshotQueue.Len(ctx)
		rosterSize := s.standings.Count(ctx)

		stats["queueLength"] = queueLen
		stats["rosterSize"] = rosterSize
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateRosterSize(rosterSize)
	}

	return stats
}
