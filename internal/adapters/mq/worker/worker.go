// Package worker defines worker contracts for asynchronous roster scoring.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/pkg/logger"
	"github.com/okian/acerank/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Snapshot abstracts what workers read off the queue.
type Snapshot = model.Snapshot

// Scorer computes per-player scores for a full roster.
type Scorer interface {
	Score(ctx context.Context, players []model.PlayerInput) []model.ScoreResult
}

// Updater replaces the ranking store contents with a freshly scored roster.
type Updater interface {
	ReplaceAll(ctx context.Context, results []model.ScoreResult) error
}

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Worker processes snapshots and publishes score updates using the provided
// interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing roster snapshots.
type InMemoryWorker struct {
	queue   Queue
	scorer  Scorer
	updater Updater
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, scorer Scorer, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		scorer:   scorer,
		updater:  updater,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	snapshots := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case snapshot, ok := <-snapshots:
			if !ok {
				return
			}

			if err := w.processSnapshot(ctx, snapshot); err != nil {
				w.logger.Error(ctx, "error processing snapshot", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processSnapshot scores a full roster and swaps it into the ranking store.
func (w *InMemoryWorker) processSnapshot(ctx context.Context, snapshot Snapshot) error {
	start := time.Now()
	results := w.scorer.Score(ctx, snapshot.Players)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))

	if err := w.updater.ReplaceAll(ctx, results); err != nil {
		metrics.RecordWorkerError()
		w.logger.Error(ctx, "ranking store update failed for snapshot",
			logger.String("snapshotID", snapshot.ID),
			logger.Error(err),
		)
		return fmt.Errorf("ranking store update failed for snapshot %s: %w", snapshot.ID, err)
	}

	metrics.RecordSnapshotProcessed()
	metrics.RecordPlayersScored(len(results))
	w.logger.Debug(ctx, "snapshot scored",
		logger.String("snapshotID", snapshot.ID),
		logger.String("clanTag", snapshot.ClanTag),
		logger.Int("players", len(results)),
	)
	return nil
}

// Pool manages multiple workers draining a shared queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, queue Queue, scorer Scorer, updater Updater) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			scorer,
			updater,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		close(worker.shutdown)
	}
	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown gracefully shuts down the entire worker pool. It closes the queue
// first so workers drain the backlog before exiting.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
