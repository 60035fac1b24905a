// Package queue defines the contract for enqueuing and consuming roster
// snapshots awaiting scoring.
package queue

import (
	"context"
	"sync"

	"github.com/okian/acerank/internal/domain/model"
	"github.com/okian/acerank/pkg/metrics"
)

// Default queue capacity.
const defaultCapacity = 1024

// Snapshot is the payload type flowing through the queue.
type Snapshot = model.Snapshot

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot to the queue.
	// Returns false if the queue is full and the snapshot was not enqueued.
	Enqueue(ctx context.Context, s Snapshot) bool

	// Dequeue returns a channel that receives snapshots as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Snapshot

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue. After closing, no new
	// snapshots can be enqueued and the dequeue channel is closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int
	mu        sync.RWMutex
	closed    bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds a snapshot to the queue without blocking.
func (q *InMemoryQueue) Enqueue(_ context.Context, s Snapshot) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDropped()
		return false
	}

	select {
	case q.snapshots <- s:
		q.updateGauges()
		return true
	default:
		metrics.RecordQueueDropped()
		return false
	}
}

// Dequeue exposes the snapshot channel for consumers.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Snapshot {
	return q.snapshots
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.snapshots)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.snapshots)
	}
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) updateGauges() {
	size := len(q.snapshots)
	metrics.UpdateQueueSize(size)
	if q.capacity > 0 {
		metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	}
}
