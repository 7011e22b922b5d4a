// Package queue holds deferred sync operations until connectivity
// returns.
//
// A pending operation is a replay of one failed remote push, captured
// as a closure over the exact arguments of the original call. Two
// queue flavors exist:
//
//   - Queue: weakly ordered. Drain snapshots and clears the list, runs
//     the snapshot in order outside the lock, and re-appends failures
//     at the tail. Operations enqueued during a drain may execute before
//     a re-queued failure. Acceptable for scalar kinds, where every
//     operation is an idempotent overwrite and the last write wins.
//
//   - OrderedQueue: strictly ordered. Drain stops at the first failure
//     and re-prepends the unexecuted remainder, so relative order is
//     never violated. Used for task-history appends, which must not be
//     reordered against each other.
package queue

import (
	"context"
	"log"
	"os"
	"sync"
)

// Op is one deferred, replayable sync action.
type Op struct {
	// Kind labels the data kind for logging ("progress", "history", ...).
	Kind string

	// Run replays the original remote call.
	Run func(ctx context.Context) error
}

// Queue is a mutex-guarded FIFO of deferred operations with
// weak re-queue ordering.
type Queue struct {
	mu     sync.Mutex
	ops    []Op
	logger *log.Logger
}

// New creates a Queue. If logger is nil, a default logger writing to
// stderr is used.
func New(logger *log.Logger) *Queue {
	if logger == nil {
		logger = log.New(os.Stderr, "[queue] ", log.LstdFlags)
	}
	return &Queue{logger: logger}
}

// Enqueue appends an operation at the tail.
func (q *Queue) Enqueue(op Op) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ops = append(q.ops, op)
	q.logger.Printf("Queued %s operation (depth %d)", op.Kind, len(q.ops))
}

// Len returns the number of pending operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Drain executes all operations pending at the moment of the call.
//
// The queue is snapshotted and cleared atomically, then the snapshot
// runs in original order outside the lock, so re-enqueues from failing
// operations (or from concurrent callers) never deadlock. Failures are
// re-appended at the tail. Returns the number of executed and failed
// operations.
func (q *Queue) Drain(ctx context.Context) (executed, failed int) {
	q.mu.Lock()
	snapshot := q.ops
	q.ops = nil
	q.mu.Unlock()

	if len(snapshot) == 0 {
		return 0, 0
	}

	q.logger.Printf("Draining %d pending operations", len(snapshot))

	for _, op := range snapshot {
		if err := ctx.Err(); err != nil {
			// Shutdown mid-drain: put everything unexecuted back.
			q.mu.Lock()
			q.ops = append(q.ops, snapshot[executed+failed:]...)
			q.mu.Unlock()
			return executed, failed
		}

		if err := op.Run(ctx); err != nil {
			q.logger.Printf("Replay of %s operation failed: %v", op.Kind, err)
			failed++
			q.Enqueue(op)
			continue
		}
		executed++
	}

	q.logger.Printf("Drain complete: %d executed, %d failed", executed, failed)
	return executed, failed
}

// OrderedQueue is a mutex-guarded FIFO whose drain never reorders
// operations relative to each other.
type OrderedQueue struct {
	mu     sync.Mutex
	ops    []Op
	logger *log.Logger
}

// NewOrdered creates an OrderedQueue. If logger is nil, a default
// logger writing to stderr is used.
func NewOrdered(logger *log.Logger) *OrderedQueue {
	if logger == nil {
		logger = log.New(os.Stderr, "[queue] ", log.LstdFlags)
	}
	return &OrderedQueue{logger: logger}
}

// Enqueue appends an operation at the tail.
func (q *OrderedQueue) Enqueue(op Op) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ops = append(q.ops, op)
	q.logger.Printf("Queued %s operation (ordered, depth %d)", op.Kind, len(q.ops))
}

// Len returns the number of pending operations.
func (q *OrderedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Drain executes pending operations in order, stopping at the first
// failure. The failed operation and everything behind it are
// re-prepended ahead of anything enqueued during the drain, so the
// original relative order holds across drain passes.
func (q *OrderedQueue) Drain(ctx context.Context) (executed, failed int) {
	q.mu.Lock()
	snapshot := q.ops
	q.ops = nil
	q.mu.Unlock()

	if len(snapshot) == 0 {
		return 0, 0
	}

	q.logger.Printf("Draining %d pending operations (ordered)", len(snapshot))

	for i, op := range snapshot {
		if ctx.Err() != nil {
			q.requeueHead(snapshot[i:])
			return executed, 0
		}

		if err := op.Run(ctx); err != nil {
			q.logger.Printf("Replay of %s operation failed, halting ordered drain: %v", op.Kind, err)
			q.requeueHead(snapshot[i:])
			return executed, len(snapshot) - i
		}
		executed++
	}

	q.logger.Printf("Ordered drain complete: %d executed", executed)
	return executed, 0
}

// requeueHead puts unexecuted operations back at the head of the queue.
func (q *OrderedQueue) requeueHead(remainder []Op) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = append(append([]Op{}, remainder...), q.ops...)
}
