// Package engine is the offline-first synchronization core of sidequest.
//
// Every save goes to the local durable store first; that write either
// succeeds (and the operation succeeds from the caller's point of view)
// or fails fatally. The remote push that follows is best-effort: a
// failed push is classified, logged, queued for replay and never
// surfaced to the caller, so offline operation is invisible to the UI
// layer.
//
// Continuous reads are live subscriptions sourced from the local store.
// Each emission triggers a non-blocking background reconciliation
// against the server; a remote value that wins the kind-specific
// tie-break overwrites local storage, which re-emits.
//
// The engine subscribes to the connectivity monitor exactly once per
// process lifetime. A transition to available drains the pending
// queues; a transition away just clears the online flag and lets
// in-flight calls fail and re-queue naturally.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sidequest-dev/sidequest/internal/api"
	"github.com/sidequest-dev/sidequest/internal/model"
	"github.com/sidequest-dev/sidequest/internal/netmon"
	"github.com/sidequest-dev/sidequest/internal/queue"
	"github.com/sidequest-dev/sidequest/internal/store"
)

// Client is the remote surface the engine pushes to and reconciles
// against. *api.Client implements it.
type Client interface {
	SaveProgress(ctx context.Context, p model.ProgressSnapshot) (model.ProgressSnapshot, error)
	SaveSeed(ctx context.Context, rec model.SeedRecord) (model.SeedRecord, error)
	SaveTaskHistory(ctx context.Context, e model.TaskHistoryEntry, goalProgress int) error
	TaskHistory(ctx context.Context) ([]model.TaskHistoryEntry, error)
	ClearTaskHistory(ctx context.Context) error
	SaveRejectInfo(ctx context.Context, info model.RejectInfo) (model.RejectInfo, error)
	SaveTheme(ctx context.Context, mode model.ThemeMode) (model.ThemeMode, error)
	Theme(ctx context.Context) (model.ThemeMode, error)
	IncrementGoalProgress(ctx context.Context, goalID string, increment int, questID string) error
}

// EventSink observes engine activity. The dashboard implements it; a
// nil sink is replaced with a no-op.
type EventSink interface {
	// SyncPushed reports a successful remote push for a data kind.
	SyncPushed(kind string)

	// SyncQueued reports a failed push that was queued for replay.
	SyncQueued(kind string)

	// DrainComplete reports the outcome of one drain pass.
	DrainComplete(executed, failed int)

	// ConnectivityChanged reports online flag transitions.
	ConnectivityChanged(online bool)
}

// nopSink is the default EventSink.
type nopSink struct{}

func (nopSink) SyncPushed(string)       {}
func (nopSink) SyncQueued(string)       {}
func (nopSink) DrainComplete(int, int)  {}
func (nopSink) ConnectivityChanged(bool) {}

// queueOp aliases queue.Op to keep the per-kind files terse.
type queueOp = queue.Op

// Data kind labels used in queue entries, events and logs.
const (
	kindProgress = "progress"
	kindSeed     = "seed"
	kindHistory  = "history"
	kindReject   = "reject-info"
	kindTheme    = "theme"
)

// Config holds the engine's collaborators.
type Config struct {
	// Store is the local durable store. Required.
	Store *store.Store

	// Client is the remote API client. Required.
	Client Client

	// Monitor supplies connectivity transitions. Required.
	Monitor netmon.Monitor

	// Sink observes engine events. Optional.
	Sink EventSink

	// Logger for engine activity. If nil, a default logger writing to
	// stderr is used.
	Logger *log.Logger
}

// Engine orchestrates local-first writes, remote pushes, fallback,
// retry and reconciliation. One instance per process, constructed at
// startup and kept until exit.
type Engine struct {
	store   *store.Store
	client  Client
	monitor netmon.Monitor
	sink    EventSink
	logger  *log.Logger

	scalars *queue.Queue
	history *queue.OrderedQueue

	online atomic.Bool

	// themeMu serializes theme pushes against theme reconciliation so a
	// concurrent fetch cannot interleave with a push and flap the value.
	themeMu sync.Mutex

	// seedMu serializes the daily-rollover check so two reads on a day
	// boundary cannot both regenerate or observe a half-written record.
	seedMu sync.Mutex

	// Per-kind reconciliation in-flight flags. An emission that arrives
	// while a reconcile for the same kind is running is skipped; the
	// running pass already reflects fresher state than the one that
	// triggered it.
	reconciling [4]atomic.Bool

	startOnce sync.Once
	stop      func()
	wg        sync.WaitGroup
}

// Reconciliation slots for the in-flight flags.
const (
	slotProgress = iota
	slotSeed
	slotReject
	slotTheme
)

// New creates an Engine. Start must be called to begin connectivity
// tracking and queue draining.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("client cannot be nil")
	}
	if cfg.Monitor == nil {
		return nil, fmt.Errorf("monitor cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}

	return &Engine{
		store:   cfg.Store,
		client:  cfg.Client,
		monitor: cfg.Monitor,
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		scalars: queue.New(cfg.Logger),
		history: queue.NewOrdered(cfg.Logger),
	}, nil
}

// Start subscribes to the connectivity monitor. Subsequent calls are
// no-ops; the subscription lives for the process lifetime.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		statuses, cancel := e.monitor.Subscribe()
		e.stop = cancel

		e.online.Store(e.monitor.Status().Online())

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case status, ok := <-statuses:
					if !ok {
						return
					}
					e.handleTransition(ctx, status)
				}
			}
		}()
	})
}

// Stop ends the connectivity subscription and waits for the status
// goroutine. Pending queue contents are dropped; they were never
// acknowledged as synced, and the local store remains authoritative.
func (e *Engine) Stop() {
	if e.stop != nil {
		e.stop()
	}
	e.wg.Wait()
}

// Online reports the current online flag.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// PendingOps returns the queue depths (scalar, history).
func (e *Engine) PendingOps() (int, int) {
	return e.scalars.Len(), e.history.Len()
}

// handleTransition updates the online flag and drains on reconnect.
func (e *Engine) handleTransition(ctx context.Context, status netmon.Status) {
	wasOnline := e.online.Load()
	nowOnline := status.Online()
	e.online.Store(nowOnline)

	if nowOnline == wasOnline {
		return
	}

	e.logger.Printf("Connectivity transition: online=%v", nowOnline)
	e.sink.ConnectivityChanged(nowOnline)

	if nowOnline {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.drainPending(ctx)
		}()
	}
}

// drainPending replays everything queued while offline. History first:
// its entries are older appends whose order matters, and scalar kinds
// are last-write-wins either way.
func (e *Engine) drainPending(ctx context.Context) {
	hExec, hFailed := e.history.Drain(ctx)
	sExec, sFailed := e.scalars.Drain(ctx)

	executed, failed := hExec+sExec, hFailed+sFailed
	if executed+failed > 0 {
		e.sink.DrainComplete(executed, failed)
	}
}

// logPushFailure classifies and logs a failed push. Auth failures are
// called out separately so they are distinguishable in logs; the
// engine deliberately does not log the user out (the UI layer owns
// that decision).
func (e *Engine) logPushFailure(kind string, err error) {
	switch api.Classify(err) {
	case api.ClassAuth:
		e.logger.Printf("Push of %s rejected: authentication failure: %v", kind, err)
	case api.ClassHTTP:
		var httpErr *api.HTTPError
		errors.As(err, &httpErr)
		e.logger.Printf("Push of %s failed: HTTP %d", kind, httpErr.StatusCode)
	case api.ClassMalformed:
		e.logger.Printf("Push of %s failed: malformed response: %v", kind, err)
	default:
		e.logger.Printf("Push of %s failed: network error: %v", kind, err)
	}
}

// reconcileContext bounds one background reconciliation pass.
// Reconciliation is detached from the subscription's context on
// purpose: it must not be cancelled by an unsubscribing watcher
// mid-write.
func (e *Engine) reconcileContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), api.DefaultTimeout)
}

// tryReconcile runs fn if no reconciliation for the slot is in flight.
// Never blocks the caller.
func (e *Engine) tryReconcile(slot int, fn func()) {
	if !e.online.Load() {
		return
	}
	if !e.reconciling[slot].CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer e.reconciling[slot].Store(false)
		fn()
	}()
}
