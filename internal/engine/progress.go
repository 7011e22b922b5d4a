package engine

import (
	"context"
	"fmt"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// SaveProgress writes the snapshot locally, then pushes it.
//
// The local write must succeed or the call fails. A successful push
// returns the server-confirmed value (reconciled into local storage if
// the server's copy wins the tie-break); a failed push queues a replay
// and returns the locally written value.
func (e *Engine) SaveProgress(ctx context.Context, p model.ProgressSnapshot) (model.ProgressSnapshot, error) {
	if err := e.store.SaveProgress(ctx, p); err != nil {
		return p, fmt.Errorf("local progress write failed: %w", err)
	}

	if !e.online.Load() {
		e.enqueueProgress(p)
		return p, nil
	}

	echo, err := e.client.SaveProgress(ctx, p)
	if err != nil {
		e.logPushFailure(kindProgress, err)
		e.enqueueProgress(p)
		return p, nil
	}

	e.sink.SyncPushed(kindProgress)

	if progressRemoteNewer(echo, p) {
		if err := e.store.SaveProgress(ctx, echo); err != nil {
			return echo, fmt.Errorf("failed to reconcile progress echo: %w", err)
		}
	}
	return echo, nil
}

// Progress returns the local snapshot without touching the network.
func (e *Engine) Progress(ctx context.Context) (model.ProgressSnapshot, error) {
	return e.store.Progress(ctx)
}

// WatchProgress returns a live subscription sourced from local storage.
// Each emission triggers a best-effort background reconciliation
// against the server; the emission itself is never delayed by it.
func (e *Engine) WatchProgress(ctx context.Context) (<-chan model.ProgressSnapshot, func(), error) {
	ch, cancel, err := e.store.WatchProgress(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan model.ProgressSnapshot, 8)
	go func() {
		defer close(out)
		for p := range ch {
			select {
			case out <- p:
			case <-ctx.Done():
				cancel()
				return
			}
			local := p
			e.tryReconcile(slotProgress, func() { e.reconcileProgress(local) })
		}
	}()

	return out, cancel, nil
}

// reconcileProgress pushes the local snapshot and adopts the server's
// canonical copy if it wins the tie-break. Best-effort: failures are
// logged, never queued (reads do not create pending operations).
func (e *Engine) reconcileProgress(local model.ProgressSnapshot) {
	ctx, cancel := e.reconcileContext()
	defer cancel()

	remote, err := e.client.SaveProgress(ctx, local)
	if err != nil {
		e.logger.Printf("Progress reconciliation skipped: %v", err)
		return
	}

	if progressRemoteNewer(remote, local) {
		if err := e.store.SaveProgress(ctx, remote); err != nil {
			e.logger.Printf("Failed to store reconciled progress: %v", err)
		}
	}
}

// progressRemoteNewer is the progress tie-break: points and streaks
// only go up, so a strictly greater remote value is assumed fresher.
// This is a monotonic-growth heuristic, not a vector clock.
func progressRemoteNewer(remote, local model.ProgressSnapshot) bool {
	return remote.Points > local.Points || remote.Streak > local.Streak
}

// enqueueProgress queues a replay of this exact save.
func (e *Engine) enqueueProgress(p model.ProgressSnapshot) {
	e.sink.SyncQueued(kindProgress)
	e.scalars.Enqueue(e.progressOp(p))
}

// progressOp builds the deferred replay for a progress save.
func (e *Engine) progressOp(p model.ProgressSnapshot) queueOp {
	return queueOp{
		Kind: kindProgress,
		Run: func(ctx context.Context) error {
			echo, err := e.client.SaveProgress(ctx, p)
			if err != nil {
				return err
			}
			e.sink.SyncPushed(kindProgress)
			if progressRemoteNewer(echo, p) {
				if err := e.store.SaveProgress(ctx, echo); err != nil {
					e.logger.Printf("Failed to store replayed progress echo: %v", err)
				}
			}
			return nil
		},
	}
}
