package engine

import (
	"context"
	"fmt"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// SaveRejectInfo writes the reroll counter locally, then pushes it.
func (e *Engine) SaveRejectInfo(ctx context.Context, info model.RejectInfo) (model.RejectInfo, error) {
	if err := e.store.SaveRejectInfo(ctx, info); err != nil {
		return info, fmt.Errorf("local reject-info write failed: %w", err)
	}

	if !e.online.Load() {
		e.enqueueRejectInfo(info)
		return info, nil
	}

	echo, err := e.client.SaveRejectInfo(ctx, info)
	if err != nil {
		e.logPushFailure(kindReject, err)
		e.enqueueRejectInfo(info)
		return info, nil
	}

	e.sink.SyncPushed(kindReject)

	if echo != info {
		if err := e.store.SaveRejectInfo(ctx, echo); err != nil {
			return echo, fmt.Errorf("failed to reconcile reject-info echo: %w", err)
		}
	}
	return echo, nil
}

// RejectInfo returns the local counter without touching the network.
func (e *Engine) RejectInfo(ctx context.Context) (model.RejectInfo, error) {
	return e.store.RejectInfo(ctx)
}

// WatchRejectInfo returns a live subscription sourced from local
// storage with last-fetched-wins background reconciliation.
func (e *Engine) WatchRejectInfo(ctx context.Context) (<-chan model.RejectInfo, func(), error) {
	ch, cancel, err := e.store.WatchRejectInfo(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan model.RejectInfo, 8)
	go func() {
		defer close(out)
		for info := range ch {
			select {
			case out <- info:
			case <-ctx.Done():
				cancel()
				return
			}
			local := info
			e.tryReconcile(slotReject, func() { e.reconcileRejectInfo(local) })
		}
	}()

	return out, cancel, nil
}

// reconcileRejectInfo pushes the local counter and adopts any differing
// server copy.
func (e *Engine) reconcileRejectInfo(local model.RejectInfo) {
	ctx, cancel := e.reconcileContext()
	defer cancel()

	remote, err := e.client.SaveRejectInfo(ctx, local)
	if err != nil {
		e.logger.Printf("Reject-info reconciliation skipped: %v", err)
		return
	}

	if remote != local {
		if err := e.store.SaveRejectInfo(ctx, remote); err != nil {
			e.logger.Printf("Failed to store reconciled reject info: %v", err)
		}
	}
}

// enqueueRejectInfo queues a replay of this exact save.
func (e *Engine) enqueueRejectInfo(info model.RejectInfo) {
	e.sink.SyncQueued(kindReject)
	e.scalars.Enqueue(queueOp{
		Kind: kindReject,
		Run: func(ctx context.Context) error {
			if _, err := e.client.SaveRejectInfo(ctx, info); err != nil {
				return err
			}
			e.sink.SyncPushed(kindReject)
			return nil
		},
	})
}
