package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// Seed returns the seed record for the given current day, regenerating
// and persisting a fresh one if the stored record belongs to another
// day. The rollover check is serialized so two reads on a day boundary
// cannot both regenerate or observe a half-written record.
func (e *Engine) Seed(ctx context.Context, currentDay int) (model.SeedRecord, error) {
	e.seedMu.Lock()
	defer e.seedMu.Unlock()

	rec, err := e.store.Seed(ctx)
	if err != nil {
		return rec, fmt.Errorf("local seed read failed: %w", err)
	}

	if rec.ValidFor(currentDay) {
		return rec, nil
	}

	rec = model.SeedRecord{Seed: newSeed(), Day: currentDay}
	e.logger.Printf("Seed rollover: generated new seed for day %d", currentDay)

	confirmed, err := e.saveSeedLocked(ctx, rec)
	if err != nil {
		return rec, err
	}

	// A stale server echo must not undo the rollover we just performed.
	if !confirmed.ValidFor(currentDay) {
		return rec, nil
	}
	return confirmed, nil
}

// SaveSeed writes the record locally, then pushes it. Same contract as
// SaveProgress: the local write is fatal on failure, the push falls
// back to the queue.
func (e *Engine) SaveSeed(ctx context.Context, rec model.SeedRecord) (model.SeedRecord, error) {
	e.seedMu.Lock()
	defer e.seedMu.Unlock()
	return e.saveSeedLocked(ctx, rec)
}

func (e *Engine) saveSeedLocked(ctx context.Context, rec model.SeedRecord) (model.SeedRecord, error) {
	if err := e.store.SaveSeed(ctx, rec); err != nil {
		return rec, fmt.Errorf("local seed write failed: %w", err)
	}

	if !e.online.Load() {
		e.enqueueSeed(rec)
		return rec, nil
	}

	echo, err := e.client.SaveSeed(ctx, rec)
	if err != nil {
		e.logPushFailure(kindSeed, err)
		e.enqueueSeed(rec)
		return rec, nil
	}

	e.sink.SyncPushed(kindSeed)

	if echo != rec {
		if err := e.store.SaveSeed(ctx, echo); err != nil {
			return echo, fmt.Errorf("failed to reconcile seed echo: %w", err)
		}
	}
	return echo, nil
}

// WatchSeed returns a live subscription sourced from local storage.
// Each emission triggers a best-effort background reconciliation; any
// remote difference overwrites local (last-fetched-wins).
func (e *Engine) WatchSeed(ctx context.Context) (<-chan model.SeedRecord, func(), error) {
	ch, cancel, err := e.store.WatchSeed(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan model.SeedRecord, 8)
	go func() {
		defer close(out)
		for rec := range ch {
			select {
			case out <- rec:
			case <-ctx.Done():
				cancel()
				return
			}
			local := rec
			e.tryReconcile(slotSeed, func() { e.reconcileSeed(local) })
		}
	}()

	return out, cancel, nil
}

// reconcileSeed pushes the local record and adopts any differing server
// copy. The seed is a low-stakes scalar: staleness is preferred over
// merge complexity, and Seed() re-validates the day on every read.
func (e *Engine) reconcileSeed(local model.SeedRecord) {
	ctx, cancel := e.reconcileContext()
	defer cancel()

	remote, err := e.client.SaveSeed(ctx, local)
	if err != nil {
		e.logger.Printf("Seed reconciliation skipped: %v", err)
		return
	}

	if remote != local {
		if err := e.store.SaveSeed(ctx, remote); err != nil {
			e.logger.Printf("Failed to store reconciled seed: %v", err)
		}
	}
}

// enqueueSeed queues a replay of this exact save.
func (e *Engine) enqueueSeed(rec model.SeedRecord) {
	e.sink.SyncQueued(kindSeed)
	e.scalars.Enqueue(queueOp{
		Kind: kindSeed,
		Run: func(ctx context.Context) error {
			if _, err := e.client.SaveSeed(ctx, rec); err != nil {
				return err
			}
			e.sink.SyncPushed(kindSeed)
			return nil
		},
	})
}

// newSeed derives a fresh daily seed from the wall clock: high entropy
// across days, reproducible within the day once persisted.
func newSeed() int64 {
	return time.Now().UnixNano()
}
