package engine

import (
	"context"
	"fmt"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// SaveTheme writes the preference locally, then pushes it. The theme
// mutex covers the whole push so a concurrent background fetch cannot
// interleave and flap the stored value.
func (e *Engine) SaveTheme(ctx context.Context, mode model.ThemeMode) (model.ThemeMode, error) {
	e.themeMu.Lock()
	defer e.themeMu.Unlock()

	if err := e.store.SaveTheme(ctx, mode); err != nil {
		return mode, fmt.Errorf("local theme write failed: %w", err)
	}

	if !e.online.Load() {
		e.enqueueTheme(mode)
		return mode, nil
	}

	echo, err := e.client.SaveTheme(ctx, mode)
	if err != nil {
		e.logPushFailure(kindTheme, err)
		e.enqueueTheme(mode)
		return mode, nil
	}

	e.sink.SyncPushed(kindTheme)

	if echo != mode && echo.IsValid() {
		if err := e.store.SaveTheme(ctx, echo); err != nil {
			return echo, fmt.Errorf("failed to reconcile theme echo: %w", err)
		}
	}
	return echo, nil
}

// Theme returns the local preference without touching the network.
func (e *Engine) Theme(ctx context.Context) (model.ThemeMode, error) {
	return e.store.Theme(ctx)
}

// WatchTheme returns a live subscription sourced from local storage
// with last-fetched-wins background reconciliation.
func (e *Engine) WatchTheme(ctx context.Context) (<-chan model.ThemeMode, func(), error) {
	ch, cancel, err := e.store.WatchTheme(ctx)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan model.ThemeMode, 8)
	go func() {
		defer close(out)
		for mode := range ch {
			select {
			case out <- mode:
			case <-ctx.Done():
				cancel()
				return
			}
			e.tryReconcile(slotTheme, e.reconcileTheme)
		}
	}()

	return out, cancel, nil
}

// reconcileTheme fetches the remote preference and adopts any
// difference. Runs under the theme mutex so it cannot interleave with
// a concurrent SaveTheme push.
func (e *Engine) reconcileTheme() {
	e.themeMu.Lock()
	defer e.themeMu.Unlock()

	ctx, cancel := e.reconcileContext()
	defer cancel()

	remote, err := e.client.Theme(ctx)
	if err != nil {
		e.logger.Printf("Theme reconciliation skipped: %v", err)
		return
	}
	if !remote.IsValid() {
		e.logger.Printf("Theme reconciliation skipped: server sent unknown mode %d", remote)
		return
	}

	// The local value may have moved since the emission that triggered
	// us; only a remote value differing from the CURRENT local one wins.
	current, err := e.store.Theme(ctx)
	if err != nil {
		e.logger.Printf("Theme reconciliation skipped: %v", err)
		return
	}

	if remote != current {
		if err := e.store.SaveTheme(ctx, remote); err != nil {
			e.logger.Printf("Failed to store reconciled theme: %v", err)
		}
	}
}

// enqueueTheme queues a replay of this exact save.
func (e *Engine) enqueueTheme(mode model.ThemeMode) {
	e.sink.SyncQueued(kindTheme)
	e.scalars.Enqueue(queueOp{
		Kind: kindTheme,
		Run: func(ctx context.Context) error {
			if _, err := e.client.SaveTheme(ctx, mode); err != nil {
				return err
			}
			e.sink.SyncPushed(kindTheme)
			return nil
		},
	})
}
