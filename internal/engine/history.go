package engine

import (
	"context"
	"fmt"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// SaveTaskHistory appends the entry to the local log, then pushes it.
//
// If the entry is a completed quest linked to a goal and goalProgress
// is positive, a second, independent call increments the goal's
// progress after the base push succeeds. That secondary call is
// fire-and-forget: its failure is logged and dropped, never queued,
// because goal state is reconstructible from the history record itself.
//
// Failed base pushes go to the ordered history queue so appends are
// never replayed out of order relative to each other.
func (e *Engine) SaveTaskHistory(ctx context.Context, entry model.TaskHistoryEntry, goalProgress int) error {
	if err := e.store.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("local history append failed: %w", err)
	}

	if !e.online.Load() {
		e.enqueueHistory(entry, goalProgress)
		return nil
	}

	if err := e.client.SaveTaskHistory(ctx, entry, goalProgress); err != nil {
		e.logPushFailure(kindHistory, err)
		e.enqueueHistory(entry, goalProgress)
		return nil
	}

	e.sink.SyncPushed(kindHistory)
	e.bumpGoal(ctx, entry, goalProgress)
	return nil
}

// bumpGoal issues the secondary goal-progress increment when the entry
// qualifies.
func (e *Engine) bumpGoal(ctx context.Context, entry model.TaskHistoryEntry, goalProgress int) {
	if entry.Status != model.StatusCompleted || entry.Goal == nil || goalProgress <= 0 {
		return
	}

	err := e.client.IncrementGoalProgress(ctx, entry.Goal.GoalID, goalProgress, entry.Quest)
	if err != nil {
		e.logger.Printf("Goal progress update for %s dropped: %v", entry.Goal.GoalID, err)
	}
}

// TaskHistory is a point-in-time fetch. Online, the remote log is
// authoritative: it replaces the local cache wholesale (never an
// item-by-item merge) and is returned. Offline, or if the fetch fails,
// the local cache is returned.
func (e *Engine) TaskHistory(ctx context.Context) ([]model.TaskHistoryEntry, error) {
	if e.online.Load() {
		remote, err := e.client.TaskHistory(ctx)
		if err == nil {
			if err := e.store.ReplaceHistory(ctx, remote); err != nil {
				return nil, fmt.Errorf("failed to cache remote history: %w", err)
			}
			return remote, nil
		}
		e.logger.Printf("History fetch fell back to local cache: %v", err)
	}

	return e.store.History(ctx)
}

// ClearTaskHistory wipes the log locally and remotely. The remote
// delete rides the ordered history queue on failure so it cannot be
// replayed ahead of appends that preceded it.
func (e *Engine) ClearTaskHistory(ctx context.Context) error {
	if err := e.store.ClearHistory(ctx); err != nil {
		return fmt.Errorf("local history clear failed: %w", err)
	}

	if !e.online.Load() {
		e.enqueueHistoryClear()
		return nil
	}

	if err := e.client.ClearTaskHistory(ctx); err != nil {
		e.logPushFailure(kindHistory, err)
		e.enqueueHistoryClear()
		return nil
	}

	e.sink.SyncPushed(kindHistory)
	return nil
}

// enqueueHistory queues an ordered replay of this exact append.
func (e *Engine) enqueueHistory(entry model.TaskHistoryEntry, goalProgress int) {
	e.sink.SyncQueued(kindHistory)
	e.history.Enqueue(queueOp{
		Kind: kindHistory,
		Run: func(ctx context.Context) error {
			if err := e.client.SaveTaskHistory(ctx, entry, goalProgress); err != nil {
				return err
			}
			e.sink.SyncPushed(kindHistory)
			e.bumpGoal(ctx, entry, goalProgress)
			return nil
		},
	})
}

// enqueueHistoryClear queues an ordered replay of the remote delete.
func (e *Engine) enqueueHistoryClear() {
	e.sink.SyncQueued(kindHistory)
	e.history.Enqueue(queueOp{
		Kind: kindHistory,
		Run: func(ctx context.Context) error {
			if err := e.client.ClearTaskHistory(ctx); err != nil {
				return err
			}
			e.sink.SyncPushed(kindHistory)
			return nil
		},
	})
}
