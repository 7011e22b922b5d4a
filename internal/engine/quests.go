package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// CompleteQuest records a finished quest: progress and streak are
// advanced and saved, then a COMPLETED history entry is appended, each
// under the standard local-first contract. Returns the confirmed
// progress snapshot.
func (e *Engine) CompleteQuest(ctx context.Context, quest string, points int, goal *model.GoalInfo, goalProgress int, now time.Time) (model.ProgressSnapshot, error) {
	today := model.DayOfYear(now)

	cur, err := e.store.Progress(ctx)
	if err != nil {
		return cur, fmt.Errorf("failed to read progress: %w", err)
	}

	confirmed, err := e.SaveProgress(ctx, nextProgress(cur, today, points))
	if err != nil {
		return confirmed, err
	}

	entry := model.TaskHistoryEntry{
		Quest:  quest,
		Points: points,
		Status: model.StatusCompleted,
		Date:   now.Format("2006-01-02"),
		Time:   now.Format("15:04"),
		Goal:   goal,
	}
	if err := e.SaveTaskHistory(ctx, entry, goalProgress); err != nil {
		return confirmed, err
	}

	return confirmed, nil
}

// RejectQuest records a reroll: the same-day reject counter is bumped
// and a REJECTED history entry is appended. Returns the confirmed
// counter.
func (e *Engine) RejectQuest(ctx context.Context, quest string, now time.Time) (model.RejectInfo, error) {
	today := model.DayOfYear(now)

	info, err := e.store.RejectInfo(ctx)
	if err != nil {
		return info, fmt.Errorf("failed to read reject info: %w", err)
	}

	next := model.RejectInfo{Count: info.CountFor(today) + 1, Day: today}
	confirmed, err := e.SaveRejectInfo(ctx, next)
	if err != nil {
		return confirmed, err
	}

	entry := model.TaskHistoryEntry{
		Quest:  quest,
		Status: model.StatusRejected,
		Date:   now.Format("2006-01-02"),
		Time:   now.Format("15:04"),
	}
	if err := e.SaveTaskHistory(ctx, entry, 0); err != nil {
		return confirmed, err
	}

	return confirmed, nil
}

// nextProgress advances a snapshot for a claim on the given day.
// The streak increments only when the claim day advances by exactly
// one calendar day; a same-day claim keeps the streak; anything else
// resets it to 1.
func nextProgress(cur model.ProgressSnapshot, today, points int) model.ProgressSnapshot {
	next := model.ProgressSnapshot{
		Points:         cur.Points + points,
		LastClaimedDay: today,
	}

	switch {
	case cur.LastClaimedDay == today:
		next.Streak = cur.Streak
		if next.Streak == 0 {
			next.Streak = 1
		}
	case cur.LastClaimedDay != model.UnsetDay && today == cur.LastClaimedDay+1:
		next.Streak = cur.Streak + 1
	default:
		next.Streak = 1
	}

	return next
}
