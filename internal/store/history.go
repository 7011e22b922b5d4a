package store

import (
	"context"
	"fmt"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// History returns the full task-history log, newest first.
func (st *Store) History(ctx context.Context) ([]model.TaskHistoryEntry, error) {
	rows, err := st.conn.QueryContext(ctx,
		`SELECT quest, points, status, date, time, goal_id, goal_title, goal_category
		 FROM task_history ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query task history: %w", err)
	}
	defer rows.Close()

	var entries []model.TaskHistoryEntry
	for rows.Next() {
		var e model.TaskHistoryEntry
		var goalID, goalTitle, goalCategory string

		err := rows.Scan(&e.Quest, &e.Points, &e.Status, &e.Date, &e.Time,
			&goalID, &goalTitle, &goalCategory)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		if goalID != "" {
			e.Goal = &model.GoalInfo{
				GoalID:   goalID,
				Title:    goalTitle,
				Category: goalCategory,
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return entries, nil
}

// AppendHistory adds one entry to the log.
func (st *Store) AppendHistory(ctx context.Context, e model.TaskHistoryEntry) error {
	var goalID, goalTitle, goalCategory string
	if e.Goal != nil {
		goalID = e.Goal.GoalID
		goalTitle = e.Goal.Title
		goalCategory = e.Goal.Category
	}

	_, err := st.conn.ExecContext(ctx,
		`INSERT INTO task_history
		 (quest, points, status, date, time, goal_id, goal_title, goal_category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Quest, e.Points, string(e.Status), e.Date, e.Time,
		goalID, goalTitle, goalCategory)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// ReplaceHistory swaps the entire local log for the given entries.
//
// The remote log is authoritative across devices, so a successful remote
// fetch replaces the cache wholesale. Entries are expected newest-first
// and are inserted so that History() returns them in the same order.
func (st *Store) ReplaceHistory(ctx context.Context, entries []model.TaskHistoryEntry) error {
	tx, err := st.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM task_history"); err != nil {
		return fmt.Errorf("failed to clear task history: %w", err)
	}

	// Insert oldest first so descending-id reads come back newest-first.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		var goalID, goalTitle, goalCategory string
		if e.Goal != nil {
			goalID = e.Goal.GoalID
			goalTitle = e.Goal.Title
			goalCategory = e.Goal.Category
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO task_history
			 (quest, points, status, date, time, goal_id, goal_title, goal_category)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Quest, e.Points, string(e.Status), e.Date, e.Time,
			goalID, goalTitle, goalCategory)
		if err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history replace: %w", err)
	}
	return nil
}

// ClearHistory deletes the entire local log.
func (st *Store) ClearHistory(ctx context.Context) error {
	if _, err := st.conn.ExecContext(ctx, "DELETE FROM task_history"); err != nil {
		return fmt.Errorf("failed to clear task history: %w", err)
	}
	return nil
}

// HistoryCount returns the number of entries in the local log.
func (st *Store) HistoryCount(ctx context.Context) (int, error) {
	var n int
	err := st.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM task_history").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count history entries: %w", err)
	}
	return n, nil
}
