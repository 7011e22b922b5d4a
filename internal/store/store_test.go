package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// setupTestStore creates a temporary store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return st
}

func TestProgressDefaults(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	p, err := st.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}

	if p.Points != 0 || p.Streak != 0 || p.LastClaimedDay != model.UnsetDay {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	want := model.ProgressSnapshot{Points: 150, Streak: 3, LastClaimedDay: 42}
	if err := st.SaveProgress(ctx, want); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}

	got, err := st.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if got != want {
		t.Errorf("Progress = %+v, want %+v", got, want)
	}
}

func TestProgressSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	st, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	want := model.ProgressSnapshot{Points: 99, Streak: 7, LastClaimedDay: 200}
	if err := st.SaveProgress(ctx, want); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer st2.Close()

	got, err := st2.Progress(ctx)
	if err != nil {
		t.Fatalf("Progress after reopen failed: %v", err)
	}
	if got != want {
		t.Errorf("Progress after reopen = %+v, want %+v", got, want)
	}
}

func TestWatchProgressEmitsCurrentThenUpdates(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	initial := model.ProgressSnapshot{Points: 10, Streak: 1, LastClaimedDay: 5}
	if err := st.SaveProgress(ctx, initial); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}

	ch, cancel, err := st.WatchProgress(ctx)
	if err != nil {
		t.Fatalf("WatchProgress failed: %v", err)
	}
	defer cancel()

	got := recvProgress(t, ch)
	if got != initial {
		t.Errorf("first emission = %+v, want current value %+v", got, initial)
	}

	updated := model.ProgressSnapshot{Points: 20, Streak: 2, LastClaimedDay: 6}
	if err := st.SaveProgress(ctx, updated); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}

	got = recvProgress(t, ch)
	if got != updated {
		t.Errorf("second emission = %+v, want %+v", got, updated)
	}
}

func TestWatchCancelClosesChannel(t *testing.T) {
	st := setupTestStore(t)

	ch, cancel, err := st.WatchTheme(context.Background())
	if err != nil {
		t.Fatalf("WatchTheme failed: %v", err)
	}

	// Drain the initial emission, then cancel twice (must be safe).
	<-ch
	cancel()
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after cancel")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after cancel")
	}
}

func TestCloseEndsWatchSubscriptions(t *testing.T) {
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}

	ch, cancel, err := st.WatchProgress(context.Background())
	if err != nil {
		st.Close()
		t.Fatalf("WatchProgress failed: %v", err)
	}

	// Drain the initial emission, then close the store under the
	// still-open watch.
	<-ch
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to be closed after store Close")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after store Close")
	}

	// The watcher's own cancel must still be safe afterwards.
	cancel()
}

func TestSeedRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	rec, err := st.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if rec.Day != model.UnsetDay {
		t.Errorf("fresh store seed day = %d, want %d", rec.Day, model.UnsetDay)
	}

	want := model.SeedRecord{Seed: 987654321123456789, Day: 123}
	if err := st.SaveSeed(ctx, want); err != nil {
		t.Fatalf("SaveSeed failed: %v", err)
	}

	got, err := st.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if got != want {
		t.Errorf("Seed = %+v, want %+v", got, want)
	}
}

func TestRejectInfoRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	want := model.RejectInfo{Count: 2, Day: 77}
	if err := st.SaveRejectInfo(ctx, want); err != nil {
		t.Fatalf("SaveRejectInfo failed: %v", err)
	}

	got, err := st.RejectInfo(ctx)
	if err != nil {
		t.Fatalf("RejectInfo failed: %v", err)
	}
	if got != want {
		t.Errorf("RejectInfo = %+v, want %+v", got, want)
	}
}

func TestThemeRoundTrip(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	mode, err := st.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme failed: %v", err)
	}
	if mode != model.ThemeSystem {
		t.Errorf("default theme = %v, want system", mode)
	}

	if err := st.SaveTheme(ctx, model.ThemeDark); err != nil {
		t.Fatalf("SaveTheme failed: %v", err)
	}

	mode, err = st.Theme(ctx)
	if err != nil {
		t.Fatalf("Theme failed: %v", err)
	}
	if mode != model.ThemeDark {
		t.Errorf("theme = %v, want dark", mode)
	}
}

func TestTokenLifecycle(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	token, err := st.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Errorf("fresh store token = %q, want empty", token)
	}

	if err := st.SaveToken(ctx, "abc.def.ghi"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	token, err = st.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Errorf("token = %q, want abc.def.ghi", token)
	}

	if err := st.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken failed: %v", err)
	}

	token, err = st.Token(ctx)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if token != "" {
		t.Errorf("token after clear = %q, want empty", token)
	}
}

func TestHistoryAppendOrder(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	first := model.TaskHistoryEntry{
		Quest: "Walk 5000 steps", Points: 10,
		Status: model.StatusCompleted, Date: "2026-08-30", Time: "09:15",
	}
	second := model.TaskHistoryEntry{
		Quest: "Read 20 pages", Points: 15,
		Status: model.StatusCompleted, Date: "2026-08-30", Time: "21:40",
		Goal: &model.GoalInfo{GoalID: "g-1", Title: "Finish the novel", Category: "reading"},
	}

	if err := st.AppendHistory(ctx, first); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}
	if err := st.AppendHistory(ctx, second); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	entries, err := st.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Quest != second.Quest {
		t.Errorf("entries[0].Quest = %q, want %q", entries[0].Quest, second.Quest)
	}
	if entries[0].Goal == nil || entries[0].Goal.GoalID != "g-1" {
		t.Errorf("goal linkage not preserved: %+v", entries[0].Goal)
	}
	if entries[1].Quest != first.Quest {
		t.Errorf("entries[1].Quest = %q, want %q", entries[1].Quest, first.Quest)
	}
	if entries[1].Goal != nil {
		t.Errorf("entries[1].Goal = %+v, want nil", entries[1].Goal)
	}
}

func TestReplaceHistoryPreservesOrder(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	// Pre-existing local entry that must be wiped.
	old := model.TaskHistoryEntry{
		Quest: "stale local entry", Points: 1,
		Status: model.StatusRejected, Date: "2026-08-01", Time: "08:00",
	}
	if err := st.AppendHistory(ctx, old); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	remote := []model.TaskHistoryEntry{
		{Quest: "newest", Points: 30, Status: model.StatusCompleted, Date: "2026-08-30", Time: "20:00"},
		{Quest: "middle", Points: 20, Status: model.StatusCompleted, Date: "2026-08-29", Time: "19:00"},
		{Quest: "oldest", Points: 10, Status: model.StatusRejected, Date: "2026-08-28", Time: "18:00"},
	}

	if err := st.ReplaceHistory(ctx, remote); err != nil {
		t.Fatalf("ReplaceHistory failed: %v", err)
	}

	entries, err := st.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"newest", "middle", "oldest"} {
		if entries[i].Quest != want {
			t.Errorf("entries[%d].Quest = %q, want %q", i, entries[i].Quest, want)
		}
	}
}

func TestClearHistory(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	e := model.TaskHistoryEntry{
		Quest: "anything", Points: 5,
		Status: model.StatusCompleted, Date: "2026-08-30", Time: "12:00",
	}
	if err := st.AppendHistory(ctx, e); err != nil {
		t.Fatalf("AppendHistory failed: %v", err)
	}

	if err := st.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}

	n, err := st.HistoryCount(ctx)
	if err != nil {
		t.Fatalf("HistoryCount failed: %v", err)
	}
	if n != 0 {
		t.Errorf("HistoryCount = %d, want 0", n)
	}
}

// recvProgress receives one progress emission or fails the test.
func recvProgress(t *testing.T, ch <-chan model.ProgressSnapshot) model.ProgressSnapshot {
	t.Helper()

	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress emission")
		return model.ProgressSnapshot{}
	}
}
