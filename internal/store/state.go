package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// Persisted state keys. These names are part of the on-disk format and
// must not change without a migration.
const (
	keyTotalPoints    = "total_points"
	keyCurrentStreak  = "current_streak"
	keyLastClaimedDay = "last_claimed_day"
	keyCurrentSeed    = "current_seed"
	keySeedDay        = "seed_day"
	keyRejectCount    = "reject_count"
	keyLastRejectDay  = "last_reject_day"
	keyThemeMode      = "theme_mode"
	keyAuthToken      = "jwt_token"
)

// Progress reads the persisted progress snapshot.
// A store that has never been written returns {0, 0, UnsetDay}.
func (st *Store) Progress(ctx context.Context) (model.ProgressSnapshot, error) {
	p := model.ProgressSnapshot{LastClaimedDay: model.UnsetDay}

	points, err := st.intKey(ctx, keyTotalPoints, 0)
	if err != nil {
		return p, err
	}
	streak, err := st.intKey(ctx, keyCurrentStreak, 0)
	if err != nil {
		return p, err
	}
	lastDay, err := st.intKey(ctx, keyLastClaimedDay, model.UnsetDay)
	if err != nil {
		return p, err
	}

	p.Points = points
	p.Streak = streak
	p.LastClaimedDay = lastDay
	return p, nil
}

// SaveProgress persists the snapshot and notifies watchers.
// All three keys are written in one transaction.
func (st *Store) SaveProgress(ctx context.Context, p model.ProgressSnapshot) error {
	err := st.setKeys(ctx, map[string]string{
		keyTotalPoints:    strconv.Itoa(p.Points),
		keyCurrentStreak:  strconv.Itoa(p.Streak),
		keyLastClaimedDay: strconv.Itoa(p.LastClaimedDay),
	})
	if err != nil {
		return err
	}

	st.progress.publish(p)
	return nil
}

// WatchProgress returns a live channel of progress snapshots, starting
// with the current value. The cancel func ends the subscription.
func (st *Store) WatchProgress(ctx context.Context) (<-chan model.ProgressSnapshot, func(), error) {
	p, err := st.Progress(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := st.progress.subscribe(8, p)
	return ch, cancel, nil
}

// Seed reads the persisted seed record. A store that has never been
// written returns a record with Day == UnsetDay, which is valid for no
// calendar day.
func (st *Store) Seed(ctx context.Context) (model.SeedRecord, error) {
	rec := model.SeedRecord{Day: model.UnsetDay}

	raw, ok, err := st.getKey(ctx, keyCurrentSeed)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, nil
	}

	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return rec, fmt.Errorf("corrupt seed value %q: %w", raw, err)
	}

	day, err := st.intKey(ctx, keySeedDay, model.UnsetDay)
	if err != nil {
		return rec, err
	}

	rec.Seed = seed
	rec.Day = day
	return rec, nil
}

// SaveSeed persists the seed record and notifies watchers.
func (st *Store) SaveSeed(ctx context.Context, rec model.SeedRecord) error {
	err := st.setKeys(ctx, map[string]string{
		keyCurrentSeed: strconv.FormatInt(rec.Seed, 10),
		keySeedDay:     strconv.Itoa(rec.Day),
	})
	if err != nil {
		return err
	}

	st.seed.publish(rec)
	return nil
}

// WatchSeed returns a live channel of seed records, starting with the
// current value.
func (st *Store) WatchSeed(ctx context.Context) (<-chan model.SeedRecord, func(), error) {
	rec, err := st.Seed(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := st.seed.subscribe(8, rec)
	return ch, cancel, nil
}

// RejectInfo reads the persisted reroll counter.
func (st *Store) RejectInfo(ctx context.Context) (model.RejectInfo, error) {
	info := model.RejectInfo{Day: model.UnsetDay}

	count, err := st.intKey(ctx, keyRejectCount, 0)
	if err != nil {
		return info, err
	}
	day, err := st.intKey(ctx, keyLastRejectDay, model.UnsetDay)
	if err != nil {
		return info, err
	}

	info.Count = count
	info.Day = day
	return info, nil
}

// SaveRejectInfo persists the reroll counter and notifies watchers.
func (st *Store) SaveRejectInfo(ctx context.Context, info model.RejectInfo) error {
	err := st.setKeys(ctx, map[string]string{
		keyRejectCount:   strconv.Itoa(info.Count),
		keyLastRejectDay: strconv.Itoa(info.Day),
	})
	if err != nil {
		return err
	}

	st.reject.publish(info)
	return nil
}

// WatchRejectInfo returns a live channel of reroll counters, starting
// with the current value.
func (st *Store) WatchRejectInfo(ctx context.Context) (<-chan model.RejectInfo, func(), error) {
	info, err := st.RejectInfo(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := st.reject.subscribe(8, info)
	return ch, cancel, nil
}

// Theme reads the persisted theme preference, defaulting to system.
func (st *Store) Theme(ctx context.Context) (model.ThemeMode, error) {
	v, err := st.intKey(ctx, keyThemeMode, int(model.ThemeSystem))
	if err != nil {
		return model.ThemeSystem, err
	}
	return model.ThemeMode(v), nil
}

// SaveTheme persists the theme preference and notifies watchers.
func (st *Store) SaveTheme(ctx context.Context, mode model.ThemeMode) error {
	err := st.setKeys(ctx, map[string]string{
		keyThemeMode: strconv.Itoa(int(mode)),
	})
	if err != nil {
		return err
	}

	st.theme.publish(mode)
	return nil
}

// WatchTheme returns a live channel of theme preferences, starting with
// the current value.
func (st *Store) WatchTheme(ctx context.Context) (<-chan model.ThemeMode, func(), error) {
	mode, err := st.Theme(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := st.theme.subscribe(8, mode)
	return ch, cancel, nil
}

// Token reads the persisted auth token. An empty string means logged out.
func (st *Store) Token(ctx context.Context) (string, error) {
	raw, _, err := st.getKey(ctx, keyAuthToken)
	if err != nil {
		return "", err
	}
	return raw, nil
}

// SaveToken persists the auth token.
func (st *Store) SaveToken(ctx context.Context, token string) error {
	return st.setKeys(ctx, map[string]string{keyAuthToken: token})
}

// ClearToken removes the persisted auth token.
func (st *Store) ClearToken(ctx context.Context) error {
	return st.deleteKey(ctx, keyAuthToken)
}

// intKey reads a state key as an integer, returning def when unset.
func (st *Store) intKey(ctx context.Context, key string, def int) (int, error) {
	raw, ok, err := st.getKey(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("corrupt value for %s: %q: %w", key, raw, err)
	}
	return v, nil
}
