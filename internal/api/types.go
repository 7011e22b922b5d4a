package api

import (
	"strings"
	"time"

	"github.com/sidequest-dev/sidequest/internal/model"
)

// Wire shapes for the sidequest REST API. Field names follow the
// server's JSON contract, not Go conventions.

type progressRequest struct {
	Points  int `json:"points"`
	Streak  int `json:"streak"`
	LastDay int `json:"lastDay"`
}

type progressResponse struct {
	TotalPoints    int `json:"totalPoints"`
	CurrentStreak  int `json:"currentStreak"`
	LastClaimedDay int `json:"lastClaimedDay"`
}

func (r progressResponse) snapshot() model.ProgressSnapshot {
	return model.ProgressSnapshot{
		Points:         r.TotalPoints,
		Streak:         r.CurrentStreak,
		LastClaimedDay: r.LastClaimedDay,
	}
}

type seedRequest struct {
	Seed int64 `json:"seed"`
	Day  int   `json:"day"`
}

type seedResponse struct {
	CurrentSeed int64 `json:"currentSeed"`
	SeedDay     int   `json:"seedDay"`
}

func (r seedResponse) record() model.SeedRecord {
	return model.SeedRecord{Seed: r.CurrentSeed, Day: r.SeedDay}
}

type taskHistoryRequest struct {
	Quest        string `json:"quest"`
	Points       int    `json:"points"`
	Status       string `json:"status"`
	GoalID       string `json:"goalId,omitempty"`
	GoalProgress int    `json:"goalProgress,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type taskHistoryItem struct {
	Quest     string          `json:"quest"`
	Points    int             `json:"points"`
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	GoalInfo  *model.GoalInfo `json:"goalInfo,omitempty"`
}

// entry converts a wire item to the local history shape, splitting the
// server timestamp into the date and time strings the log stores.
func (it taskHistoryItem) entry() model.TaskHistoryEntry {
	date, clock := splitTimestamp(it.Timestamp)
	return model.TaskHistoryEntry{
		Quest:  it.Quest,
		Points: it.Points,
		Status: model.TaskStatus(it.Status),
		Date:   date,
		Time:   clock,
		Goal:   it.GoalInfo,
	}
}

// splitTimestamp splits an RFC 3339 timestamp into local date and
// HH:MM strings. Unparseable timestamps are passed through as the date
// so nothing is silently lost.
func splitTimestamp(ts string) (string, string) {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		// Some backends send "date time" already split by a space.
		if parts := strings.SplitN(ts, " ", 2); len(parts) == 2 {
			if _, err := time.Parse("2006-01-02", parts[0]); err == nil {
				return parts[0], parts[1]
			}
		}
		return ts, ""
	}
	local := t.Local()
	return local.Format("2006-01-02"), local.Format("15:04")
}

type rejectInfoRequest struct {
	Count int `json:"count"`
	Day   int `json:"day"`
}

type rejectInfoResponse struct {
	RejectCount   int `json:"rejectCount"`
	LastRejectDay int `json:"lastRejectDay"`
}

func (r rejectInfoResponse) info() model.RejectInfo {
	return model.RejectInfo{Count: r.RejectCount, Day: r.LastRejectDay}
}

type themeRequest struct {
	ThemeMode int `json:"themeMode"`
}

type themeResponse struct {
	ThemePreference int `json:"themePreference"`
}

type goalProgressRequest struct {
	ProgressIncrement int    `json:"progressIncrement"`
	QuestID           string `json:"questId,omitempty"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}
