// Package model defines the data kinds tracked by sidequest.
//
// Every kind exists in two copies: a local durable one (authoritative for
// immediate reads) and a remote one (authoritative across devices). The
// engine package reconciles the two; model types carry no behavior beyond
// validation and day arithmetic.
package model

import "time"

// UnsetDay marks a day-of-year field that has never been written.
const UnsetDay = -1

// DayOfYear returns the calendar day counter used for streaks, seed
// rollover and reject-count resets.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// ProgressSnapshot is the user's quest progress. Points and streak only
// grow; LastClaimedDay is a day-of-year, UnsetDay when no quest has ever
// been claimed.
type ProgressSnapshot struct {
	Points         int `json:"points"`
	Streak         int `json:"streak"`
	LastClaimedDay int `json:"lastDay"`
}

// SeedRecord identifies the deterministic daily quest selection.
// A seed is only valid for the day it was generated for.
type SeedRecord struct {
	Seed int64 `json:"seed"`
	Day  int   `json:"day"`
}

// ValidFor reports whether the seed may be used on the given day.
func (r SeedRecord) ValidFor(day int) bool {
	return r.Day == day
}

// TaskStatus is the outcome recorded for a quest in the history log.
type TaskStatus string

const (
	// StatusCompleted marks a quest the user finished.
	StatusCompleted TaskStatus = "COMPLETED"
	// StatusRejected marks a quest the user rerolled away.
	StatusRejected TaskStatus = "REJECTED"
)

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	return s == StatusCompleted || s == StatusRejected
}

// GoalInfo links a history entry to a long-running goal.
type GoalInfo struct {
	GoalID   string `json:"goalId"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
}

// TaskHistoryEntry is one record in the append-only quest log,
// ordered newest-first.
type TaskHistoryEntry struct {
	Quest  string     `json:"quest"`
	Points int        `json:"points"`
	Status TaskStatus `json:"status"`
	Date   string     `json:"date"`
	Time   string     `json:"time"`
	Goal   *GoalInfo  `json:"goalInfo,omitempty"`
}

// RejectInfo counts same-day quest rerolls. The count resets implicitly
// when Day moves on.
type RejectInfo struct {
	Count int `json:"count"`
	Day   int `json:"day"`
}

// CountFor returns the reroll count as of the given day. A stored record
// from an earlier day reads as zero.
func (r RejectInfo) CountFor(day int) int {
	if r.Day != day {
		return 0
	}
	return r.Count
}

// ThemeMode is the UI theme preference. Last write wins.
type ThemeMode int

const (
	// ThemeLight forces the light palette.
	ThemeLight ThemeMode = 0
	// ThemeDark forces the dark palette.
	ThemeDark ThemeMode = 1
	// ThemeSystem follows the terminal's background.
	ThemeSystem ThemeMode = 2
)

// IsValid reports whether the mode is one of the known values.
func (m ThemeMode) IsValid() bool {
	return m >= ThemeLight && m <= ThemeSystem
}

// String returns a human-readable representation of the mode.
func (m ThemeMode) String() string {
	switch m {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	case ThemeSystem:
		return "system"
	default:
		return "unknown"
	}
}
