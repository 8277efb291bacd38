package models

import (
	"strings"
	"time"
)

// Global stat keys
const (
	GlobalStatActiveStreaks    = "active_streaks"
	GlobalStatCompletedStreaks = "completed_streaks"
)

// GlobalStat is a value stored under a key of the global stats table
type GlobalStat interface {
	GlobalStatKey() string
}

// Streak is a run of consecutive wins by one player across servers
type Streak struct {
	Name          string    `json:"cname"`
	Wins          []int64   `json:"wins"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	StreakBreaker *int64    `json:"streak_breaker,omitempty"`
}

// StreakName normalizes a player name for streak tracking.
// Players may use different capitalisation on different servers.
func StreakName(name string) string {
	return strings.ToLower(name)
}

// ActiveStreaks maps normalized player name to the player's open streak
type ActiveStreaks map[string]*Streak

func (ActiveStreaks) GlobalStatKey() string { return GlobalStatActiveStreaks }

// CompletedStreaks is the append-only list of finalized streaks
type CompletedStreaks []*Streak

func (CompletedStreaks) GlobalStatKey() string { return GlobalStatCompletedStreaks }
