package models

import (
	"time"
)

// GameRef points at a notable game together with the value it was ranked by
type GameRef struct {
	GameID int64 `json:"gid"`
	Value  int64 `json:"value"`
}

// PlayerStats is the aggregate kept for each player name
type PlayerStats struct {
	Games         int            `json:"games"`
	Wins          []int64        `json:"wins"`
	WinRate       float64        `json:"winrate"`
	TotalPlaytime int64          `json:"total_playtime"`
	TotalScore    int64          `json:"total_score"`
	AvgScore      float64        `json:"avg_score"`
	BoringGames   int            `json:"boring_games"`
	BoringRate    float64        `json:"boring_rate"`
	GodWins       map[string]int `json:"god_wins"`
	RaceWins      map[string]int `json:"race_wins"`
	RoleWins      map[string]int `json:"role_wins"`
	Achievements  Achievements   `json:"achievements"`
	LastActive    *time.Time     `json:"last_active"`

	FastestRealtime  *GameRef `json:"fastest_realtime,omitempty"`
	FastestTurncount *GameRef `json:"fastest_turncount,omitempty"`
	Highscore        *GameRef `json:"highscore,omitempty"`
}

// NewPlayerStats creates empty stats with every god, race and role seeded at zero wins
func NewPlayerStats(gods, races, roles []string) *PlayerStats {
	stats := &PlayerStats{
		Wins:         []int64{},
		GodWins:      make(map[string]int, len(gods)),
		RaceWins:     make(map[string]int, len(races)),
		RoleWins:     make(map[string]int, len(roles)),
		Achievements: make(Achievements),
	}
	for _, g := range gods {
		stats.GodWins[g] = 0
	}
	for _, r := range races {
		stats.RaceWins[r] = 0
	}
	for _, r := range roles {
		stats.RoleWins[r] = 0
	}
	return stats
}

// WinCount returns the number of won games
func (s *PlayerStats) WinCount() int {
	return len(s.Wins)
}

// Recompute derives the rate fields from the stored counters
func (s *PlayerStats) Recompute() {
	if s.Games == 0 {
		s.WinRate, s.AvgScore, s.BoringRate = 0, 0, 0
		return
	}
	games := float64(s.Games)
	s.WinRate = float64(len(s.Wins)) / games
	s.AvgScore = float64(s.TotalScore) / games
	s.BoringRate = float64(s.BoringGames) / games
}

// EnsureMaps fills in maps missing from stats decoded from older rows
func (s *PlayerStats) EnsureMaps() {
	if s.Wins == nil {
		s.Wins = []int64{}
	}
	if s.GodWins == nil {
		s.GodWins = make(map[string]int)
	}
	if s.RaceWins == nil {
		s.RaceWins = make(map[string]int)
	}
	if s.RoleWins == nil {
		s.RoleWins = make(map[string]int)
	}
	if s.Achievements == nil {
		s.Achievements = make(Achievements)
	}
}
