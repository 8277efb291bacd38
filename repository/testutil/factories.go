package testutil

import (
	"time"

	"scoreboard/models"
)

// GameEpoch is the start time of the first game built by the factories
var GameEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// CreateTestGame creates an unscored game with default values.
// hour offsets the start time from GameEpoch.
func CreateTestGame(name, src, ktyp string, hour int) *models.GameRecord {
	start := GameEpoch.Add(time.Duration(hour) * time.Hour)
	return &models.GameRecord{
		Name:     name,
		Src:      src,
		Start:    start,
		End:      start.Add(2000 * time.Second),
		KillType: ktyp,
		Race:     "Hu",
		Role:     "Fi",
		God:      "Zin",
		Score:    1000,
		Duration: 2000,
		Turns:    3000,
		Payload: map[string]any{
			models.PayloadPotionsUsed: 0,
			models.PayloadScrollsUsed: 0,
		},
	}
}

// CreateTestWin creates an unscored winning game
func CreateTestWin(name, src string, hour int) *models.GameRecord {
	return CreateTestGame(name, src, "winning", hour)
}

// CreateTestPlayerStats creates stats with a couple of wins and achievements
func CreateTestPlayerStats() *models.PlayerStats {
	stats := models.NewPlayerStats([]string{"Zin"}, []string{"Hu"}, []string{"Fi"})
	stats.Games = 3
	stats.Wins = []int64{1, 2}
	stats.TotalScore = 3000
	stats.GodWins["Zin"] = 2
	stats.RaceWins["Hu"] = 2
	stats.RoleWins["Fi"] = 2
	stats.Achievements.Unlock(models.AchievementGreatPlayer)
	stats.Achievements.Increment(models.AchievementNoPotionOrScroll)
	stats.Highscore = &models.GameRef{GameID: 2, Value: 2000}
	last := GameEpoch.Add(3 * time.Hour)
	stats.LastActive = &last
	stats.Recompute()
	return stats
}

// CreateTestStreak creates an open streak for name over the given wins
func CreateTestStreak(name string, wins ...int64) *models.Streak {
	return &models.Streak{
		Name:  models.StreakName(name),
		Wins:  wins,
		Start: GameEpoch,
		End:   GameEpoch.Add(time.Duration(len(wins)) * time.Hour),
	}
}

// CreateTestScoringRun creates a completed run record for runID
func CreateTestScoringRun(runID string) *models.ScoringRun {
	return models.NewScoringRun(&models.ScoringSummary{
		RunID:    runID,
		Scored:   40,
		Players:  map[string]struct{}{"Foo": {}, "Bar": {}},
		Duration: 1250 * time.Millisecond,
	}, false, nil)
}
