package service

import (
	"context"
	"fmt"

	"scoreboard/config"
	"scoreboard/models"
)

const (
	goodPlayerWins    = 10
	centuryPlayerWins = 100
)

// AchievementChange is an achievement newly unlocked, or a counter that moved, by one game
type AchievementChange struct {
	ID    string
	Count int64 // counter value after the change; 0 for plain unlocks
}

// AchievementEvaluator applies the achievement rules to a player's stats after a win.
// It never removes an achievement.
type AchievementEvaluator struct {
	tables      *config.Tables
	games       GameRepository
	zigMaxDepth string
}

// NewAchievementEvaluator creates an evaluator. games is used to look up the race and
// role of earlier wins for the great race and great role checks.
func NewAchievementEvaluator(tables *config.Tables, games GameRepository, zigMaxDepth string) *AchievementEvaluator {
	return &AchievementEvaluator{
		tables:      tables,
		games:       games,
		zigMaxDepth: zigMaxDepth,
	}
}

// Evaluate updates stats.Achievements for the won game.
// stats must already include game in its wins and god/race/role win counts.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, stats *models.PlayerStats, game *models.GameRecord, payload models.GamePayload) ([]AchievementChange, error) {
	achievements := stats.Achievements
	var changes []AchievementChange
	unlock := func(id string) {
		if achievements.Unlock(id) {
			changes = append(changes, AchievementChange{ID: id})
		}
	}

	// Only a god's first win can complete the set
	if e.tables.IsPlayableGod(game.God) && stats.GodWins[game.God] == 1 &&
		allWon(e.tables.PlayableGods, stats.GodWins) {
		unlock(models.AchievementPolytheist)
	}

	if stats.RaceWins[game.Race] == 1 && allWon(e.tables.PlayableRaces, stats.RaceWins) {
		unlock(models.AchievementGreatPlayer)
	}

	if achievements.Has(models.AchievementGreatPlayer) && allWon(e.tables.PlayableRoles, stats.RoleWins) {
		unlock(models.AchievementGreaterPlayer)
	}

	wins := stats.WinCount()
	if wins >= goodPlayerWins {
		unlock(models.AchievementGoodPlayer)
	}
	if wins >= centuryPlayerWins {
		unlock(models.AchievementCenturyPlayer)
	}

	var winGames []*models.GameRecord
	loadWins := func() ([]*models.GameRecord, error) {
		if winGames != nil {
			return winGames, nil
		}
		games, err := e.games.GetByIDs(ctx, stats.Wins)
		if err != nil {
			return nil, fmt.Errorf("failed to load wins of %s: %w", game.Name, err)
		}
		winGames = games
		return winGames, nil
	}

	if id, ok := e.tables.RaceToGreatRace[game.Race]; ok && !achievements.Has(id) &&
		stats.RaceWins[game.Race] >= len(e.tables.PlayableRoles) {
		games, err := loadWins()
		if err != nil {
			return changes, err
		}
		roles := make(map[string]struct{})
		for _, g := range games {
			if g.Race == game.Race {
				roles[g.Role] = struct{}{}
			}
		}
		if covers(e.tables.PlayableRoles, roles) {
			unlock(id)
		}
	}

	if id, ok := e.tables.RoleToGreatRole[game.Role]; ok && !achievements.Has(id) &&
		stats.RoleWins[game.Role] >= len(e.tables.PlayableRaces) {
		games, err := loadWins()
		if err != nil {
			return changes, err
		}
		races := make(map[string]struct{})
		for _, g := range games {
			if g.Role == game.Role {
				races[g.Race] = struct{}{}
			}
		}
		if covers(e.tables.PlayableRaces, races) {
			unlock(id)
		}
	}

	if payload.NoConsumables() {
		n := achievements.Increment(models.AchievementNoPotionOrScroll)
		changes = append(changes, AchievementChange{ID: models.AchievementNoPotionOrScroll, Count: n})
	}

	if payload.ZigDeepest != nil && *payload.ZigDeepest == e.zigMaxDepth {
		n := achievements.Increment(models.AchievementClearedZig)
		changes = append(changes, AchievementChange{ID: models.AchievementClearedZig, Count: n})
	}

	return changes, nil
}

// allWon reports whether every domain value has at least one win
func allWon(domain []string, wins map[string]int) bool {
	for _, v := range domain {
		if wins[v] < 1 {
			return false
		}
	}
	return true
}

func covers(domain []string, got map[string]struct{}) bool {
	for _, v := range domain {
		if _, ok := got[v]; !ok {
			return false
		}
	}
	return true
}
