package service

import (
	"context"
	"errors"
	"testing"

	"scoreboard/config"
	"scoreboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func achievementTables() *config.Tables {
	tables := config.NewTables([]string{"Hu", "Mi"}, []string{"Fi", "Wz"}, []string{"Zin", "Trog"})
	tables.RaceToGreatRace["Hu"] = "greathuman"
	tables.RoleToGreatRole["Fi"] = "greatfighter"
	return tables
}

// recordWin applies a win to stats the way the scoring loop does before evaluation
func recordWin(stats *models.PlayerStats, game *models.GameRecord) {
	stats.Games++
	stats.Wins = append(stats.Wins, game.ID)
	if game.God != "" {
		stats.GodWins[game.God]++
	}
	stats.RaceWins[game.Race]++
	stats.RoleWins[game.Role]++
}

func newWin(id int64, race, role, god string) *models.GameRecord {
	return &models.GameRecord{ID: id, Name: "Foo", Src: "cao", Race: race, Role: role, God: god, Outcome: models.OutcomeWinning}
}

func changeIDs(changes []AchievementChange) []string {
	ids := make([]string, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestAchievementEvaluator_Polytheist(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	store := newMemoryStore()
	evaluator := NewAchievementEvaluator(tables, store.GameRepository(), "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)

	first := newWin(1, "Hu", "Wz", "Zin")
	store.addGame(first)
	recordWin(stats, first)
	changes, err := evaluator.Evaluate(ctx, stats, first, models.GamePayload{})
	require.NoError(t, err)
	assert.NotContains(t, changeIDs(changes), models.AchievementPolytheist)

	second := newWin(2, "Hu", "Wz", "Trog")
	store.addGame(second)
	recordWin(stats, second)
	changes, err = evaluator.Evaluate(ctx, stats, second, models.GamePayload{})
	require.NoError(t, err)
	assert.Contains(t, changeIDs(changes), models.AchievementPolytheist)
	assert.True(t, stats.Achievements.Has(models.AchievementPolytheist))

	// Already held: no second change
	third := newWin(3, "Hu", "Wz", "Trog")
	store.addGame(third)
	recordWin(stats, third)
	changes, err = evaluator.Evaluate(ctx, stats, third, models.GamePayload{})
	require.NoError(t, err)
	assert.NotContains(t, changeIDs(changes), models.AchievementPolytheist)
}

func TestAchievementEvaluator_UnplayableGodNeverCompletes(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	store := newMemoryStore()
	evaluator := NewAchievementEvaluator(tables, store.GameRepository(), "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)
	stats.GodWins["Zin"] = 1
	stats.GodWins["Trog"] = 1

	game := newWin(1, "Mi", "Wz", "Xom")
	store.addGame(game)
	recordWin(stats, game)

	_, err := evaluator.Evaluate(ctx, stats, game, models.GamePayload{})
	require.NoError(t, err)
	assert.False(t, stats.Achievements.Has(models.AchievementPolytheist))
}

func TestAchievementEvaluator_GreatAndGreaterPlayer(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	store := newMemoryStore()
	evaluator := NewAchievementEvaluator(tables, store.GameRepository(), "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)

	for _, g := range []*models.GameRecord{
		newWin(1, "Hu", "Fi", ""),
		newWin(2, "Mi", "Fi", ""),
	} {
		store.addGame(g)
		recordWin(stats, g)
		_, err := evaluator.Evaluate(ctx, stats, g, models.GamePayload{})
		require.NoError(t, err)
	}
	assert.True(t, stats.Achievements.Has(models.AchievementGreatPlayer))
	assert.False(t, stats.Achievements.Has(models.AchievementGreaterPlayer))

	last := newWin(3, "Mi", "Wz", "")
	store.addGame(last)
	recordWin(stats, last)
	changes, err := evaluator.Evaluate(ctx, stats, last, models.GamePayload{})
	require.NoError(t, err)
	assert.Contains(t, changeIDs(changes), models.AchievementGreaterPlayer)
}

func TestAchievementEvaluator_GreatRaceAndRole(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	store := newMemoryStore()
	evaluator := NewAchievementEvaluator(tables, store.GameRepository(), "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)

	// Two Hu wins with the same role pass the count prefilter but do not cover every role
	for _, g := range []*models.GameRecord{
		newWin(1, "Hu", "Fi", ""),
		newWin(2, "Hu", "Fi", ""),
	} {
		store.addGame(g)
		recordWin(stats, g)
		_, err := evaluator.Evaluate(ctx, stats, g, models.GamePayload{})
		require.NoError(t, err)
	}
	assert.False(t, stats.Achievements.Has("greathuman"))

	third := newWin(3, "Hu", "Wz", "")
	store.addGame(third)
	recordWin(stats, third)
	changes, err := evaluator.Evaluate(ctx, stats, third, models.GamePayload{})
	require.NoError(t, err)
	assert.Contains(t, changeIDs(changes), "greathuman")
	assert.False(t, stats.Achievements.Has("greatfighter"))

	fourth := newWin(4, "Mi", "Fi", "")
	store.addGame(fourth)
	recordWin(stats, fourth)
	changes, err = evaluator.Evaluate(ctx, stats, fourth, models.GamePayload{})
	require.NoError(t, err)
	assert.Contains(t, changeIDs(changes), "greatfighter")
}

func TestAchievementEvaluator_GreatRaceLookupError(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	games := new(MockGameRepository)
	evaluator := NewAchievementEvaluator(tables, games, "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)
	stats.Wins = []int64{1}
	stats.RaceWins["Hu"] = 1

	games.On("GetByIDs", ctx, mock.Anything).Return(nil, NewStoreError("get games", errors.New("connection reset")))

	game := newWin(2, "Hu", "Wz", "")
	recordWin(stats, game)

	_, err := evaluator.Evaluate(ctx, stats, game, models.GamePayload{})
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}

func TestAchievementEvaluator_WinThresholds(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	store := newMemoryStore()
	evaluator := NewAchievementEvaluator(tables, store.GameRepository(), "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)

	for i := int64(1); i <= 100; i++ {
		g := newWin(i, "Hu", "Fi", "")
		store.addGame(g)
		recordWin(stats, g)
		_, err := evaluator.Evaluate(ctx, stats, g, models.GamePayload{})
		require.NoError(t, err)

		switch i {
		case 9:
			assert.False(t, stats.Achievements.Has(models.AchievementGoodPlayer))
		case 10:
			assert.True(t, stats.Achievements.Has(models.AchievementGoodPlayer))
		case 99:
			assert.False(t, stats.Achievements.Has(models.AchievementCenturyPlayer))
		}
	}
	assert.True(t, stats.Achievements.Has(models.AchievementCenturyPlayer))
}

func TestAchievementEvaluator_Counters(t *testing.T) {
	ctx := context.Background()
	tables := achievementTables()
	store := newMemoryStore()
	evaluator := NewAchievementEvaluator(tables, store.GameRepository(), "27")
	stats := models.NewPlayerStats(tables.PlayableGods, tables.PlayableRaces, tables.PlayableRoles)

	zero := int64(0)
	one := int64(1)
	deepest := "27"
	shallow := "26"

	cases := []struct {
		payload    models.GamePayload
		clean      int64
		clearedZig int64
	}{
		{models.GamePayload{PotionsUsed: &zero, ScrollsUsed: &zero, ZigDeepest: &deepest}, 1, 1},
		{models.GamePayload{PotionsUsed: &zero, ScrollsUsed: &zero, ZigDeepest: &shallow}, 2, 1},
		{models.GamePayload{PotionsUsed: &zero, ScrollsUsed: &one}, 2, 1},
		{models.GamePayload{PotionsUsed: &zero}, 2, 1},
		{models.GamePayload{ZigDeepest: &deepest}, 2, 2},
	}

	for i, tc := range cases {
		g := newWin(int64(i+1), "Mi", "Wz", "")
		store.addGame(g)
		recordWin(stats, g)
		_, err := evaluator.Evaluate(ctx, stats, g, tc.payload)
		require.NoError(t, err)

		assert.Equal(t, tc.clean, stats.Achievements[models.AchievementNoPotionOrScroll].Count(), "game %d", i+1)
		assert.Equal(t, tc.clearedZig, stats.Achievements[models.AchievementClearedZig].Count(), "game %d", i+1)
	}
	assert.True(t, stats.Achievements[models.AchievementClearedZig].IsCounter())
}
