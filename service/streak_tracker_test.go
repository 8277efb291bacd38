package service

import (
	"context"
	"testing"
	"time"

	"scoreboard/config"
	"scoreboard/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var streakEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type streakFixture struct {
	ctx     context.Context
	store   *memoryStore
	svc     *ScoringService
	tracker *StreakTracker
}

func newStreakFixture(t *testing.T) *streakFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewScoringService(store, achievementTables(), ScoringOptions{Grief: config.DefaultGriefConfig()}, nil)
	require.NoError(t, svc.guard.Preload(ctx))
	return &streakFixture{ctx: ctx, store: store, svc: svc, tracker: svc.streaks}
}

// play adds a game starting hour hours after the epoch and lasting dur seconds
func (f *streakFixture) play(t *testing.T, name, src string, hour int, won bool, dur, turns int64) *models.GameRecord {
	t.Helper()
	outcome := models.OutcomeDeath
	if won {
		outcome = models.OutcomeWinning
	}
	start := streakEpoch.Add(time.Duration(hour) * time.Hour)
	g := &models.GameRecord{
		Name:     name,
		Src:      src,
		Start:    start,
		End:      start.Add(time.Duration(dur) * time.Second),
		Outcome:  outcome,
		Race:     "Hu",
		Role:     "Fi",
		Duration: dur,
		Turns:    turns,
	}
	f.store.addGame(g)
	return g
}

func (f *streakFixture) score(t *testing.T, g *models.GameRecord, payload models.GamePayload) (StreakTransition, *models.Streak) {
	t.Helper()
	transition, streak, err := f.tracker.Score(f.ctx, g, payload)
	require.NoError(t, err)
	return transition, streak
}

func (f *streakFixture) completed(t *testing.T) models.CompletedStreaks {
	t.Helper()
	completed, err := f.tracker.completedStreaks(f.ctx)
	require.NoError(t, err)
	return completed
}

func potions(n int64) models.GamePayload {
	return models.GamePayload{PotionsUsed: &n}
}

func TestStreakTracker_WinsStartAndExtend(t *testing.T) {
	f := newStreakFixture(t)

	first := f.play(t, "Foo", "cao", 0, true, 2000, 3000)
	transition, streak := f.score(t, first, models.GamePayload{})
	assert.Equal(t, StreakStarted, transition)
	assert.Equal(t, "foo", streak.Name)
	assert.Equal(t, first.End, streak.Start)

	// Same player under different capitalisation on another server
	second := f.play(t, "FOO", "cko", 2, true, 1800, 2800)
	transition, streak = f.score(t, second, models.GamePayload{})
	assert.Equal(t, StreakExtended, transition)
	assert.Equal(t, []int64{first.ID, second.ID}, streak.Wins)
	assert.Equal(t, second.End, streak.End)

	active, err := f.tracker.ActiveStreak(f.ctx, "Foo")
	require.NoError(t, err)
	assert.Same(t, streak, active)
}

func TestStreakTracker_LossWithoutStreak(t *testing.T) {
	f := newStreakFixture(t)

	loss := f.play(t, "Foo", "cao", 0, false, 3000, 9000)
	transition, streak := f.score(t, loss, models.GamePayload{})
	assert.Equal(t, StreakNone, transition)
	assert.Nil(t, streak)
}

func TestStreakTracker_SingleWinDiscarded(t *testing.T) {
	f := newStreakFixture(t)

	win := f.play(t, "Foo", "cao", 0, true, 2000, 3000)
	f.score(t, win, models.GamePayload{})

	loss := f.play(t, "Foo", "cao", 2, false, 100, 50)
	transition, _ := f.score(t, loss, models.GamePayload{})
	assert.Equal(t, StreakDiscarded, transition)

	active, err := f.tracker.ActiveStreak(f.ctx, "Foo")
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Empty(t, f.completed(t))
	assert.False(t, f.svc.IsBlacklisted("Foo", "cao"))
}

func TestStreakTracker_GameBeforeStreakStartIgnored(t *testing.T) {
	f := newStreakFixture(t)

	win := f.play(t, "Foo", "cao", 5, true, 2000, 3000)
	f.score(t, win, models.GamePayload{})

	early := f.play(t, "Foo", "cko", 1, false, 3000, 9000)
	transition, streak := f.score(t, early, models.GamePayload{})
	assert.Equal(t, StreakIgnored, transition)
	assert.Equal(t, []int64{win.ID}, streak.Wins)
}

func TestStreakTracker_ShortLossWithPotionsIsGrief(t *testing.T) {
	f := newStreakFixture(t)

	f.score(t, f.play(t, "Foo", "cao", 0, true, 2000, 3000), models.GamePayload{})
	f.score(t, f.play(t, "Foo", "cao", 2, true, 1800, 2800), models.GamePayload{})

	loss := f.play(t, "Foo", "cao", 4, false, 500, 5000)
	transition, streak := f.score(t, loss, potions(1))

	assert.Equal(t, StreakGriefed, transition)
	assert.Len(t, streak.Wins, 2)
	assert.Nil(t, streak.StreakBreaker)

	active, err := f.tracker.ActiveStreak(f.ctx, "Foo")
	require.NoError(t, err)
	assert.Same(t, streak, active)
	assert.Empty(t, f.completed(t))

	assert.True(t, f.svc.IsBlacklisted("Foo", "cao"))
	require.Len(t, f.store.blacklist, 1)
	assert.Equal(t, "Foo", f.store.blacklist[0].Name)
	assert.Equal(t, "cao", f.store.blacklist[0].Src)
}

func TestStreakTracker_LongerLossWithPotionsCompletes(t *testing.T) {
	f := newStreakFixture(t)

	f.score(t, f.play(t, "Foo", "cao", 0, true, 2000, 3000), models.GamePayload{})
	f.score(t, f.play(t, "Foo", "cao", 2, true, 1800, 2800), models.GamePayload{})

	loss := f.play(t, "Foo", "cao", 4, false, 700, 2000)
	transition, streak := f.score(t, loss, potions(1))

	assert.Equal(t, StreakCompleted, transition)
	require.NotNil(t, streak.StreakBreaker)
	assert.Equal(t, loss.ID, *streak.StreakBreaker)

	active, err := f.tracker.ActiveStreak(f.ctx, "Foo")
	require.NoError(t, err)
	assert.Nil(t, active)

	completed := f.completed(t)
	require.Len(t, completed, 1)
	assert.Len(t, completed[0].Wins, 2)
	assert.False(t, f.svc.IsBlacklisted("Foo", "cao"))
}

func TestStreakTracker_CleanLossThresholds(t *testing.T) {
	cases := []struct {
		name     string
		dur      int64
		turns    int64
		expected StreakTransition
	}{
		{"short", 1000, 8000, StreakGriefed},
		{"few turns", 3000, 4000, StreakGriefed},
		{"long enough", 1200, 5000, StreakCompleted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newStreakFixture(t)
			f.score(t, f.play(t, "Foo", "cao", 0, true, 2000, 3000), models.GamePayload{})
			f.score(t, f.play(t, "Foo", "cao", 2, true, 1800, 2800), models.GamePayload{})

			loss := f.play(t, "Foo", "cao", 4, false, tc.dur, tc.turns)
			transition, _ := f.score(t, loss, potions(0))
			assert.Equal(t, tc.expected, transition)
		})
	}
}

func TestStreakTracker_FirstGameOnServerIsExempt(t *testing.T) {
	f := newStreakFixture(t)

	f.score(t, f.play(t, "Foo", "cao", 0, true, 2000, 3000), models.GamePayload{})
	f.score(t, f.play(t, "Foo", "cao", 2, true, 1800, 2800), models.GamePayload{})

	// First ever game on cko, far below every threshold
	loss := f.play(t, "Foo", "cko", 4, false, 60, 20)
	transition, _ := f.score(t, loss, potions(3))

	assert.Equal(t, StreakCompleted, transition)
	assert.False(t, f.svc.IsBlacklisted("Foo", "cko"))
}

func TestStreakTracker_ExemptionDisabled(t *testing.T) {
	f := newStreakFixture(t)
	f.tracker.grief.ExemptFirstGame = false

	f.score(t, f.play(t, "Foo", "cao", 0, true, 2000, 3000), models.GamePayload{})
	f.score(t, f.play(t, "Foo", "cao", 2, true, 1800, 2800), models.GamePayload{})

	loss := f.play(t, "Foo", "cko", 4, false, 60, 20)
	transition, _ := f.score(t, loss, potions(3))

	assert.Equal(t, StreakGriefed, transition)
	assert.True(t, f.svc.IsBlacklisted("Foo", "cko"))
}
