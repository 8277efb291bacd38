package service

import (
	"context"
	"fmt"

	"scoreboard/config"
	"scoreboard/models"

	log "github.com/sirupsen/logrus"
)

// StreakTransition describes what one game did to its player's streak
type StreakTransition int

const (
	StreakNone      StreakTransition = iota // loss with no active streak
	StreakIgnored                           // game started before the active streak did
	StreakStarted                           // win opened a new streak
	StreakExtended                          // win appended to the active streak
	StreakDiscarded                         // loss ended a one-win streak, not recorded
	StreakGriefed                           // loss judged a grief; streak stays active
	StreakCompleted                         // loss finalized a streak of two or more wins
)

func (t StreakTransition) String() string {
	switch t {
	case StreakIgnored:
		return "ignored"
	case StreakStarted:
		return "started"
	case StreakExtended:
		return "extended"
	case StreakDiscarded:
		return "discarded"
	case StreakGriefed:
		return "griefed"
	case StreakCompleted:
		return "completed"
	default:
		return "none"
	}
}

// StreakTracker keeps at most one active streak per normalized player name in the
// global stats cache and moves finished streaks to the completed list.
type StreakTracker struct {
	globals *StatsCache[string, models.GlobalStat]
	guard   *BlacklistGuard
	games   GameRepository
	grief   config.GriefConfig
}

// NewStreakTracker creates a tracker over the global stats cache
func NewStreakTracker(globals *StatsCache[string, models.GlobalStat], guard *BlacklistGuard, games GameRepository, grief config.GriefConfig) *StreakTracker {
	return &StreakTracker{
		globals: globals,
		guard:   guard,
		games:   games,
		grief:   grief,
	}
}

// Score applies game to its player's streak and returns the transition together
// with the streak it concerned (nil for StreakNone).
func (t *StreakTracker) Score(ctx context.Context, game *models.GameRecord, payload models.GamePayload) (StreakTransition, *models.Streak, error) {
	name := models.StreakName(game.Name)

	active, err := t.activeStreaks(ctx)
	if err != nil {
		return StreakNone, nil, err
	}
	streak := active[name]

	// Out-of-order games cannot join or break a streak they predate
	if streak != nil && !game.Start.After(streak.Start) {
		return StreakIgnored, streak, nil
	}

	if game.Outcome.IsWin() {
		transition := StreakExtended
		if streak == nil {
			streak = &models.Streak{
				Name:  name,
				Wins:  []int64{},
				Start: game.End,
			}
			transition = StreakStarted
		}
		streak.Wins = append(streak.Wins, game.ID)
		streak.End = game.End
		active[name] = streak

		if err := t.globals.Set(ctx, models.GlobalStatActiveStreaks, active); err != nil {
			return StreakNone, nil, err
		}
		return transition, streak, nil
	}

	if streak == nil {
		return StreakNone, nil, nil
	}

	if len(streak.Wins) < 2 {
		delete(active, name)
		if err := t.globals.Set(ctx, models.GlobalStatActiveStreaks, active); err != nil {
			return StreakNone, nil, err
		}
		return StreakDiscarded, streak, nil
	}

	griefed, err := t.IsGrief(ctx, game, payload)
	if err != nil {
		return StreakNone, nil, err
	}
	if griefed {
		if err := t.guard.Add(ctx, game.Name, game.Src); err != nil {
			return StreakNone, nil, err
		}
		log.WithFields(log.Fields{
			"player":   game.Name,
			"src":      game.Src,
			"gameID":   game.ID,
			"duration": game.Duration,
			"turns":    game.Turns,
		}).Warn("Streak-ending loss looks like a grief; blacklisting player on server")
		return StreakGriefed, streak, nil
	}

	completed, err := t.completedStreaks(ctx)
	if err != nil {
		return StreakNone, nil, err
	}
	breaker := game.ID
	streak.StreakBreaker = &breaker
	completed = append(completed, streak)
	if err := t.globals.Set(ctx, models.GlobalStatCompletedStreaks, completed); err != nil {
		return StreakNone, nil, err
	}

	delete(active, name)
	if err := t.globals.Set(ctx, models.GlobalStatActiveStreaks, active); err != nil {
		return StreakNone, nil, err
	}
	return StreakCompleted, streak, nil
}

// IsGrief applies the grief heuristic to a loss that would end a streak of two or
// more wins. Losses with consumables used are held to tighter thresholds than
// clean ones.
func (t *StreakTracker) IsGrief(ctx context.Context, game *models.GameRecord, payload models.GamePayload) (bool, error) {
	if t.grief.ExemptFirstGame {
		first, err := t.games.FirstGameID(ctx, game.Name, game.Src)
		if err != nil {
			return false, fmt.Errorf("failed to find first game of %s on %s: %w", game.Name, game.Src, err)
		}
		if first == game.ID {
			return false, nil
		}
	}

	if payload.UsedConsumables() {
		return game.Duration < t.grief.ConsumableMaxDuration || game.Turns < t.grief.ConsumableMaxTurns, nil
	}
	return game.Duration < t.grief.CleanMaxDuration || game.Turns < t.grief.CleanMaxTurns, nil
}

// ActiveStreak returns the open streak for a player name, if any
func (t *StreakTracker) ActiveStreak(ctx context.Context, player string) (*models.Streak, error) {
	active, err := t.activeStreaks(ctx)
	if err != nil {
		return nil, err
	}
	return active[models.StreakName(player)], nil
}

func (t *StreakTracker) activeStreaks(ctx context.Context) (models.ActiveStreaks, error) {
	v, err := t.globals.Get(ctx, models.GlobalStatActiveStreaks)
	if err != nil {
		return nil, err
	}
	active, _ := v.(models.ActiveStreaks)
	if active == nil {
		active = make(models.ActiveStreaks)
	}
	return active, nil
}

func (t *StreakTracker) completedStreaks(ctx context.Context) (models.CompletedStreaks, error) {
	v, err := t.globals.Get(ctx, models.GlobalStatCompletedStreaks)
	if err != nil {
		return nil, err
	}
	completed, _ := v.(models.CompletedStreaks)
	return completed, nil
}
