package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scoreboard/config"
	"scoreboard/events"
	"scoreboard/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Cache namespaces reported to the eviction hook
const (
	CachePlayerStats = "player_stats"
	CacheGlobalStats = "global_stats"
)

// ErrBlacklistNotLoaded is returned when a game is scored before the learned blacklist is loaded
var ErrBlacklistNotLoaded = errors.New("blacklist not loaded")

// ScoringOptions tunes one scoring run
type ScoringOptions struct {
	BatchSize        int
	CacheSize        int
	ProgressInterval int
	ZigMaxDepth      string
	Grief            config.GriefConfig

	// OnEvict is called with the cache namespace each time an entry is flushed out
	OnEvict func(cache string)
}

// OptionsFromConfig builds run options from the process configuration
func OptionsFromConfig(cfg *config.Config) ScoringOptions {
	return ScoringOptions{
		BatchSize:        cfg.BatchSize,
		CacheSize:        cfg.StatsCacheSize,
		ProgressInterval: cfg.ProgressInterval,
		ZigMaxDepth:      cfg.ZigMaxDepth,
		Grief:            cfg.Grief,
	}
}

// ScoringService turns unscored games into player stats, achievements and streaks.
// It owns the caches of one run and must not be shared between concurrent runs.
type ScoringService struct {
	store  Store
	tables *config.Tables
	opts   ScoringOptions
	bus    *events.Bus

	guard       *BlacklistGuard
	evaluator   *AchievementEvaluator
	playerStats *StatsCache[string, *models.PlayerStats]
	globals     *StatsCache[string, models.GlobalStat]
	streaks     *StreakTracker

	summary *models.ScoringSummary
}

// NewScoringService creates a scoring service. bus may be nil.
func NewScoringService(store Store, tables *config.Tables, opts ScoringOptions, bus *events.Bus) *ScoringService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5000
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 10000
	}
	if opts.ZigMaxDepth == "" {
		opts.ZigMaxDepth = "27"
	}

	s := &ScoringService{
		store:     store,
		tables:    tables,
		opts:      opts,
		bus:       bus,
		guard:     NewBlacklistGuard(tables, store.BlacklistRepository()),
		evaluator: NewAchievementEvaluator(tables, store.GameRepository(), opts.ZigMaxDepth),
	}
	s.resetCaches()
	s.summary = s.newSummary()
	return s
}

// resetCaches drops every resident entry without flushing
func (s *ScoringService) resetCaches() {
	s.playerStats = NewStatsCache(s.opts.CacheSize, s.loadPlayerStats, s.flushPlayerStats)
	s.globals = NewStatsCache(s.opts.CacheSize, s.loadGlobalStat, s.flushGlobalStat)
	if s.opts.OnEvict != nil {
		s.playerStats.OnEvict(func(string) { s.opts.OnEvict(CachePlayerStats) })
		s.globals.OnEvict(func(string) { s.opts.OnEvict(CacheGlobalStats) })
	}
	s.streaks = NewStreakTracker(s.globals, s.guard, s.store.GameRepository(), s.opts.Grief)
}

func (s *ScoringService) newSummary() *models.ScoringSummary {
	return &models.ScoringSummary{
		RunID:   uuid.New().String(),
		Players: make(map[string]struct{}),
	}
}

// Summary returns the counters of the current run
func (s *ScoringService) Summary() *models.ScoringSummary {
	return s.summary
}

// ScoreGames scores every unscored game in ascending id order. With rebuild set,
// all derived state is cleared first so every game is scored again from scratch.
func (s *ScoringService) ScoreGames(ctx context.Context, rebuild bool) (*models.ScoringSummary, error) {
	start := time.Now()
	summary := s.summary
	logger := log.WithField("run_id", summary.RunID)
	logger.WithField("rebuild", rebuild).Info("Scoring all games")

	if err := s.guard.Preload(ctx); err != nil {
		return summary, err
	}

	if rebuild {
		if err := s.rebuild(ctx); err != nil {
			return summary, err
		}
		logger.Info("Cleared scored flags and derived stats")
	}

	for {
		games, err := s.store.GameRepository().FetchUnscored(ctx, s.opts.BatchSize)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch unscored games: %w", err)
		}
		if len(games) == 0 {
			break
		}

		for _, game := range games {
			if err := s.ScoreGame(ctx, game); err != nil {
				logger.WithError(err).WithField("gameID", game.ID).Error("Scoring run aborted")
				return summary, err
			}

			processed := summary.Scored + summary.Blacklisted + summary.Invalid
			if processed%s.opts.ProgressInterval == 0 {
				logger.WithFields(log.Fields{
					"games":   processed,
					"players": summary.PlayerCount(),
				}).Info("Scoring progress")
			}
		}
	}

	if err := s.applyManualAchievements(ctx); err != nil {
		return summary, err
	}

	if err := s.Flush(ctx); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)
	logger.WithFields(log.Fields{
		"scored":      summary.Scored,
		"blacklisted": summary.Blacklisted,
		"invalid":     summary.Invalid,
		"players":     summary.PlayerCount(),
		"secs":        fmt.Sprintf("%.2f", summary.Duration.Seconds()),
	}).Info("Scoring run complete")

	return summary, nil
}

// Flush writes every resident player and global stat back to the store
func (s *ScoringService) Flush(ctx context.Context) error {
	if err := s.playerStats.FlushAll(ctx); err != nil {
		return err
	}
	return s.globals.FlushAll(ctx)
}

func (s *ScoringService) rebuild(ctx context.Context) error {
	err := s.store.WithTransaction(ctx, func(tx Store) error {
		if err := tx.GameRepository().UnscoreAll(ctx); err != nil {
			return err
		}
		if err := tx.PlayerStatsRepository().DeleteAll(ctx); err != nil {
			return err
		}
		return tx.GlobalStatRepository().DeleteAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to rebuild derived state: %w", err)
	}
	s.resetCaches()
	return nil
}

// RescorePlayer deletes a player's stats and streaks and unscores their games so the
// next run scores them again. Store failures are logged and not returned.
func (s *ScoringService) RescorePlayer(ctx context.Context, name string) error {
	logger := log.WithFields(log.Fields{
		"run_id": s.summary.RunID,
		"player": name,
	})

	// Resident entries would otherwise overwrite the deletion on the next flush
	if err := s.Flush(ctx); err != nil {
		if IsStoreError(err) {
			logger.WithError(err).Error("Failed to flush stats before rescore")
			return nil
		}
		return err
	}

	err := s.store.WithTransaction(ctx, func(tx Store) error {
		if err := tx.GlobalStatRepository().DeletePlayerStreaks(ctx, name); err != nil {
			return err
		}
		if err := tx.PlayerStatsRepository().Delete(ctx, name); err != nil {
			return err
		}
		return tx.GameRepository().UnscoreAllOfPlayer(ctx, name)
	})
	if err != nil {
		if IsStoreError(err) {
			logger.WithError(err).Error("Failed to reset player for rescoring")
			return nil
		}
		return err
	}

	s.resetCaches()
	logger.Info("Player reset for rescoring")
	return nil
}

// ScoreGame scores a single game and marks it scored. Malformed games are counted
// as invalid and marked scored without touching any stats.
func (s *ScoringService) ScoreGame(ctx context.Context, game *models.GameRecord) (err error) {
	if !s.guard.Loaded() {
		return ErrBlacklistNotLoaded
	}

	pending := events.NewTransactionalBus(s.bus)
	defer func() {
		if err != nil {
			pending.Discard()
		}
	}()

	games := s.store.GameRepository()
	s.summary.Players[game.Name] = struct{}{}

	if s.guard.IsBlacklisted(game.Name, game.Src) {
		if err := games.MarkScored(ctx, game.ID); err != nil {
			return err
		}
		s.summary.Blacklisted++
		pending.Publish(events.GameScoredEvent{
			GameID:      game.ID,
			Player:      game.Name,
			Src:         game.Src,
			Blacklisted: true,
		})
		pending.Flush(ctx)
		return nil
	}

	payload, err := s.validate(game)
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		log.WithFields(log.Fields{
			"run_id": s.summary.RunID,
			"gameID": game.ID,
			"player": game.Name,
			"field":  ve.Field,
		}).WithError(err).Warn("Skipping malformed game")

		if err := games.MarkScored(ctx, game.ID); err != nil {
			return err
		}
		s.summary.Invalid++
		return nil
	}

	stats, err := s.playerStats.Get(ctx, game.Name)
	if err != nil {
		return err
	}

	stats.Games++
	stats.TotalPlaytime += game.Duration
	end := game.End
	stats.LastActive = &end

	won := game.Outcome.IsWin()
	if won {
		stats.Wins = append(stats.Wins, game.ID)

		if stats.FastestRealtime == nil || game.Duration < stats.FastestRealtime.Value {
			stats.FastestRealtime = &models.GameRef{GameID: game.ID, Value: game.Duration}
		}
		if stats.FastestTurncount == nil || game.Turns < stats.FastestTurncount.Value {
			stats.FastestTurncount = &models.GameRef{GameID: game.ID, Value: game.Turns}
		}

		if game.God != "" {
			stats.GodWins[game.God]++
		}
		stats.RaceWins[game.Race]++
		stats.RoleWins[game.Role]++

		changes, err := s.evaluator.Evaluate(ctx, stats, game, payload)
		if err != nil {
			return err
		}
		for _, change := range changes {
			pending.Publish(events.AchievementUnlockedEvent{
				Player:      game.Name,
				Achievement: change.ID,
				GameID:      game.ID,
				Count:       change.Count,
			})
		}
	} else if game.Outcome.IsBoring() {
		stats.BoringGames++
	}

	if stats.Highscore == nil || game.Score > stats.Highscore.Value {
		stats.Highscore = &models.GameRef{GameID: game.ID, Value: game.Score}
	}
	stats.TotalScore += game.Score
	stats.Recompute()

	transition, streak, err := s.streaks.Score(ctx, game, payload)
	if err != nil {
		return err
	}
	switch transition {
	case StreakCompleted:
		pending.Publish(events.StreakCompletedEvent{
			Player:        streak.Name,
			Wins:          streak.Wins,
			Start:         streak.Start,
			End:           streak.End,
			StreakBreaker: game.ID,
		})
	case StreakGriefed:
		pending.Publish(events.GriefDetectedEvent{
			Player:     game.Name,
			Src:        game.Src,
			GameID:     game.ID,
			StreakWins: len(streak.Wins),
		})
	}

	if err := s.playerStats.Set(ctx, game.Name, stats); err != nil {
		return err
	}

	if err := games.MarkScored(ctx, game.ID); err != nil {
		return err
	}

	s.summary.Scored++
	pending.Publish(events.GameScoredEvent{
		GameID: game.ID,
		Player: game.Name,
		Src:    game.Src,
		Won:    won,
	})
	pending.Flush(ctx)
	return nil
}

// validate parses the outcome and payload before any aggregate is touched
func (s *ScoringService) validate(game *models.GameRecord) (models.GamePayload, error) {
	outcome, err := models.ParseOutcome(game.KillType)
	if err != nil {
		return models.GamePayload{}, &ValidationError{GameID: game.ID, Field: "ktyp", Reason: err.Error()}
	}
	game.Outcome = outcome

	payload, field, err := models.ParsePayload(game.Payload)
	if err != nil {
		return models.GamePayload{}, &ValidationError{GameID: game.ID, Field: field, Reason: err.Error()}
	}
	return payload, nil
}

func (s *ScoringService) applyManualAchievements(ctx context.Context) error {
	for _, player := range s.tables.ManualAchievementPlayers() {
		stats, err := s.playerStats.Get(ctx, player)
		if err != nil {
			return err
		}
		if stats.Games == 0 {
			continue
		}
		for id, value := range s.tables.ManualAchievements[player] {
			stats.Achievements.Set(id, value)
		}
		if err := s.playerStats.Set(ctx, player, stats); err != nil {
			return err
		}
	}
	return nil
}

// PlayerStats returns the current stats of a player, resident or stored
func (s *ScoringService) PlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	return s.playerStats.Get(ctx, name)
}

// ActiveStreak returns the open streak of a player, if any
func (s *ScoringService) ActiveStreak(ctx context.Context, name string) (*models.Streak, error) {
	return s.streaks.ActiveStreak(ctx, name)
}

// IsBlacklisted reports whether games by name on src are skipped
func (s *ScoringService) IsBlacklisted(name, src string) bool {
	return s.guard.IsBlacklisted(name, src)
}

func (s *ScoringService) loadPlayerStats(ctx context.Context, name string) (*models.PlayerStats, error) {
	stats, err := s.store.PlayerStatsRepository().Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return models.NewPlayerStats(s.tables.PlayableGods, s.tables.PlayableRaces, s.tables.PlayableRoles), nil
	}
	stats.EnsureMaps()
	return stats, nil
}

func (s *ScoringService) flushPlayerStats(ctx context.Context, name string, stats *models.PlayerStats) error {
	return s.store.PlayerStatsRepository().Set(ctx, name, stats)
}

func (s *ScoringService) loadGlobalStat(ctx context.Context, key string) (models.GlobalStat, error) {
	repo := s.store.GlobalStatRepository()
	switch key {
	case models.GlobalStatActiveStreaks:
		active := make(models.ActiveStreaks)
		if _, err := repo.Get(ctx, key, &active); err != nil {
			return nil, err
		}
		if active == nil {
			active = make(models.ActiveStreaks)
		}
		return active, nil
	case models.GlobalStatCompletedStreaks:
		var completed models.CompletedStreaks
		if _, err := repo.Get(ctx, key, &completed); err != nil {
			return nil, err
		}
		return completed, nil
	default:
		return nil, fmt.Errorf("unknown global stat %q", key)
	}
}

func (s *ScoringService) flushGlobalStat(ctx context.Context, key string, value models.GlobalStat) error {
	return s.store.GlobalStatRepository().Set(ctx, key, value)
}
