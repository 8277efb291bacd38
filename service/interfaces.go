package service

import (
	"context"

	"scoreboard/models"
)

// GameRepository defines the interface for game record access
type GameRepository interface {
	// FetchUnscored returns up to limit unscored games in ascending id order
	FetchUnscored(ctx context.Context, limit int) ([]*models.GameRecord, error)

	// GetByIDs returns the games with the given ids; missing ids are skipped
	GetByIDs(ctx context.Context, ids []int64) ([]*models.GameRecord, error)

	// FirstGameID returns the id of the player's earliest game on a server, or 0 if none
	FirstGameID(ctx context.Context, name, src string) (int64, error)

	// MarkScored flags a game as scored
	MarkScored(ctx context.Context, id int64) error

	// UnscoreAll clears the scored flag on every game
	UnscoreAll(ctx context.Context) error

	// UnscoreAllOfPlayer clears the scored flag on every game of one player
	UnscoreAllOfPlayer(ctx context.Context, name string) error
}

// PlayerStatsRepository defines the interface for per-player aggregates
type PlayerStatsRepository interface {
	// Get returns the stored stats for a player, or nil if none exist
	Get(ctx context.Context, name string) (*models.PlayerStats, error)

	// Set stores the stats for a player, replacing any previous value
	Set(ctx context.Context, name string, stats *models.PlayerStats) error

	// Delete removes one player's stats
	Delete(ctx context.Context, name string) error

	// DeleteAll removes every player's stats
	DeleteAll(ctx context.Context) error
}

// GlobalStatRepository defines the interface for keyed global stats
type GlobalStatRepository interface {
	// Get decodes the value stored under key into dst. It reports whether the key exists.
	Get(ctx context.Context, key string, dst any) (bool, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value any) error

	// DeleteAll removes every global stat
	DeleteAll(ctx context.Context) error

	// DeletePlayerStreaks removes a player's active and completed streaks
	DeletePlayerStreaks(ctx context.Context, name string) error
}

// BlacklistRepository defines the interface for learned blacklist entries
type BlacklistRepository interface {
	// All returns every stored blacklist entry, duplicates included
	All(ctx context.Context) ([]*models.BlacklistEntry, error)

	// Add appends a player/server pair
	Add(ctx context.Context, name, src string) error
}

// Store is the persistent store the scorer reads from and writes back to
type Store interface {
	GameRepository() GameRepository
	PlayerStatsRepository() PlayerStatsRepository
	GlobalStatRepository() GlobalStatRepository
	BlacklistRepository() BlacklistRepository

	// WithTransaction runs fn against repositories bound to a single transaction
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}
