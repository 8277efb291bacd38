package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"scoreboard/database"
	"scoreboard/models"

	"github.com/jackc/pgx/v5"
)

// PlayerStatsRepository stores one JSON document of aggregates per player
type PlayerStatsRepository struct {
	q queryable
}

// NewPlayerStatsRepository creates a new player stats repository
func NewPlayerStatsRepository(db *database.DB) *PlayerStatsRepository {
	return &PlayerStatsRepository{q: db.Pool}
}

func newPlayerStatsRepositoryWithTx(tx queryable) *PlayerStatsRepository {
	return &PlayerStatsRepository{q: tx}
}

// Get returns the stored stats for a player, or nil if none exist
func (r *PlayerStatsRepository) Get(ctx context.Context, name string) (*models.PlayerStats, error) {
	var data []byte
	err := r.q.QueryRow(ctx, `SELECT stats FROM player_stats WHERE name = $1`, name).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("get player stats", fmt.Errorf("failed to get stats of %s: %w", name, err))
	}

	var stats models.PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, storeError("get player stats", fmt.Errorf("failed to decode stats of %s: %w", name, err))
	}
	stats.EnsureMaps()
	return &stats, nil
}

// Set stores the stats for a player, replacing any previous value
func (r *PlayerStatsRepository) Set(ctx context.Context, name string, stats *models.PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats of %s: %w", name, err)
	}

	query := `
		INSERT INTO player_stats (name, stats, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET stats = EXCLUDED.stats, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, name, data); err != nil {
		return storeError("set player stats", fmt.Errorf("failed to store stats of %s: %w", name, err))
	}
	return nil
}

// Delete removes one player's stats
func (r *PlayerStatsRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM player_stats WHERE name = $1`, name); err != nil {
		return storeError("delete player stats", fmt.Errorf("failed to delete stats of %s: %w", name, err))
	}
	return nil
}

// DeleteAll removes every player's stats
func (r *PlayerStatsRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM player_stats`); err != nil {
		return storeError("delete all player stats", err)
	}
	return nil
}
