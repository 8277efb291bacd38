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

// GlobalStatRepository stores keyed JSON documents shared by all players
type GlobalStatRepository struct {
	q queryable
}

// NewGlobalStatRepository creates a new global stat repository
func NewGlobalStatRepository(db *database.DB) *GlobalStatRepository {
	return &GlobalStatRepository{q: db.Pool}
}

func newGlobalStatRepositoryWithTx(tx queryable) *GlobalStatRepository {
	return &GlobalStatRepository{q: tx}
}

// Get decodes the value stored under key into dst and reports whether it exists
func (r *GlobalStatRepository) Get(ctx context.Context, key string, dst any) (bool, error) {
	var data []byte
	err := r.q.QueryRow(ctx, `SELECT data FROM global_stats WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeError("get global stat", fmt.Errorf("failed to get %s: %w", key, err))
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, storeError("get global stat", fmt.Errorf("failed to decode %s: %w", key, err))
	}
	return true, nil
}

// Set stores value under key, replacing any previous value
func (r *GlobalStatRepository) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	query := `
		INSERT INTO global_stats (key, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := r.q.Exec(ctx, query, key, data); err != nil {
		return storeError("set global stat", fmt.Errorf("failed to store %s: %w", key, err))
	}
	return nil
}

// DeleteAll removes every global stat
func (r *GlobalStatRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM global_stats`); err != nil {
		return storeError("delete all global stats", err)
	}
	return nil
}

// DeletePlayerStreaks removes a player's active streak and every completed streak of theirs
func (r *GlobalStatRepository) DeletePlayerStreaks(ctx context.Context, name string) error {
	key := models.StreakName(name)

	var active models.ActiveStreaks
	found, err := r.Get(ctx, models.GlobalStatActiveStreaks, &active)
	if err != nil {
		return err
	}
	if found {
		if _, ok := active[key]; ok {
			delete(active, key)
			if err := r.Set(ctx, models.GlobalStatActiveStreaks, active); err != nil {
				return err
			}
		}
	}

	var completed models.CompletedStreaks
	found, err = r.Get(ctx, models.GlobalStatCompletedStreaks, &completed)
	if err != nil || !found {
		return err
	}

	kept := make(models.CompletedStreaks, 0, len(completed))
	for _, streak := range completed {
		if models.StreakName(streak.Name) != key {
			kept = append(kept, streak)
		}
	}
	if len(kept) == len(completed) {
		return nil
	}
	return r.Set(ctx, models.GlobalStatCompletedStreaks, kept)
}
