package repository

import (
	"context"
	"fmt"

	"scoreboard/database"
	"scoreboard/models"

	"github.com/jackc/pgx/v5"
)

// BlacklistRepository stores player/server pairs learned by grief detection
type BlacklistRepository struct {
	q queryable
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(db *database.DB) *BlacklistRepository {
	return &BlacklistRepository{q: db.Pool}
}

func newBlacklistRepositoryWithTx(tx queryable) *BlacklistRepository {
	return &BlacklistRepository{q: tx}
}

// All returns every stored entry in insertion order, duplicates included
func (r *BlacklistRepository) All(ctx context.Context) ([]*models.BlacklistEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, src, created_at FROM blacklisted_players ORDER BY id`)
	if err != nil {
		return nil, storeError("load blacklist", err)
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.BlacklistEntry])
	if err != nil {
		return nil, storeError("load blacklist", err)
	}
	return entries, nil
}

// Add appends a player/server pair
func (r *BlacklistRepository) Add(ctx context.Context, name, src string) error {
	if _, err := r.q.Exec(ctx, `INSERT INTO blacklisted_players (name, src) VALUES ($1, $2)`, name, src); err != nil {
		return storeError("add blacklist entry", fmt.Errorf("failed to blacklist %s on %s: %w", name, src, err))
	}
	return nil
}
