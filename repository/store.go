package repository

import (
	"context"

	"scoreboard/database"
	"scoreboard/service"

	"github.com/jackc/pgx/v5"
)

// store implements service.Store over a pool or a single transaction
type store struct {
	db *database.DB
	tx pgx.Tx

	games     *GameRepository
	stats     *PlayerStatsRepository
	globals   *GlobalStatRepository
	blacklist *BlacklistRepository
}

// NewStore creates a store whose repositories run directly on the pool
func NewStore(db *database.DB) service.Store {
	return &store{
		db:        db,
		games:     NewGameRepository(db),
		stats:     NewPlayerStatsRepository(db),
		globals:   NewGlobalStatRepository(db),
		blacklist: NewBlacklistRepository(db),
	}
}

func newStoreWithTx(db *database.DB, tx pgx.Tx) *store {
	return &store{
		db:        db,
		tx:        tx,
		games:     newGameRepositoryWithTx(tx),
		stats:     newPlayerStatsRepositoryWithTx(tx),
		globals:   newGlobalStatRepositoryWithTx(tx),
		blacklist: newBlacklistRepositoryWithTx(tx),
	}
}

// GameRepository returns the game repository for this store
func (s *store) GameRepository() service.GameRepository {
	return s.games
}

// PlayerStatsRepository returns the player stats repository for this store
func (s *store) PlayerStatsRepository() service.PlayerStatsRepository {
	return s.stats
}

// GlobalStatRepository returns the global stat repository for this store
func (s *store) GlobalStatRepository() service.GlobalStatRepository {
	return s.globals
}

// BlacklistRepository returns the blacklist repository for this store
func (s *store) BlacklistRepository() service.BlacklistRepository {
	return s.blacklist
}

// WithTransaction runs fn against repositories bound to one transaction.
// Nested calls join the outer transaction.
func (s *store) WithTransaction(ctx context.Context, fn func(tx service.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	var fnErr error
	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		fnErr = fn(newStoreWithTx(s.db, tx))
		return fnErr
	})
	// fn's own errors keep their classification; begin, commit and rollback failures are store errors
	if fnErr != nil && err == fnErr {
		return fnErr
	}
	return storeError("transaction", err)
}
