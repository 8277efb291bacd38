package repository

import (
	"context"
	"errors"
	"fmt"

	"scoreboard/database"
	"scoreboard/models"

	"github.com/jackc/pgx/v5"
)

const scoringRunColumns = `id, run_id, rebuild, status, scored, blacklisted, invalid, players,
	duration_ms, error, created_at`

// ScoringRunRepository stores the audit trail of scoring runs
type ScoringRunRepository struct {
	q queryable
}

// NewScoringRunRepository creates a new scoring run repository
func NewScoringRunRepository(db *database.DB) *ScoringRunRepository {
	return &ScoringRunRepository{q: db.Pool}
}

// Create records a finished run
func (r *ScoringRunRepository) Create(ctx context.Context, run *models.ScoringRun) error {
	query := `
		INSERT INTO scoring_runs
		(run_id, rebuild, status, scored, blacklisted, invalid, players, duration_ms, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		run.RunID,
		run.Rebuild,
		run.Status,
		run.Scored,
		run.Blacklisted,
		run.Invalid,
		run.Players,
		run.DurationMs,
		run.Error,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return storeError("record scoring run", fmt.Errorf("failed to record run %s: %w", run.RunID, err))
	}
	return nil
}

// GetByRunID returns the run with the given id, or nil if none was recorded
func (r *ScoringRunRepository) GetByRunID(ctx context.Context, runID string) (*models.ScoringRun, error) {
	rows, err := r.q.Query(ctx, `SELECT `+scoringRunColumns+` FROM scoring_runs WHERE run_id = $1`, runID)
	if err != nil {
		return nil, storeError("get scoring run", err)
	}
	return collectRun(rows, "get scoring run")
}

// GetLatest returns the most recent run, or nil if there has been none
func (r *ScoringRunRepository) GetLatest(ctx context.Context) (*models.ScoringRun, error) {
	rows, err := r.q.Query(ctx, `SELECT `+scoringRunColumns+` FROM scoring_runs ORDER BY created_at DESC, id DESC LIMIT 1`)
	if err != nil {
		return nil, storeError("get latest scoring run", err)
	}
	return collectRun(rows, "get latest scoring run")
}

func collectRun(rows pgx.Rows, op string) (*models.ScoringRun, error) {
	run, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.ScoringRun])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError(op, err)
	}
	return run, nil
}
