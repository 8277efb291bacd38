package repository

import (
	"context"
	"fmt"

	"scoreboard/database"
	"scoreboard/models"

	"github.com/jackc/pgx/v5"
)

const gameColumns = `id, name, src, start_time, end_time, ktyp, race, role, god, score, duration, turns, raw_data, scored`

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// Insert stores a new game and sets its ID
func (r *GameRepository) Insert(ctx context.Context, game *models.GameRecord) error {
	query := `
		INSERT INTO games (name, src, start_time, end_time, ktyp, race, role, god, score, duration, turns, raw_data, scored)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	payload := game.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	err := r.q.QueryRow(ctx, query,
		game.Name,
		game.Src,
		game.Start,
		game.End,
		game.KillType,
		game.Race,
		game.Role,
		game.God,
		game.Score,
		game.Duration,
		game.Turns,
		payload,
		game.Scored,
	).Scan(&game.ID)
	if err != nil {
		return storeError("insert game", fmt.Errorf("failed to insert game for %s: %w", game.Name, err))
	}
	return nil
}

// FetchUnscored returns up to limit unscored games in ascending id order
func (r *GameRepository) FetchUnscored(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE NOT scored
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, storeError("fetch unscored games", err)
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, storeError("fetch unscored games", err)
	}
	return games, nil
}

// GetByIDs returns the games with the given ids in ascending id order
func (r *GameRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.GameRecord, error) {
	if len(ids) == 0 {
		return []*models.GameRecord{}, nil
	}

	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, storeError("get games by id", err)
	}
	defer rows.Close()

	games, err := scanGames(rows)
	if err != nil {
		return nil, storeError("get games by id", err)
	}
	return games, nil
}

// FirstGameID returns the id of the player's earliest game on src, or 0 if none
func (r *GameRepository) FirstGameID(ctx context.Context, name, src string) (int64, error) {
	query := `
		SELECT COALESCE(MIN(id), 0)
		FROM games
		WHERE name = $1 AND src = $2
	`

	var id int64
	if err := r.q.QueryRow(ctx, query, name, src).Scan(&id); err != nil {
		return 0, storeError("first game", fmt.Errorf("failed to find first game of %s on %s: %w", name, src, err))
	}
	return id, nil
}

// MarkScored flags a game as scored
func (r *GameRepository) MarkScored(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `UPDATE games SET scored = TRUE WHERE id = $1`, id)
	if err != nil {
		return storeError("mark scored", fmt.Errorf("failed to mark game %d scored: %w", id, err))
	}
	if result.RowsAffected() == 0 {
		return storeError("mark scored", fmt.Errorf("game %d not found", id))
	}
	return nil
}

// UnscoreAll clears the scored flag on every game
func (r *GameRepository) UnscoreAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `UPDATE games SET scored = FALSE WHERE scored`); err != nil {
		return storeError("unscore all games", err)
	}
	return nil
}

// UnscoreAllOfPlayer clears the scored flag on every game of one player
func (r *GameRepository) UnscoreAllOfPlayer(ctx context.Context, name string) error {
	if _, err := r.q.Exec(ctx, `UPDATE games SET scored = FALSE WHERE name = $1 AND scored`, name); err != nil {
		return storeError("unscore player games", fmt.Errorf("failed to unscore games of %s: %w", name, err))
	}
	return nil
}

func scanGames(rows pgx.Rows) ([]*models.GameRecord, error) {
	games := make([]*models.GameRecord, 0)
	for rows.Next() {
		var g models.GameRecord
		err := rows.Scan(
			&g.ID,
			&g.Name,
			&g.Src,
			&g.Start,
			&g.End,
			&g.KillType,
			&g.Race,
			&g.Role,
			&g.God,
			&g.Score,
			&g.Duration,
			&g.Turns,
			&g.Payload,
			&g.Scored,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}
