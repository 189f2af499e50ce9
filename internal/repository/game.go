package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emoji-pair-bot/internal/model"
)

const gameColumns = `game_id, chat_id, owner_id, grid_rows, grid_cols, grid, revealed,
		filler, pairs_found, score, players, is_finished, started_at, finished_at`

// GameRepository handles game session persistence. Sessions form an
// append-only history: they are created, mutated while active, and never
// deleted or touched again once finished.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

func scanGame(row pgx.Row) (*model.GameSession, error) {
	var session model.GameSession
	err := row.Scan(
		&session.GameID,
		&session.ChatID,
		&session.OwnerID,
		&session.Rows,
		&session.Cols,
		&session.Grid,
		&session.Revealed,
		&session.Filler,
		&session.PairsFound,
		&session.Score,
		&session.Players,
		&session.IsFinished,
		&session.StartedAt,
		&session.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	if session.Revealed == nil {
		session.Revealed = []int{}
	}
	return &session, nil
}

// Create persists a freshly generated session.
func (r *GameRepository) Create(ctx context.Context, session *model.GameSession) error {
	const query = `
		INSERT INTO games (game_id, chat_id, owner_id, grid_rows, grid_cols, grid, revealed,
			filler, pairs_found, score, players, is_finished, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		session.GameID,
		session.ChatID,
		session.OwnerID,
		session.Rows,
		session.Cols,
		session.Grid,
		session.Revealed,
		session.Filler,
		session.PairsFound,
		session.Score,
		session.Players,
		session.IsFinished,
		session.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetByID retrieves a session by its id.
// Returns ErrGameNotFound for unknown or expired ids.
func (r *GameRepository) GetByID(ctx context.Context, gameID string) (*model.GameSession, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_id = $1`

	session, err := scanGame(r.pool.QueryRow(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return session, nil
}

// SetRevealed persists the current revealed set of an active session.
func (r *GameRepository) SetRevealed(ctx context.Context, gameID string, revealed []int) error {
	const query = `
		UPDATE games
		SET revealed = $2
		WHERE game_id = $1 AND NOT is_finished
	`

	result, err := r.pool.Exec(ctx, query, gameID, revealed)
	if err != nil {
		return fmt.Errorf("failed to set revealed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// ApplyResolution persists the outcome of a resolved pair in one write:
// the mutated grid, the cleared revealed set, the session counters and the
// per-player records. Finished sessions are never touched.
func (r *GameRepository) ApplyResolution(ctx context.Context, session *model.GameSession) error {
	const query = `
		UPDATE games
		SET grid = $2,
		    revealed = $3,
		    pairs_found = $4,
		    score = $5,
		    players = $6
		WHERE game_id = $1 AND NOT is_finished
	`

	result, err := r.pool.Exec(ctx, query,
		session.GameID,
		session.Grid,
		session.Revealed,
		session.PairsFound,
		session.Score,
		session.Players,
	)
	if err != nil {
		return fmt.Errorf("failed to apply resolution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}

// Finish marks the session finished exactly once. A second call is a
// no-op returning ErrGameNotFound, which keeps finalization idempotent.
func (r *GameRepository) Finish(ctx context.Context, gameID string, finishedAt time.Time) error {
	const query = `
		UPDATE games
		SET is_finished = TRUE, finished_at = $2
		WHERE game_id = $1 AND NOT is_finished
	`

	result, err := r.pool.Exec(ctx, query, gameID, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to finish game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}
