// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emoji-pair-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrChatNotFound = errors.New("chat not found")
	ErrGameNotFound = errors.New("game not found")
)

const userColumns = `user_id, username, games_played, pairs_found, total_points,
		best_score, language, cooldown_until, created_at, updated_at`

// UserRepository handles user profile persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.GamesPlayed,
		&user.PairsFound,
		&user.TotalPoints,
		&user.BestScore,
		&user.Language,
		&user.CooldownUntil,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user profile with zeroed statistics.
func (r *UserRepository) Create(ctx context.Context, userID int64, username string) (*model.User, error) {
	query := `
		INSERT INTO users (user_id, username, language, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, username, model.DefaultLanguage))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their Telegram ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user, creating the profile lazily on first
// contact. The upsert is idempotent; profiles are never deleted.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID int64, username string) (*model.User, bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, userID, username)
	if err != nil {
		// Handle race condition: another request might have created the user.
		user, err = r.GetByID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	return user, true, nil
}

// UpdateUsername updates a user's display name.
func (r *UserRepository) UpdateUsername(ctx context.Context, userID int64, username string) error {
	const query = `
		UPDATE users
		SET username = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementMatchStats adds to a user's lifetime pairs_found and
// total_points. Both counters only ever grow.
func (r *UserRepository) IncrementMatchStats(ctx context.Context, userID int64, pairs, points int64) error {
	const query = `
		UPDATE users
		SET pairs_found = pairs_found + $2,
		    total_points = total_points + $3,
		    updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, pairs, points)
	if err != nil {
		return fmt.Errorf("failed to increment match stats: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IncrementGamesPlayed adds one to a user's lifetime game count.
func (r *UserRepository) IncrementGamesPlayed(ctx context.Context, userID int64) error {
	const query = `
		UPDATE users
		SET games_played = games_played + 1, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment games played: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RaiseBestScore lifts best_score to the given value if it is higher.
// GREATEST keeps the update atomic and the invariant monotonic - the stored
// value never decreases no matter how updates interleave.
func (r *UserRepository) RaiseBestScore(ctx context.Context, userID int64, score int64) error {
	const query = `
		UPDATE users
		SET best_score = GREATEST(best_score, $2), updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, score)
	if err != nil {
		return fmt.Errorf("failed to raise best score: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLanguage updates the user's preferred language code.
func (r *UserRepository) SetLanguage(ctx context.Context, userID int64, code string) error {
	const query = `
		UPDATE users
		SET language = $2, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, code)
	if err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ArmCooldown performs the cooldown compare-and-set: it succeeds and moves
// cooldown_until forward only when the stored value is not in the future.
// Returns false with no mutation when the user is still rate limited.
func (r *UserRepository) ArmCooldown(ctx context.Context, userID int64, nowMillis, untilMillis int64) (bool, error) {
	const query = `
		UPDATE users
		SET cooldown_until = $3, updated_at = NOW()
		WHERE user_id = $1 AND cooldown_until <= $2
	`

	result, err := r.pool.Exec(ctx, query, userID, nowMillis, untilMillis)
	if err != nil {
		return false, fmt.Errorf("failed to arm cooldown: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// TopByPoints retrieves the top N users by lifetime points. Ties keep a
// stable order via the user id.
func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY total_points DESC, user_id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// RankOf returns 1 plus the count of users with strictly more points.
// Tied users can report different adjacent ranks; that matches the
// leaderboard contract.
func (r *UserRepository) RankOf(ctx context.Context, userID int64) (int64, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	const query = `SELECT COUNT(*) FROM users WHERE total_points > $1`

	var above int64
	if err := r.pool.QueryRow(ctx, query, user.TotalPoints).Scan(&above); err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return above + 1, nil
}

// AddChat records that the user has been seen in the chat. Idempotent.
func (r *UserRepository) AddChat(ctx context.Context, userID, chatID int64) error {
	const query = `
		INSERT INTO user_chats (user_id, chat_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, chat_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID, chatID); err != nil {
		return fmt.Errorf("failed to add user chat: %w", err)
	}
	return nil
}

// ChatIDs returns the chats the user has been seen in, oldest first.
func (r *UserRepository) ChatIDs(ctx context.Context, userID int64) ([]int64, error) {
	const query = `
		SELECT chat_id FROM user_chats
		WHERE user_id = $1
		ORDER BY created_at ASC, chat_id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user chats: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chat id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user chats: %w", err)
	}

	return ids, nil
}

// AllIDs returns every known user id. Used by the broadcast fan-out.
func (r *UserRepository) AllIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT user_id FROM users ORDER BY user_id ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user ids: %w", err)
	}

	return ids, nil
}
