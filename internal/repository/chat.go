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

const chatColumns = `chat_id, title, games_played, total_activity, left_at, created_at`

// ChatRepository handles chat record persistence.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new ChatRepository instance.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

func scanChat(row pgx.Row) (*model.Chat, error) {
	var chat model.Chat
	err := row.Scan(
		&chat.ChatID,
		&chat.Title,
		&chat.GamesPlayed,
		&chat.TotalActivity,
		&chat.LeftAt,
		&chat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Upsert creates the chat record on first contact or refreshes its title.
// Seeing the chat again also clears left_at, covering the rejoin case.
func (r *ChatRepository) Upsert(ctx context.Context, chatID int64, title string) error {
	const query = `
		INSERT INTO chats (chat_id, title, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET title = EXCLUDED.title, left_at = NULL
	`

	if _, err := r.pool.Exec(ctx, query, chatID, title); err != nil {
		return fmt.Errorf("failed to upsert chat: %w", err)
	}
	return nil
}

// GetByID retrieves a chat record.
// Returns ErrChatNotFound if the chat has never been seen.
func (r *ChatRepository) GetByID(ctx context.Context, chatID int64) (*model.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE chat_id = $1`

	chat, err := scanChat(r.pool.QueryRow(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return chat, nil
}

// IncrementGamePlayed bumps the chat's games_played and total_activity
// counters when a session scoped to it finishes. The upsert tolerates a
// finalization racing the first /start in a chat.
func (r *ChatRepository) IncrementGamePlayed(ctx context.Context, chatID int64) error {
	const query = `
		INSERT INTO chats (chat_id, title, games_played, total_activity, created_at)
		VALUES ($1, '', 1, 1, NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET games_played = chats.games_played + 1,
		    total_activity = chats.total_activity + 1
	`

	if _, err := r.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to increment chat games: %w", err)
	}
	return nil
}

// TopByActivity retrieves the top N chats by total_activity. Ties keep a
// stable order via the chat id.
func (r *ChatRepository) TopByActivity(ctx context.Context, limit int) ([]*model.Chat, error) {
	query := `
		SELECT ` + chatColumns + `
		FROM chats
		ORDER BY total_activity DESC, chat_id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top chats: %w", err)
	}
	defer rows.Close()

	var chats []*model.Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}

	return chats, nil
}

// MarkLeft records the moment the bot was removed from the chat. The
// record itself is kept; chats are never deleted.
func (r *ChatRepository) MarkLeft(ctx context.Context, chatID int64, leftAt time.Time) error {
	const query = `
		UPDATE chats
		SET left_at = $2
		WHERE chat_id = $1
	`

	result, err := r.pool.Exec(ctx, query, chatID, leftAt)
	if err != nil {
		return fmt.Errorf("failed to mark chat left: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrChatNotFound
	}
	return nil
}
