// Package service provides business logic implementations.
package service

import (
	"context"
	"time"

	"emoji-pair-bot/internal/model"
)

// UserStore is the persistence surface the services need for user
// profiles. *repository.UserRepository satisfies it; tests substitute an
// in-memory fake.
type UserStore interface {
	GetOrCreate(ctx context.Context, userID int64, username string) (*model.User, bool, error)
	GetByID(ctx context.Context, userID int64) (*model.User, error)
	UpdateUsername(ctx context.Context, userID int64, username string) error
	IncrementMatchStats(ctx context.Context, userID int64, pairs, points int64) error
	IncrementGamesPlayed(ctx context.Context, userID int64) error
	RaiseBestScore(ctx context.Context, userID int64, score int64) error
	SetLanguage(ctx context.Context, userID int64, code string) error
	ArmCooldown(ctx context.Context, userID int64, nowMillis, untilMillis int64) (bool, error)
	TopByPoints(ctx context.Context, limit int) ([]*model.User, error)
	RankOf(ctx context.Context, userID int64) (int64, error)
	AddChat(ctx context.Context, userID, chatID int64) error
	ChatIDs(ctx context.Context, userID int64) ([]int64, error)
	AllIDs(ctx context.Context) ([]int64, error)
}

// ChatStore is the persistence surface for chat records.
type ChatStore interface {
	Upsert(ctx context.Context, chatID int64, title string) error
	GetByID(ctx context.Context, chatID int64) (*model.Chat, error)
	IncrementGamePlayed(ctx context.Context, chatID int64) error
	TopByActivity(ctx context.Context, limit int) ([]*model.Chat, error)
	MarkLeft(ctx context.Context, chatID int64, leftAt time.Time) error
}

// GameStore is the persistence surface for game sessions.
type GameStore interface {
	Create(ctx context.Context, session *model.GameSession) error
	GetByID(ctx context.Context, gameID string) (*model.GameSession, error)
	SetRevealed(ctx context.Context, gameID string, revealed []int) error
	ApplyResolution(ctx context.Context, session *model.GameSession) error
	Finish(ctx context.Context, gameID string, finishedAt time.Time) error
}
