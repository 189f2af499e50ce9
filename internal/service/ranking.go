package service

import (
	"context"

	"emoji-pair-bot/internal/model"
)

// RankingService serves leaderboard queries.
type RankingService struct {
	users UserStore
	chats ChatStore
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(users UserStore, chats ChatStore) *RankingService {
	return &RankingService{users: users, chats: chats}
}

// TopUsers returns users ordered by lifetime points descending, truncated
// to limit. Ties keep an arbitrary stable order.
func (s *RankingService) TopUsers(ctx context.Context, limit int) ([]*model.User, error) {
	return s.users.TopByPoints(ctx, limit)
}

// TopChats returns chats ordered by total activity descending.
func (s *RankingService) TopChats(ctx context.Context, limit int) ([]*model.Chat, error) {
	return s.chats.TopByActivity(ctx, limit)
}

// RankOf returns 1 + the count of users with strictly greater points, so
// tied users share a rank and the next rank below them is skipped.
func (s *RankingService) RankOf(ctx context.Context, userID int64) (int64, error) {
	return s.users.RankOf(ctx, userID)
}
