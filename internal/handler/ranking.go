package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"emoji-pair-bot/internal/service"
)

// LeaderboardSize is how many entries each leaderboard section shows.
const LeaderboardSize = 10

// RankingHandler handles leaderboard commands.
type RankingHandler struct {
	rankings *service.RankingService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankings *service.RankingService) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// HandleLeaderboard handles the /leaderboard command showing the top
// users by lifetime points and the most active chats.
func (h *RankingHandler) HandleLeaderboard(c tele.Context) error {
	ctx := context.Background()

	users, err := h.rankings.TopUsers(ctx, LeaderboardSize)
	if err != nil {
		return c.Reply("Failed to load the leaderboard, please try again.")
	}
	chats, err := h.rankings.TopChats(ctx, LeaderboardSize)
	if err != nil {
		return c.Reply("Failed to load the leaderboard, please try again.")
	}

	lines := []string{"🌍 Top 10 Users:"}
	for i, user := range users {
		name := user.Username
		if name == "" {
			name = fmt.Sprintf("User %d", user.UserID)
		}
		lines = append(lines, fmt.Sprintf("%d. %s — %d pts", i+1, name, user.TotalPoints))
	}

	lines = append(lines, "", "💬 Top Chats:")
	for i, chat := range chats {
		title := chat.Title
		if title == "" {
			title = "Chat"
		}
		lines = append(lines, fmt.Sprintf("%d. %s — activity %d", i+1, title, chat.TotalActivity))
	}

	return c.Reply(strings.Join(lines, "\n"))
}
