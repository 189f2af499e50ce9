package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"emoji-pair-bot/internal/model"
)

// ProfileService handles user profile and chat bookkeeping operations.
type ProfileService struct {
	users UserStore
	chats ChatStore
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(users UserStore, chats ChatStore) *ProfileService {
	return &ProfileService{users: users, chats: chats}
}

// EnsureUser ensures a profile exists for the user, creating it lazily on
// first contact and refreshing a changed display name.
func (s *ProfileService) EnsureUser(ctx context.Context, userID int64, username string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, userID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if !created && username != "" && user.Username != username {
		if err := s.users.UpdateUsername(ctx, userID, username); err != nil {
			// Non-fatal; the profile still exists with the stale name.
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to refresh username")
		}
		user.Username = username
	}

	return user, created, nil
}

// RecordChatSeen upserts the chat record and links the user to it, so the
// chat shows up in the user's /chat listing and in the chat leaderboard.
func (s *ProfileService) RecordChatSeen(ctx context.Context, userID, chatID int64, title string) error {
	if err := s.chats.Upsert(ctx, chatID, title); err != nil {
		return err
	}
	return s.users.AddChat(ctx, userID, chatID)
}

// Profile bundles a user's stats with their leaderboard rank.
type Profile struct {
	User *model.User
	Rank int64
}

// ProfileOf returns the user's lifetime stats and global rank.
func (s *ProfileService) ProfileOf(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rank, err := s.users.RankOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Rank: rank}, nil
}

// ChatsOf returns the chat records the user has been seen in.
func (s *ProfileService) ChatsOf(ctx context.Context, userID int64) ([]*model.Chat, error) {
	ids, err := s.users.ChatIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	chats := make([]*model.Chat, 0, len(ids))
	for _, id := range ids {
		chat, err := s.chats.GetByID(ctx, id)
		if err != nil {
			// The link may outlive the chat record; skip rather than fail.
			log.Debug().Err(err).Int64("chat_id", id).Msg("Linked chat missing")
			continue
		}
		chats = append(chats, chat)
	}
	return chats, nil
}

// SetLanguage stores the user's preferred language code.
func (s *ProfileService) SetLanguage(ctx context.Context, userID int64, code string) error {
	if _, ok := model.LanguageFlags[code]; !ok {
		return fmt.Errorf("unsupported language code %q", code)
	}
	return s.users.SetLanguage(ctx, userID, code)
}

// MarkChatLeft records that the bot was removed from the chat.
func (s *ProfileService) MarkChatLeft(ctx context.Context, chatID int64) error {
	return s.chats.MarkLeft(ctx, chatID, time.Now())
}

// BroadcastTargets returns every known user id for the broadcast fan-out.
func (s *ProfileService) BroadcastTargets(ctx context.Context) ([]int64, error) {
	return s.users.AllIDs(ctx)
}
