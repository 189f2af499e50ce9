package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emoji-pair-bot/internal/config"
	"emoji-pair-bot/internal/service"
)

// ErrNotOwner is returned when a non-owner invokes an owner command.
var ErrNotOwner = errors.New("user is not the bot owner")

// AdminHandler handles owner-only commands.
type AdminHandler struct {
	cfg      *config.Config
	profiles *service.ProfileService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg *config.Config, profiles *service.ProfileService) *AdminHandler {
	return &AdminHandler{
		cfg:      cfg,
		profiles: profiles,
	}
}

// authorize checks that the sender is the configured bot owner.
func (h *AdminHandler) authorize(userID int64) error {
	if !h.cfg.IsOwner(userID) {
		return ErrNotOwner
	}
	return nil
}

// HandleBroadcast handles the /broadcast command. The owner replies to
// the message to distribute and a copy goes to every known user; users
// that blocked the bot are skipped.
func (h *AdminHandler) HandleBroadcast(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if err := h.authorize(sender.ID); err != nil {
		log.Warn().
			Int64("user_id", sender.ID).
			Msg("Unauthorized broadcast attempt")
		return c.Reply("You are not authorized to use this command.")
	}

	message := c.Message()
	if message == nil || message.ReplyTo == nil {
		return c.Reply("Reply to a message to broadcast it.")
	}

	targets, err := h.profiles.BroadcastTargets(ctx)
	if err != nil {
		return c.Reply("Something went wrong, please try again.")
	}

	count := 0
	for _, userID := range targets {
		if _, err := c.Bot().Copy(tele.ChatID(userID), message.ReplyTo); err != nil {
			log.Debug().Err(err).Int64("user_id", userID).Msg("Broadcast delivery failed")
			continue
		}
		count++
	}

	log.Info().
		Int64("owner_id", sender.ID).
		Int("delivered", count).
		Int("targets", len(targets)).
		Msg("Broadcast completed")

	return c.Reply(fmt.Sprintf("Broadcast sent to %d users.", count))
}
