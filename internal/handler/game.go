package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emoji-pair-bot/internal/config"
	"emoji-pair-bot/internal/game"
	"emoji-pair-bot/internal/repository"
	"emoji-pair-bot/internal/service"
)

// GameHandler handles the game lifecycle: size selection, tile picks and
// ending a game.
type GameHandler struct {
	cfg      *config.Config
	sessions *service.SessionService
	profiles *service.ProfileService
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.Config, sessions *service.SessionService, profiles *service.ProfileService) *GameHandler {
	return &GameHandler{
		cfg:      cfg,
		sessions: sessions,
		profiles: profiles,
	}
}

// callbackData returns the callback payload with the telebot unique
// prefix stripped.
func callbackData(c tele.Context) string {
	callback := c.Callback()
	if callback == nil {
		return ""
	}
	return strings.TrimPrefix(callback.Data, "\f")
}

// displayName picks the best available name for a Telegram user.
func displayName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return sender.FirstName
}

// HandleNew handles /new and /play, and the Start Game / Restart buttons.
// It offers the grid sizes; the session itself is created once a size is
// chosen.
func (h *GameHandler) HandleNew(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	if _, _, err := h.profiles.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("Something went wrong, please try again.")
	}
	if chat.Type != tele.ChatPrivate {
		if err := h.profiles.RecordChatSeen(ctx, sender.ID, chat.ID, chat.Title); err != nil {
			log.Warn().Err(err).Int64("chat_id", chat.ID).Msg("Failed to record chat")
		}
	}

	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			log.Debug().Err(err).Msg("Failed to answer callback")
		}
		return c.Send("Select field size:", BuildSizePicker(h.cfg.Game.Sizes))
	}
	return c.Reply("Select field size:", BuildSizePicker(h.cfg.Game.Sizes))
}

// HandleSizeSelect handles the size selection callback and creates the
// session.
func (h *GameHandler) HandleSizeSelect(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	rows, cols, ok := DecodeSizeCallback(callbackData(c))
	if !ok || !h.sizeOffered(rows, cols) {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown field size."})
	}

	session, err := h.sessions.CreateSession(ctx, rows, cols, sender.ID, chat.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create game session")
		return c.Respond(&tele.CallbackResponse{Text: "Failed to start the game, please try again."})
	}

	if err := c.Respond(); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
	return c.Send(FormatGridHeader(session), BuildGrid(session))
}

// sizeOffered reports whether the size is one of the configured options.
func (h *GameHandler) sizeOffered(rows, cols int) bool {
	for _, size := range h.cfg.Game.Sizes {
		r, c, err := ParseSize(size)
		if err == nil && r == rows && c == cols {
			return true
		}
	}
	return false
}

// HandleGameCallback handles tile picks and the End Game button.
func (h *GameHandler) HandleGameCallback(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	gameID, action, index, ok := DecodeGameCallback(callbackData(c))
	if !ok {
		return c.Respond()
	}

	switch action {
	case "pick":
		return h.handlePick(c, gameID, index)
	case "end":
		return h.handleEnd(c, gameID)
	default:
		return c.Respond()
	}
}

// handlePick runs one reveal and reports the outcome as a transient
// callback answer. The field message is replaced after every resolution
// so the board reflects the new state.
func (h *GameHandler) handlePick(c tele.Context, gameID string, index int) error {
	ctx := context.Background()
	sender := c.Sender()

	result, err := h.sessions.Reveal(ctx, gameID, index, sender.ID, displayName(sender))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			return c.Respond(&tele.CallbackResponse{Text: "Too fast! Wait a second."})
		case errors.Is(err, repository.ErrGameNotFound):
			if err := c.Respond(); err != nil {
				log.Debug().Err(err).Msg("Failed to answer callback")
			}
			return c.Send("Game not found or expired.")
		case errors.Is(err, game.ErrGameFinished):
			return c.Respond(&tele.CallbackResponse{Text: "This game is already over."})
		case errors.Is(err, game.ErrInvalidPosition),
			errors.Is(err, game.ErrTileAlreadyMatched),
			errors.Is(err, game.ErrTileAlreadyRevealed):
			// Stale or double taps are ignored, matching the board state.
			return c.Respond()
		default:
			log.Error().Err(err).Str("game_id", gameID).Msg("Reveal failed")
			return c.Respond(&tele.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	}

	var answer string
	switch result.Outcome {
	case game.OutcomeSingle:
		// First tile of the pair, nothing to resolve yet.
		return c.Respond()
	case game.OutcomeMatch:
		answer = "Match! +10 points 🎉"
	case game.OutcomeFiller:
		answer = "Filler matched (no points)."
	default:
		answer = "Not a match."
	}
	if err := c.Respond(&tele.CallbackResponse{Text: answer}); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}

	if result.Finished {
		return c.Send(FormatSummary(result.Summary))
	}

	// Replace the field message so matched tiles show as checkmarks.
	if msg := c.Callback().Message; msg != nil {
		if err := c.Bot().Delete(msg); err != nil {
			log.Debug().Err(err).Msg("Failed to delete old field message")
		}
	}
	return c.Send(FormatGridHeader(result.Session), BuildGrid(result.Session))
}

// handleEnd finalizes the game early with whatever was scored so far.
func (h *GameHandler) handleEnd(c tele.Context, gameID string) error {
	ctx := context.Background()
	sender := c.Sender()

	summary, err := h.sessions.EndSession(ctx, gameID, sender.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrGameNotFound):
			if err := c.Respond(); err != nil {
				log.Debug().Err(err).Msg("Failed to answer callback")
			}
			return c.Send("Game not found or expired.")
		case errors.Is(err, game.ErrGameFinished):
			return c.Respond(&tele.CallbackResponse{Text: "This game is already over."})
		default:
			log.Error().Err(err).Str("game_id", gameID).Msg("End game failed")
			return c.Respond(&tele.CallbackResponse{Text: "Something went wrong, please try again."})
		}
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "Ending game..."}); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
	return c.Send(FormatSummary(summary))
}
