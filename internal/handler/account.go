package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emoji-pair-bot/internal/config"
	"emoji-pair-bot/internal/model"
	"emoji-pair-bot/internal/service"
)

// AccountHandler handles profile, chat listing, privacy and language
// commands.
type AccountHandler struct {
	cfg      *config.Config
	profiles *service.ProfileService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(cfg *config.Config, profiles *service.ProfileService) *AccountHandler {
	return &AccountHandler{
		cfg:      cfg,
		profiles: profiles,
	}
}

// HandleStart handles the /start command with the main menu.
func (h *AccountHandler) HandleStart(c tele.Context) error {
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

	return c.Send(WelcomeText, BuildMainMenu(h.cfg.Owner.Username, h.cfg.Bot.Username))
}

// HandleHowPlay handles the How to Play button.
func (h *AccountHandler) HandleHowPlay(c tele.Context) error {
	if err := c.Respond(); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
	return c.Edit(HowToPlayText, BuildHowToPlay(), tele.ModeMarkdown)
}

// HandleBackMain handles the Back button under the rules text.
func (h *AccountHandler) HandleBackMain(c tele.Context) error {
	if err := c.Respond(); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
	return c.Edit(WelcomeText, BuildMainMenu(h.cfg.Owner.Username, h.cfg.Bot.Username))
}

// HandleProfile handles the /profile command.
func (h *AccountHandler) HandleProfile(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	if _, _, err := h.profiles.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Reply("Something went wrong, please try again.")
	}

	profile, err := h.profiles.ProfileOf(ctx, sender.ID)
	if err != nil {
		return c.Reply("Something went wrong, please try again.")
	}

	return c.Reply(fmt.Sprintf(
		"👤 Profile — @%s\n"+
			"Total games: %d\n"+
			"Pairs found: %d\n"+
			"Total points: %d\n"+
			"Best score: %d\n"+
			"Global rank: #%d",
		displayName(sender),
		profile.User.GamesPlayed,
		profile.User.PairsFound,
		profile.User.TotalPoints,
		profile.User.BestScore,
		profile.Rank,
	))
}

// HandleChats handles the /chat command listing where the user has played.
func (h *AccountHandler) HandleChats(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	chats, err := h.profiles.ChatsOf(ctx, sender.ID)
	if err != nil {
		return c.Reply("Something went wrong, please try again.")
	}
	if len(chats) == 0 {
		return c.Reply("No chats recorded.")
	}

	lines := []string{"Chats:"}
	for _, chat := range chats {
		title := chat.Title
		if title == "" {
			title = "Chat"
		}
		lines = append(lines, fmt.Sprintf("- %s (id: %d)", title, chat.ChatID))
	}
	return c.Reply(strings.Join(lines, "\n"))
}

// HandlePrivacy handles the /privacy command.
func (h *AccountHandler) HandlePrivacy(c tele.Context) error {
	return c.Reply("Privacy Policy:\nThis bot stores only minimal game stats. No personal data is shared.")
}

// HandleLanguage handles /language and the Change Language button.
func (h *AccountHandler) HandleLanguage(c tele.Context) error {
	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			log.Debug().Err(err).Msg("Failed to answer callback")
		}
		return c.Send("Choose language:", BuildLanguagePicker())
	}
	return c.Reply("Choose language:", BuildLanguagePicker())
}

// HandleLanguageSelect handles a flag button press.
func (h *AccountHandler) HandleLanguageSelect(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	code, ok := DecodeLangCallback(callbackData(c))
	if !ok {
		return c.Respond()
	}

	if _, _, err := h.profiles.EnsureUser(ctx, sender.ID, displayName(sender)); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Something went wrong, please try again."})
	}
	if err := h.profiles.SetLanguage(ctx, sender.ID, code); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Unknown language."})
	}

	if err := c.Respond(&tele.CallbackResponse{
		Text: fmt.Sprintf("Language set to %s", strings.ToUpper(code)),
	}); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
	return c.Edit(fmt.Sprintf("Language updated to %s", model.LanguageFlags[code]))
}
