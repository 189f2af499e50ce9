// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"emoji-pair-bot/internal/config"
	"emoji-pair-bot/internal/handler"
	"emoji-pair-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	sessions *service.SessionService
	profiles *service.ProfileService
	rankings *service.RankingService

	// Handlers
	accountHandler *handler.AccountHandler
	gameHandler    *handler.GameHandler
	rankingHandler *handler.RankingHandler
	adminHandler   *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	SessionService *service.SessionService
	ProfileService *service.ProfileService
	RankingService *service.RankingService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		sessions: deps.SessionService,
		profiles: deps.ProfileService,
		rankings: deps.RankingService,
	}

	// Initialize handlers
	b.accountHandler = handler.NewAccountHandler(deps.Config, deps.ProfileService)
	b.gameHandler = handler.NewGameHandler(deps.Config, deps.SessionService, deps.ProfileService)
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService)
	b.adminHandler = handler.NewAdminHandler(deps.Config, deps.ProfileService)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/profile", b.accountHandler.HandleProfile)
	b.bot.Handle("/chat", b.accountHandler.HandleChats)
	b.bot.Handle("/privacy", b.accountHandler.HandlePrivacy)
	b.bot.Handle("/language", b.accountHandler.HandleLanguage)

	// Game handlers
	b.bot.Handle("/new", b.gameHandler.HandleNew)
	b.bot.Handle("/play", b.gameHandler.HandleNew)

	// Ranking handler
	b.bot.Handle("/leaderboard", b.rankingHandler.HandleLeaderboard)

	// Owner handler; authorization happens inside the handler
	b.bot.Handle("/broadcast", b.adminHandler.HandleBroadcast)

	// Membership bookkeeping
	b.bot.Handle(tele.OnAddedToGroup, b.handleAddedToGroup)
	b.bot.Handle(tele.OnUserLeft, b.handleUserLeft)

	// Generic callback handler for all inline buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleAddedToGroup records the chat when the bot joins a group.
func (b *Bot) handleAddedToGroup(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	ctx := context.Background()
	if _, _, err := b.profiles.EnsureUser(ctx, sender.ID, senderName(sender)); err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to ensure inviting user")
		return nil
	}
	if err := b.profiles.RecordChatSeen(ctx, sender.ID, chat.ID, chat.Title); err != nil {
		log.Warn().Err(err).Int64("chat_id", chat.ID).Msg("Failed to record joined chat")
	}
	return nil
}

// handleUserLeft marks the chat when the bot itself is removed.
func (b *Bot) handleUserLeft(c tele.Context) error {
	chat := c.Chat()
	message := c.Message()
	if chat == nil || message == nil || message.UserLeft == nil {
		return nil
	}
	if message.UserLeft.ID != b.bot.Me.ID {
		return nil
	}

	if err := b.profiles.MarkChatLeft(context.Background(), chat.ID); err != nil {
		log.Warn().Err(err).Int64("chat_id", chat.ID).Msg("Failed to mark chat left")
	}
	return nil
}

// handleCallback routes callbacks to appropriate handlers.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	switch {
	case strings.HasPrefix(data, handler.CallbackGamePrefix):
		return b.gameHandler.HandleGameCallback(c)
	case strings.HasPrefix(data, handler.CallbackSizePrefix):
		return b.gameHandler.HandleSizeSelect(c)
	case strings.HasPrefix(data, handler.CallbackLangPrefix):
		return b.accountHandler.HandleLanguageSelect(c)
	}

	switch data {
	case handler.CallbackStartNew:
		return b.gameHandler.HandleNew(c)
	case handler.CallbackHowPlay:
		return b.accountHandler.HandleHowPlay(c)
	case handler.CallbackBackMain:
		return b.accountHandler.HandleBackMain(c)
	case handler.CallbackOpenLang:
		return b.accountHandler.HandleLanguage(c)
	case handler.CallbackNoop:
		return c.Respond()
	}

	log.Debug().Str("data", data).Msg("Unroutable callback")
	return c.Respond()
}

// senderName picks the best available name for a Telegram user.
func senderName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return sender.FirstName
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
