// Package main is the entry point for the Emoji Pair Finder bot.
package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"emoji-pair-bot/internal/bot"
	"emoji-pair-bot/internal/config"
	"emoji-pair-bot/internal/game"
	"emoji-pair-bot/internal/pkg/db"
	"emoji-pair-bot/internal/pkg/lock"
	"emoji-pair-bot/internal/repository"
	"emoji-pair-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	chatRepo := repository.NewChatRepository(dbPool.Pool)
	gameRepo := repository.NewGameRepository(dbPool.Pool)

	// Initialize the per-session and per-user lock
	keyLock := lock.NewKeyLock()

	// Initialize services
	generator := game.NewGenerator(nil, rand.New(rand.NewSource(time.Now().UnixNano())))
	sessionService := service.NewSessionService(
		gameRepo,
		userRepo,
		chatRepo,
		generator,
		keyLock,
		cfg.Game.Cooldown,
		cfg.Game.PairReward,
	)
	profileService := service.NewProfileService(userRepo, chatRepo)
	rankingService := service.NewRankingService(userRepo, chatRepo)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:         cfg,
		SessionService: sessionService,
		ProfileService: profileService,
		RankingService: rankingService,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			games_played BIGINT NOT NULL DEFAULT 0,
			pairs_found BIGINT NOT NULL DEFAULT 0,
			total_points BIGINT NOT NULL DEFAULT 0,
			best_score BIGINT NOT NULL DEFAULT 0,
			language VARCHAR(8) NOT NULL DEFAULT 'en',
			cooldown_until BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_total_points ON users(total_points DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create chats table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS chats (
			chat_id BIGINT PRIMARY KEY,
			title VARCHAR(255) NOT NULL DEFAULT '',
			games_played BIGINT NOT NULL DEFAULT 0,
			total_activity BIGINT NOT NULL DEFAULT 0,
			left_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_chats_total_activity ON chats(total_activity DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: chats table created")

	// Migration 3: Create user_chats link table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_chats (
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			chat_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, chat_id)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: user_chats table created")

	// Migration 4: Create games table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			game_id VARCHAR(64) PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			owner_id BIGINT NOT NULL,
			grid_rows INT NOT NULL,
			grid_cols INT NOT NULL,
			grid JSONB NOT NULL,
			revealed JSONB NOT NULL DEFAULT '[]',
			filler VARCHAR(16) NOT NULL DEFAULT '',
			pairs_found BIGINT NOT NULL DEFAULT 0,
			score BIGINT NOT NULL DEFAULT 0,
			players JSONB NOT NULL DEFAULT '[]',
			is_finished BOOLEAN NOT NULL DEFAULT FALSE,
			started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			finished_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_games_chat_time ON games(chat_id, started_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: games table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
