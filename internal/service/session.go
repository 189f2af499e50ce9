package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"emoji-pair-bot/internal/game"
	"emoji-pair-bot/internal/model"
	"emoji-pair-bot/internal/pkg/lock"
	"emoji-pair-bot/internal/repository"
)

// Common errors for session operations.
var (
	ErrRateLimited = errors.New("reveal attempted before cooldown expired")
)

// DefaultCooldown is the minimum delay between two reveal attempts by the
// same user.
const DefaultCooldown = time.Second

// sessionLockTimeout bounds how long an operation waits on a busy session
// lock before giving up with lock.ErrLockTimeout.
const sessionLockTimeout = 3 * time.Second

// RevealResult describes the outcome of a reveal attempt.
type RevealResult struct {
	Outcome game.Outcome
	Points  int64
	Session *model.GameSession
	// Finished is set when this reveal completed the grid; Summary then
	// carries the finalized per-player results.
	Finished bool
	Summary  []model.SummaryRow
}

// SessionService owns the game session lifecycle: creation, the reveal
// state machine, and finalization. All mutations of a session run under
// its per-session lock, so the two-phase reveal never observes a stale
// revealed set.
type SessionService struct {
	games      GameStore
	users      UserStore
	chats      ChatStore
	generator  *game.Generator
	locks      *lock.KeyLock
	cooldown   time.Duration
	pairReward int64
	now        func() time.Time
}

// NewSessionService creates a SessionService. A nil generator gets the
// default emoji pool; cooldown <= 0 falls back to DefaultCooldown and
// pairReward <= 0 to game.PairReward.
func NewSessionService(
	games GameStore,
	users UserStore,
	chats ChatStore,
	generator *game.Generator,
	locks *lock.KeyLock,
	cooldown time.Duration,
	pairReward int64,
) *SessionService {
	if generator == nil {
		generator = game.NewGenerator(nil, rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	if locks == nil {
		locks = lock.NewKeyLock()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if pairReward <= 0 {
		pairReward = game.PairReward
	}
	return &SessionService{
		games:      games,
		users:      users,
		chats:      chats,
		generator:  generator,
		locks:      locks,
		cooldown:   cooldown,
		pairReward: pairReward,
		now:        time.Now,
	}
}

// CreateSession generates a fresh shuffled grid and persists a new session
// owned by ownerID in chatID. The owner is seeded as the first participant.
func (s *SessionService) CreateSession(ctx context.Context, rows, cols int, ownerID, chatID int64) (*model.GameSession, error) {
	grid, filler, err := s.generator.Generate(rows, cols)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &model.GameSession{
		GameID:    fmt.Sprintf("%d_%d", now.UnixMilli(), ownerID),
		ChatID:    chatID,
		OwnerID:   ownerID,
		Rows:      rows,
		Cols:      cols,
		Grid:      grid,
		Revealed:  []int{},
		Filler:    filler,
		Players:   []model.PlayerStat{{UserID: ownerID}},
		StartedAt: now,
	}

	if err := s.games.Create(ctx, session); err != nil {
		return nil, err
	}

	log.Info().
		Str("game_id", session.GameID).
		Int64("chat_id", chatID).
		Int64("owner_id", ownerID).
		Int("rows", rows).
		Int("cols", cols).
		Msg("Game session created")

	return session, nil
}

// GetSession loads a session by id.
func (s *SessionService) GetSession(ctx context.Context, gameID string) (*model.GameSession, error) {
	return s.games.GetByID(ctx, gameID)
}

// Reveal runs one step of the reveal state machine for userID. The
// session must exist before anything else happens: a tap on a stale game
// id neither creates a profile nor arms the cooldown. After that the
// cooldown gate runs ahead of pick validation, so a rejected pick still
// consumes the cooldown. Every error leaves the session exactly as it was.
func (s *SessionService) Reveal(ctx context.Context, gameID string, position int, userID int64, username string) (*RevealResult, error) {
	if _, err := s.games.GetByID(ctx, gameID); err != nil {
		return nil, err
	}

	if _, _, err := s.users.GetOrCreate(ctx, userID, username); err != nil {
		return nil, err
	}

	if err := s.armCooldown(ctx, userID); err != nil {
		return nil, err
	}

	var result *RevealResult
	err := s.locks.WithLockContext(ctx, lock.SessionKey(gameID), sessionLockTimeout, func() error {
		var err error
		result, err = s.revealLocked(ctx, gameID, position, userID)
		return err
	})
	return result, err
}

// armCooldown is the cooldown gate: a compare-and-set on the user's
// cooldown_until. Failing the gate performs no mutation.
func (s *SessionService) armCooldown(ctx context.Context, userID int64) error {
	nowMillis := s.now().UnixMilli()
	armed, err := s.users.ArmCooldown(ctx, userID, nowMillis, nowMillis+s.cooldown.Milliseconds())
	if err != nil {
		return err
	}
	if !armed {
		return ErrRateLimited
	}
	return nil
}

// revealLocked is the state machine body. Caller holds the session lock.
func (s *SessionService) revealLocked(ctx context.Context, gameID string, position int, userID int64) (*RevealResult, error) {
	session, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err := game.CheckReveal(session, position); err != nil {
		return nil, err
	}

	// First reveal of the pair: persist and wait for the second.
	if len(session.Revealed) == 0 {
		session.Revealed = []int{position}
		if err := s.games.SetRevealed(ctx, gameID, session.Revealed); err != nil {
			return nil, err
		}
		return &RevealResult{Outcome: game.OutcomeSingle, Session: session}, nil
	}

	i1, i2 := session.Revealed[0], position
	outcome := game.Resolve(session, i1, i2)
	session.Revealed = []int{}

	var points int64
	switch outcome {
	case game.OutcomeMatch:
		points = s.pairReward
		session.PairsFound++
		session.Score += points

		player := session.Player(userID)
		if player == nil {
			session.Players = append(session.Players, model.PlayerStat{UserID: userID})
			player = &session.Players[len(session.Players)-1]
		}
		player.PairsFound++
		player.Score += points

		if err := s.games.ApplyResolution(ctx, session); err != nil {
			return nil, err
		}
		if err := s.users.IncrementMatchStats(ctx, userID, 1, points); err != nil {
			return nil, err
		}

	case game.OutcomeFiller:
		if err := s.games.ApplyResolution(ctx, session); err != nil {
			return nil, err
		}

	default: // mismatch: tiles turn face-down again
		if err := s.games.SetRevealed(ctx, gameID, session.Revealed); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("game_id", gameID).
		Int64("user_id", userID).
		Int("pos1", i1).
		Int("pos2", i2).
		Stringer("outcome", outcome).
		Msg("Pair resolved")

	result := &RevealResult{Outcome: outcome, Points: points, Session: session}

	if session.AllMatched() {
		summary, err := s.finalizeLocked(ctx, session)
		if err != nil {
			return nil, err
		}
		result.Finished = true
		result.Summary = summary
	}

	return result, nil
}

// EndSession finalizes a session before completion. Any participant (in
// fact, any user) may end a game; partial scores are rolled into lifetime
// stats exactly like a naturally completed game.
func (s *SessionService) EndSession(ctx context.Context, gameID string, requestingUserID int64) ([]model.SummaryRow, error) {
	var summary []model.SummaryRow
	err := s.locks.WithLockContext(ctx, lock.SessionKey(gameID), sessionLockTimeout, func() error {
		session, err := s.games.GetByID(ctx, gameID)
		if err != nil {
			return err
		}
		if session.IsFinished {
			return game.ErrGameFinished
		}

		log.Info().
			Str("game_id", gameID).
			Int64("user_id", requestingUserID).
			Msg("Game ended early")

		summary, err = s.finalizeLocked(ctx, session)
		return err
	})
	return summary, err
}

// finalizeLocked rolls the session results into lifetime user and chat
// statistics and marks the session finished. Caller holds the session
// lock; the finished flag flips exactly once.
func (s *SessionService) finalizeLocked(ctx context.Context, session *model.GameSession) ([]model.SummaryRow, error) {
	for _, player := range session.Players {
		err := s.locks.WithLock(lock.UserKey(player.UserID), func() error {
			err := s.users.IncrementGamesPlayed(ctx, player.UserID)
			if errors.Is(err, repository.ErrUserNotFound) {
				// The owner is on the roster from creation even without a
				// profile; lifetime stats only exist for registered users.
				return nil
			}
			if err != nil {
				return err
			}
			if player.Score > 0 {
				return s.users.RaiseBestScore(ctx, player.UserID, player.Score)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.chats.IncrementGamePlayed(ctx, session.ChatID); err != nil {
		return nil, err
	}

	finishedAt := s.now()
	if err := s.games.Finish(ctx, session.GameID, finishedAt); err != nil {
		return nil, err
	}
	session.IsFinished = true
	session.FinishedAt = &finishedAt

	// Summary rows follow player join order for a reproducible layout.
	summary := make([]model.SummaryRow, 0, len(session.Players))
	for _, player := range session.Players {
		name := fmt.Sprintf("User %d", player.UserID)
		if user, err := s.users.GetByID(ctx, player.UserID); err == nil && user.Username != "" {
			name = user.Username
		}
		summary = append(summary, model.SummaryRow{
			UserID:     player.UserID,
			Username:   name,
			Score:      player.Score,
			PairsFound: player.PairsFound,
		})
	}

	log.Info().
		Str("game_id", session.GameID).
		Int64("chat_id", session.ChatID).
		Int64("score", session.Score).
		Int("players", len(session.Players)).
		Msg("Game session finalized")

	return summary, nil
}
