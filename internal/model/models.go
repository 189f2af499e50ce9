// Package model defines the data models for the emoji pair finder bot.
package model

import "time"

// User represents a Telegram user profile with lifetime statistics.
// total_points and pairs_found only ever grow; best_score is the maximum
// single-session score ever recorded for the user.
type User struct {
	UserID        int64     `db:"user_id"`
	Username      string    `db:"username"`
	GamesPlayed   int64     `db:"games_played"`
	PairsFound    int64     `db:"pairs_found"`
	TotalPoints   int64     `db:"total_points"`
	BestScore     int64     `db:"best_score"`
	Language      string    `db:"language"`
	CooldownUntil int64     `db:"cooldown_until"` // unix milliseconds
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Chat represents a chat the bot has seen, with activity counters.
// LeftAt is set when the bot is removed from the chat and cleared again
// when it rejoins.
type Chat struct {
	ChatID        int64      `db:"chat_id"`
	Title         string     `db:"title"`
	GamesPlayed   int64      `db:"games_played"`
	TotalActivity int64      `db:"total_activity"`
	LeftAt        *time.Time `db:"left_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

// Tile is a single grid cell. The symbol never changes once placed;
// Matched flips false to true exactly once.
type Tile struct {
	Symbol  string `json:"symbol"`
	Matched bool   `json:"matched"`
}

// PlayerStat tracks one participant's counters within a single game.
// Participants are kept in join order so the finish summary is reproducible.
type PlayerStat struct {
	UserID     int64 `json:"user_id"`
	PairsFound int64 `json:"pairs_found"`
	Score      int64 `json:"score"`
}

// GameSession is one in-progress or completed match game, scoped to a chat.
// Finished sessions are never deleted and never mutated again.
type GameSession struct {
	GameID     string       `db:"game_id"`
	ChatID     int64        `db:"chat_id"`
	OwnerID    int64        `db:"owner_id"`
	Rows       int          `db:"grid_rows"`
	Cols       int          `db:"grid_cols"`
	Grid       []Tile       `db:"grid"`
	Revealed   []int        `db:"revealed"`
	Filler     string       `db:"filler"` // empty when the grid has no filler tile
	PairsFound int64        `db:"pairs_found"`
	Score      int64        `db:"score"`
	Players    []PlayerStat `db:"players"`
	IsFinished bool         `db:"is_finished"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt *time.Time   `db:"finished_at"`
}

// Size returns the total number of tiles in the session's grid.
func (g *GameSession) Size() int {
	return g.Rows * g.Cols
}

// Player returns the participant record for userID, or nil if the user
// has not acted in this session yet.
func (g *GameSession) Player(userID int64) *PlayerStat {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

// AllMatched reports whether every tile in the grid has been matched.
func (g *GameSession) AllMatched() bool {
	for i := range g.Grid {
		if !g.Grid[i].Matched {
			return false
		}
	}
	return true
}

// SummaryRow is one line of a finished-game summary.
type SummaryRow struct {
	UserID     int64
	Username   string
	Score      int64
	PairsFound int64
}

// DefaultLanguage is the language assigned to newly created users.
const DefaultLanguage = "en"

// LanguageFlags maps the languages selectable via /language to their flags.
var LanguageFlags = map[string]string{
	"en": "🇺🇸",
	"in": "🇮🇳",
	"ru": "🇷🇺",
	"tr": "🇹🇷",
	"id": "🇮🇩",
	"br": "🇧🇷",
	"mx": "🇲🇽",
	"ua": "🇺🇦",
}
