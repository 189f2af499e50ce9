// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"emoji-pair-bot/internal/model"
)

// Callback data prefixes and plain actions.
const (
	// CallbackGamePrefix prefixes tile picks and game actions: game:<id>:<action>:<index>
	CallbackGamePrefix = "game:"
	// CallbackSizePrefix prefixes grid size selection: size:<rows>x<cols>
	CallbackSizePrefix = "size:"
	// CallbackLangPrefix prefixes language selection: lang:<code>
	CallbackLangPrefix = "lang:"

	CallbackStartNew = "start_new"
	CallbackHowPlay  = "how_play"
	CallbackBackMain = "back_main"
	CallbackOpenLang = "open_lang"
	CallbackNoop     = "noop"
)

// EncodeTilePick encodes a tile pick into callback data.
func EncodeTilePick(gameID string, index int) string {
	return fmt.Sprintf("%s%s:pick:%d", CallbackGamePrefix, gameID, index)
}

// EncodeEndGame encodes the end-game action into callback data.
func EncodeEndGame(gameID string) string {
	return fmt.Sprintf("%s%s:end:0", CallbackGamePrefix, gameID)
}

// DecodeGameCallback decodes game callback data into its parts. Game ids
// never contain ':', so a plain split is unambiguous.
func DecodeGameCallback(data string) (gameID, action string, index int, ok bool) {
	if !strings.HasPrefix(data, CallbackGamePrefix) {
		return "", "", 0, false
	}
	parts := strings.Split(strings.TrimPrefix(data, CallbackGamePrefix), ":")
	if len(parts) != 3 {
		return "", "", 0, false
	}
	index, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, false
	}
	return parts[0], parts[1], index, true
}

// EncodeSize encodes a grid size selection into callback data.
func EncodeSize(size string) string {
	return CallbackSizePrefix + size
}

// DecodeSizeCallback decodes size callback data into rows and cols.
func DecodeSizeCallback(data string) (rows, cols int, ok bool) {
	if !strings.HasPrefix(data, CallbackSizePrefix) {
		return 0, 0, false
	}
	rows, cols, err := ParseSize(strings.TrimPrefix(data, CallbackSizePrefix))
	if err != nil {
		return 0, 0, false
	}
	return rows, cols, true
}

// ParseSize parses a "RxC" size label such as "5x8".
func ParseSize(size string) (rows, cols int, err error) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q", size)
	}
	rows, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q", size)
	}
	cols, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q", size)
	}
	if rows <= 0 || cols <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q", size)
	}
	return rows, cols, nil
}

// EncodeLang encodes a language selection into callback data.
func EncodeLang(code string) string {
	return CallbackLangPrefix + code
}

// DecodeLangCallback decodes language callback data.
func DecodeLangCallback(data string) (code string, ok bool) {
	if !strings.HasPrefix(data, CallbackLangPrefix) {
		return "", false
	}
	return strings.TrimPrefix(data, CallbackLangPrefix), true
}

// WelcomeText is the /start greeting.
const WelcomeText = "🎮 Welcome to Emoji Pair Finder Game!\n" +
	"Match the emoji pairs and score points.\n" +
	"Play alone in DM or invite friends in your groups."

// HowToPlayText explains the rules behind the How to Play button.
const HowToPlayText = "📖 *How to Play*\n\n" +
	"1. Start a new game with /new or the Start Game button.\n" +
	"2. Choose a grid size: 5x5, 5x8, or 5x12.\n" +
	"3. The grid shows random emojis.\n" +
	"4. Tap emojis to match pairs:\n" +
	"   ✅ Matching pair = +10 points.\n" +
	"   ❌ Wrong pair = no penalty.\n" +
	"5. First to finish all pairs wins!\n" +
	"6. Anti-spam: 1 second cooldown between taps."

// BuildMainMenu builds the /start menu keyboard.
func BuildMainMenu(ownerUsername, botUsername string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = [][]tele.InlineButton{
		{{Text: "▶️ Start Game", Data: CallbackStartNew}},
		{{Text: "🎲 How to Play", Data: CallbackHowPlay}},
		{{Text: "👤 Owner & Support", URL: "https://t.me/" + ownerUsername}},
		{{Text: "🌐 Change Language", Data: CallbackOpenLang}},
		{{Text: "➕ Add Me to Chat", URL: "https://t.me/" + botUsername + "?startgroup=true"}},
	}
	return markup
}

// BuildHowToPlay builds the back button under the rules text.
func BuildHowToPlay() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = [][]tele.InlineButton{
		{{Text: "⬅️ Back", Data: CallbackBackMain}},
	}
	return markup
}

// BuildSizePicker builds one button per offered grid size.
func BuildSizePicker(sizes []string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	row := make([]tele.InlineButton, 0, len(sizes))
	for _, size := range sizes {
		row = append(row, tele.InlineButton{Text: size, Data: EncodeSize(size)})
	}
	markup.InlineKeyboard = [][]tele.InlineButton{row}
	return markup
}

// BuildGrid builds the playing field keyboard. Matched tiles render as a
// checkmark wired to a no-op, every other tile shows its emoji and picks
// that position. Restart and End Game controls sit under the field.
func BuildGrid(session *model.GameSession) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	keyboard := make([][]tele.InlineButton, 0, session.Rows+2)

	for r := 0; r < session.Rows; r++ {
		row := make([]tele.InlineButton, 0, session.Cols)
		for c := 0; c < session.Cols; c++ {
			idx := r*session.Cols + c
			tile := session.Grid[idx]
			if tile.Matched {
				row = append(row, tele.InlineButton{Text: "✅", Data: CallbackNoop})
			} else {
				row = append(row, tele.InlineButton{
					Text: tile.Symbol,
					Data: EncodeTilePick(session.GameID, idx),
				})
			}
		}
		keyboard = append(keyboard, row)
	}

	keyboard = append(keyboard,
		[]tele.InlineButton{{Text: "🔁 Restart", Data: CallbackStartNew}},
		[]tele.InlineButton{{Text: "🏁 End Game", Data: EncodeEndGame(session.GameID)}},
	)

	markup.InlineKeyboard = keyboard
	return markup
}

// BuildLanguagePicker builds the flag keyboard, four per row in code order.
func BuildLanguagePicker() *tele.ReplyMarkup {
	codes := make([]string, 0, len(model.LanguageFlags))
	for code := range model.LanguageFlags {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	markup := &tele.ReplyMarkup{}
	var keyboard [][]tele.InlineButton
	var row []tele.InlineButton
	for i, code := range codes {
		row = append(row, tele.InlineButton{
			Text: fmt.Sprintf("%s %s", model.LanguageFlags[code], strings.ToUpper(code)),
			Data: EncodeLang(code),
		})
		if len(row) == 4 || i == len(codes)-1 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	markup.InlineKeyboard = keyboard
	return markup
}

// FormatGridHeader formats the text above the playing field.
func FormatGridHeader(session *model.GameSession) string {
	return fmt.Sprintf("Emoji Pair Finder — %dx%d\nPairs found: %d • Score: %d",
		session.Rows, session.Cols, session.PairsFound, session.Score)
}

// FormatSummary formats the end-of-game results in player join order.
func FormatSummary(summary []model.SummaryRow) string {
	lines := []string{"🏁 Game Over! Results:"}
	for _, row := range summary {
		lines = append(lines, fmt.Sprintf("%s: %d pts • %d pairs", row.Username, row.Score, row.PairsFound))
	}
	return strings.Join(lines, "\n")
}
