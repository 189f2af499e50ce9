// Package game implements the core of the emoji pair finder: grid
// generation and reveal/match resolution. It is pure logic with no
// persistence or transport dependencies.
package game

import (
	"math/rand"

	"emoji-pair-bot/internal/model"
)

// FillerSymbol is the sentinel placed on the single unpaired tile of an
// odd-sized grid. It is distinct from every symbol in the pool and
// auto-matches for zero points.
const FillerSymbol = "⬜"

// DefaultSymbolPool is the emoji pool pairs are drawn from. It must stay
// large enough for the biggest offered grid (5x12 needs 30 pairs).
var DefaultSymbolPool = []string{
	"🍎", "🍌", "🍇", "🍓", "🍒", "🍑", "🍍", "🥝", "🍉", "🍋",
	"🥑", "🍅", "🥕", "🌽", "🥦", "🍄", "🌶️", "🥔", "🧄", "🧅",
	"🐶", "🐱", "🐭", "🐹", "🐰", "🦊", "🐻", "🐼", "🐨", "🐯",
	"🦁", "🐮", "🐷", "🐸", "🐵", "🐔", "🐧", "🐦", "🦆", "🦉",
	"⚽", "🏀", "🏈", "⚾", "🎾", "🏐", "🎱", "🏓", "🥊", "🎳",
	"🚗", "🚕", "🚌", "🚑", "🚒", "🚜", "🚀", "✈️", "🚁", "⛵",
	"🌟", "🌈", "🔥", "❄️", "⚡", "🌙", "☀️", "🌊",
}

// Generator produces shuffled tile layouts from a symbol pool.
type Generator struct {
	pool []string
	rng  *rand.Rand
}

// NewGenerator creates a Generator over the given pool. A nil or empty
// pool falls back to DefaultSymbolPool; a nil rng falls back to a
// time-seeded source via the global rand functions.
func NewGenerator(pool []string, rng *rand.Rand) *Generator {
	if len(pool) == 0 {
		pool = DefaultSymbolPool
	}
	return &Generator{pool: pool, rng: rng}
}

// PoolSize returns the number of distinct symbols available for pairs.
func (g *Generator) PoolSize() int {
	return len(g.pool)
}

// Generate produces a rows x cols grid. floor(rows*cols/2) distinct
// symbols are sampled from the pool without replacement, each placed
// exactly twice; an odd-sized grid gets one extra FillerSymbol tile.
// The deck is shuffled with an unbiased Fisher-Yates shuffle before being
// laid onto positions. The returned filler is FillerSymbol for odd grids
// and "" for even ones.
func (g *Generator) Generate(rows, cols int) ([]model.Tile, string, error) {
	if rows < 1 || cols < 1 {
		return nil, "", ErrInvalidGridSize
	}

	total := rows * cols
	pairCount := total / 2
	if pairCount > len(g.pool) {
		return nil, "", ErrSymbolPoolExhausted
	}

	symbols := g.sample(pairCount)

	deck := make([]string, 0, total)
	for _, s := range symbols {
		deck = append(deck, s, s)
	}

	filler := ""
	if total%2 == 1 {
		filler = FillerSymbol
		deck = append(deck, filler)
	}

	g.shuffle(deck)

	grid := make([]model.Tile, total)
	for i := range grid {
		grid[i] = model.Tile{Symbol: deck[i]}
	}
	return grid, filler, nil
}

// sample draws n distinct symbols from the pool without replacement.
func (g *Generator) sample(n int) []string {
	idx := g.perm(len(g.pool))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = g.pool[idx[i]]
	}
	return out
}

func (g *Generator) perm(n int) []int {
	if g.rng != nil {
		return g.rng.Perm(n)
	}
	return rand.Perm(n)
}

func (g *Generator) shuffle(deck []string) {
	swap := func(i, j int) { deck[i], deck[j] = deck[j], deck[i] }
	if g.rng != nil {
		g.rng.Shuffle(len(deck), swap)
		return
	}
	rand.Shuffle(len(deck), swap)
}
