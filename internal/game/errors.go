package game

import "errors"

// Errors for grid generation and reveal resolution. All of them are
// expected, recoverable conditions reported back to the caller; a failing
// operation never mutates the session.
var (
	ErrInvalidGridSize     = errors.New("rows and cols must be at least 1")
	ErrSymbolPoolExhausted = errors.New("symbol pool too small for requested grid")
	ErrInvalidPosition     = errors.New("tile position outside the grid")
	ErrTileAlreadyMatched  = errors.New("tile is already matched")
	ErrTileAlreadyRevealed = errors.New("tile is already revealed")
	ErrGameFinished        = errors.New("game is already finished")
)
