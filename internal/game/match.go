package game

import "emoji-pair-bot/internal/model"

// PairReward is the score awarded for a correct pair.
const PairReward = 10

// Outcome classifies the resolution of two revealed tiles.
type Outcome int

const (
	// OutcomeSingle means only one tile is revealed; no resolution yet.
	OutcomeSingle Outcome = iota
	// OutcomeMatch means both tiles carry the same pool symbol.
	OutcomeMatch
	// OutcomeFiller means exactly one of the tiles is the filler; it is
	// matched on its own for zero points.
	OutcomeFiller
	// OutcomeMismatch means the tiles differ; both turn face-down again.
	OutcomeMismatch
)

// String returns a short name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeSingle:
		return "single"
	case OutcomeMatch:
		return "match"
	case OutcomeFiller:
		return "filler"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Classify decides the outcome of two revealed symbols. The comparison is
// symmetric, so reveal order never changes the result. filler is "" when
// the grid has no filler tile; only one filler tile ever exists, so both
// symbols being the filler cannot occur on distinct positions.
func Classify(sym1, sym2, filler string) Outcome {
	if sym1 == sym2 && sym1 != filler {
		return OutcomeMatch
	}
	if filler != "" && (sym1 == filler || sym2 == filler) {
		return OutcomeFiller
	}
	return OutcomeMismatch
}

// CheckReveal validates a reveal attempt against the current session state
// without mutating anything. It returns the first applicable error, or nil
// when the position may be revealed.
func CheckReveal(session *model.GameSession, position int) error {
	if session.IsFinished {
		return ErrGameFinished
	}
	if position < 0 || position >= session.Size() {
		return ErrInvalidPosition
	}
	if session.Grid[position].Matched {
		return ErrTileAlreadyMatched
	}
	for _, p := range session.Revealed {
		if p == position {
			return ErrTileAlreadyRevealed
		}
	}
	return nil
}

// Resolve applies the outcome of the two revealed positions to the grid
// in place and reports it. Match marks both tiles; filler marks only the
// filler tile; mismatch marks nothing. The revealed set is always the
// caller's to clear afterwards.
func Resolve(session *model.GameSession, i1, i2 int) Outcome {
	sym1 := session.Grid[i1].Symbol
	sym2 := session.Grid[i2].Symbol

	switch outcome := Classify(sym1, sym2, session.Filler); outcome {
	case OutcomeMatch:
		session.Grid[i1].Matched = true
		session.Grid[i2].Matched = true
		return outcome
	case OutcomeFiller:
		if sym1 == session.Filler {
			session.Grid[i1].Matched = true
		} else {
			session.Grid[i2].Matched = true
		}
		return outcome
	default:
		return OutcomeMismatch
	}
}
