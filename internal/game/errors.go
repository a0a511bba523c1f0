package game

import "errors"

// Rule violations raised by players and cards.
var (
	// ErrUnitNotFound means a creature was expected on a field it is not on.
	ErrUnitNotFound = errors.New("unit not found on field")
	// ErrCardNotFound means a card was expected in a hand it is not in.
	ErrCardNotFound = errors.New("card not found in hand")
	// ErrInsufficientMana rejects a play the player cannot pay for.
	ErrInsufficientMana = errors.New("insufficient mana")
	// ErrInvalidCardKind means a card is neither a creature nor a playable spell.
	ErrInvalidCardKind = errors.New("invalid card kind")
	// ErrInvalidTargetType means an attack or effect was aimed at something it cannot affect.
	ErrInvalidTargetType = errors.New("invalid target type")
)

// Engine and match level errors. All of these are recoverable.
var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrWrongPhase     = errors.New("action not allowed in this phase")
	ErrCannotAttack   = errors.New("creature cannot attack")
	ErrCannotDefend   = errors.New("creature cannot defend")
	ErrMatchOver      = errors.New("match is over")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrUnknownAction  = errors.New("unknown action")
)

// IsFatal reports whether err signals a broken invariant rather than a
// rejected player choice. Fatal errors should never reach a player.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnitNotFound) ||
		errors.Is(err, ErrInvalidCardKind) ||
		errors.Is(err, ErrInvalidTargetType)
}
