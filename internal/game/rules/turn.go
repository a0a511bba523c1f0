package rules

import (
	"fmt"
	"strings"
)

// Phase represents the phases of a single player-turn.
type Phase int

const (
	// PhaseBlock resolves the attackers the opponent queued on their last turn.
	PhaseBlock Phase = iota
	// PhaseMain is where the active player draws, plays cards and declares attackers.
	PhaseMain
	// PhaseEnded is terminal: the match is over.
	PhaseEnded
)

var phaseNames = map[Phase]string{
	PhaseBlock: "BLOCK",
	PhaseMain:  "MAIN",
	PhaseEnded: "ENDED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// Default safety limits.
const (
	DefaultRoundLimit  = 100
	DefaultActionLimit = 100
)

// TurnManager tracks the active player, the current phase, the round counter
// and the per-turn action counter. Every player-turn is one round.
type TurnManager struct {
	turnNumber   int
	activePlayer string
	phase        Phase
	actions      int
	roundLimit   int
	actionLimit  int
}

// NewTurnManager creates a new turn manager at turn 1, block phase.
// Non-positive limits fall back to the defaults.
func NewTurnManager(activePlayer string, roundLimit, actionLimit int) *TurnManager {
	if roundLimit <= 0 {
		roundLimit = DefaultRoundLimit
	}
	if actionLimit <= 0 {
		actionLimit = DefaultActionLimit
	}
	return &TurnManager{
		turnNumber:   1,
		activePlayer: strings.TrimSpace(activePlayer),
		phase:        PhaseBlock,
		roundLimit:   roundLimit,
		actionLimit:  actionLimit,
	}
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return tm.phase
}

// TurnNumber returns the current turn number (1-based).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player who currently has the turn.
func (tm *TurnManager) ActivePlayer() string {
	return tm.activePlayer
}

// Actions returns the number of actions taken in the current main phase.
func (tm *TurnManager) Actions() int {
	return tm.actions
}

// ActionLimit returns the per-turn action ceiling.
func (tm *TurnManager) ActionLimit() int {
	return tm.actionLimit
}

// RoundLimit returns the match-wide turn ceiling.
func (tm *TurnManager) RoundLimit() int {
	return tm.roundLimit
}

// BeginMain moves from the block phase into the main phase.
func (tm *TurnManager) BeginMain() Phase {
	if tm.phase == PhaseBlock {
		tm.phase = PhaseMain
		tm.actions = 0
	}
	return tm.phase
}

// RecordAction counts one main-phase action and reports whether the
// action ceiling has now been reached.
func (tm *TurnManager) RecordAction() bool {
	tm.actions++
	return tm.actions >= tm.actionLimit
}

// EndTurn completes the current player-turn and hands the turn to nextActivePlayer.
// The next turn starts in the block phase.
func (tm *TurnManager) EndTurn(nextActivePlayer string) Phase {
	if tm.phase == PhaseEnded {
		return tm.phase
	}
	tm.turnNumber++
	if next := strings.TrimSpace(nextActivePlayer); next != "" {
		tm.activePlayer = next
	}
	tm.phase = PhaseBlock
	tm.actions = 0
	return tm.phase
}

// RoundLimitReached reports whether the round counter has hit the ceiling.
func (tm *TurnManager) RoundLimitReached() bool {
	return tm.turnNumber >= tm.roundLimit
}

// End moves the turn manager into its terminal phase.
func (tm *TurnManager) End() {
	tm.phase = PhaseEnded
}
