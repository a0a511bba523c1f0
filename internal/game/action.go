package game

import (
	"github.com/magefree/hearth-server-go/internal/game/effects"
	"github.com/magefree/hearth-server-go/internal/game/targeting"
)

// ActionType names a player command.
type ActionType string

const (
	ActionPlayCard      ActionType = "PLAY_CARD"
	ActionDeclareAttack ActionType = "DECLARE_ATTACK"
	ActionBlock         ActionType = "BLOCK"
	ActionTakeHit       ActionType = "TAKE_HIT"
	ActionEndTurn       ActionType = "END_TURN"
	ActionForfeit       ActionType = "FORFEIT"
)

// PlayerAction is one command sent by a client.
type PlayerAction struct {
	Type      ActionType       `json:"type"`
	PlayerID  string           `json:"player_id"`
	CardID    string           `json:"card_id,omitempty"`
	BlockerID string           `json:"blocker_id,omitempty"`
	Target    targeting.Target `json:"target,omitempty"`
}

// ActionResult reports what an action did.
type ActionResult struct {
	Attack    *AttackOutcome  `json:"attack,omitempty"`
	Effect    *effects.Result `json:"effect,omitempty"`
	TurnEnded bool            `json:"turn_ended,omitempty"`
	MatchOver bool            `json:"match_over,omitempty"`
}
