package targeting

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNotFound is returned when the target does not exist or has left the field.
	ErrTargetNotFound = errors.New("target not found")
	// ErrTargetNotAllowed is returned when the target kind is not accepted.
	ErrTargetNotAllowed = errors.New("target type not allowed")
)

// TargetValidator validates that selected targets are legal.
type TargetValidator struct {
	gameState TargetGameStateAccessor
}

// TargetGameStateAccessor provides access to match state needed for target validation.
type TargetGameStateAccessor interface {
	// FindPlayerForTarget finds player info by ID.
	FindPlayerForTarget(playerID string) (TargetPlayerInfo, bool)
	// FindCreatureForTarget finds a creature on either field by card ID.
	FindCreatureForTarget(cardID string) (TargetCardInfo, bool)
}

// TargetCardInfo provides information about a creature for target validation.
type TargetCardInfo struct {
	ID      string
	Name    string
	OwnerID string
	HP      int
	OnField bool
}

// TargetPlayerInfo provides information about a player for target validation.
type TargetPlayerInfo struct {
	PlayerID  string
	Name      string
	HP        int
	Forfeited bool
}

// NewTargetValidator creates a new target validator.
func NewTargetValidator(gameState TargetGameStateAccessor) *TargetValidator {
	return &TargetValidator{
		gameState: gameState,
	}
}

// ValidateTarget checks that target exists and is accepted by requirement.
func (tv *TargetValidator) ValidateTarget(target Target, requirement TargetRequirement) error {
	if tv == nil || tv.gameState == nil {
		return fmt.Errorf("target validator not initialized")
	}
	if target.IsZero() {
		return fmt.Errorf("empty target: %w", ErrTargetNotFound)
	}
	if !requirement.Allows(target.Type) {
		return fmt.Errorf("%s requires %s: %w", target, requirement.Description, ErrTargetNotAllowed)
	}

	switch target.Type {
	case TargetTypePlayer:
		player, ok := tv.gameState.FindPlayerForTarget(target.ID)
		if !ok {
			return fmt.Errorf("player %s: %w", target.ID, ErrTargetNotFound)
		}
		if player.Forfeited {
			return fmt.Errorf("player %s has forfeited: %w", player.Name, ErrTargetNotFound)
		}
	case TargetTypeCreature:
		card, ok := tv.gameState.FindCreatureForTarget(target.ID)
		if !ok || !card.OnField || card.HP <= 0 {
			return fmt.Errorf("creature %s: %w", target.ID, ErrTargetNotFound)
		}
	default:
		return fmt.Errorf("%s: %w", target, ErrTargetNotAllowed)
	}
	return nil
}
