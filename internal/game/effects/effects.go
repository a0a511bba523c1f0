// Package effects holds the spell effects that spell cards bind to by name.
package effects

import (
	"errors"
	"fmt"

	"github.com/magefree/hearth-server-go/internal/game/targeting"
)

// Effect amounts.
const (
	DrawAmount     = 2
	FireballDamage = 3
	HealAmount     = 5
)

// ErrUnsupportedTarget is returned when an effect is handed a target it cannot act on.
var ErrUnsupportedTarget = errors.New("unsupported target")

// Caster is the player casting a spell.
type Caster interface {
	PlayerID() string
}

// Target is anything a spell can be aimed at.
type Target interface {
	TargetType() targeting.TargetType
	TargetID() string
	// TakeDamage removes HP and resolves death for creatures.
	TakeDamage(amount int) error
	// RestoreHP adds HP up to the target's ceiling and returns the amount restored.
	RestoreHP(amount int) int
}

// Drawer is a target that can draw cards.
type Drawer interface {
	DrawCards(n int) int
}

// Func applies an effect from caster to target.
type Func func(caster Caster, target Target) (Result, error)

// Result summarises what an effect did.
type Result struct {
	Damage int
	Healed int
	Drawn  int
}

// Definition binds an effect name to its behaviour and legal targets.
type Definition struct {
	Name        string
	Description string
	Requirement targeting.TargetRequirement
	Apply       Func
}

// Draw makes the target player draw DrawAmount cards. Short decks draw what they can.
func Draw(_ Caster, target Target) (Result, error) {
	drawer, ok := target.(Drawer)
	if !ok || target.TargetType() != targeting.TargetTypePlayer {
		return Result{}, fmt.Errorf("draw on %s: %w", target.TargetType(), ErrUnsupportedTarget)
	}
	return Result{Drawn: drawer.DrawCards(DrawAmount)}, nil
}

// Fireball deals FireballDamage to the target.
func Fireball(_ Caster, target Target) (Result, error) {
	if err := target.TakeDamage(FireballDamage); err != nil {
		return Result{}, err
	}
	return Result{Damage: FireballDamage}, nil
}

// Heal restores up to HealAmount HP to the target.
func Heal(_ Caster, target Target) (Result, error) {
	return Result{Healed: target.RestoreHP(HealAmount)}, nil
}
