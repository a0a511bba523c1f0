package game

import (
	"fmt"

	"github.com/magefree/hearth-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// AttackOutcome records what happened when one queued attacker resolved.
type AttackOutcome struct {
	AttackerID   string `json:"attacker_id"`
	DefenderID   string `json:"defender_id"`
	Blocked      bool   `json:"blocked"`
	Damage       int    `json:"damage"`
	Backlash     int    `json:"backlash"`
	Overkill     int    `json:"overkill"`
	AttackerDied bool   `json:"attacker_died"`
	DefenderDied bool   `json:"defender_died"`
}

// attack resolves attacker against target, which is either the defending
// *Player or a blocking creature *Card. Both sides take damage in the same
// step: the defender takes the attacker's attack, and the attacker takes
// back whatever the defender reflects (its own attack for a creature, 0 for
// a player) even if the defender died.
func (m *Match) attack(attacker *Card, target any) (AttackOutcome, error) {
	if !attacker.IsCreature() {
		return AttackOutcome{}, fmt.Errorf("%s attacks: %w", attacker.Name, ErrInvalidCardKind)
	}
	attackerOwner, ok := m.players[attacker.OwnerID]
	if !ok {
		return AttackOutcome{}, fmt.Errorf("attacker owner %s: %w", attacker.OwnerID, ErrPlayerNotFound)
	}

	out := AttackOutcome{AttackerID: attacker.ID, Damage: attacker.Creature.Attack}

	var backlash int
	switch t := target.(type) {
	case *Player:
		out.DefenderID = t.ID
		var err error
		if backlash, err = t.blockAttack(attacker); err != nil {
			return out, err
		}
		m.bus.Publish(m.event(rules.NewEventWithAmount(rules.EventUnblockedAttack, t.ID, attacker.ID, attacker.OwnerID, attacker.Creature.Attack)))
	case *Card:
		if !t.IsCreature() {
			return out, fmt.Errorf("%s attacks %s: %w", attacker.Name, t.Kind, ErrInvalidTargetType)
		}
		out.DefenderID = t.ID
		out.Blocked = true
		hpBefore := t.Creature.HP
		var err error
		if backlash, err = m.blockAttack(t, attacker); err != nil {
			return out, err
		}
		if t.Creature.HP <= 0 {
			out.DefenderDied = true
			out.Overkill = attacker.Creature.Attack - hpBefore
		}
	default:
		return out, fmt.Errorf("%s attacks %T: %w", attacker.Name, target, ErrInvalidTargetType)
	}

	out.Backlash = backlash
	if backlash > 0 {
		attacker.Creature.HP -= backlash
		evt := rules.NewEventWithFlag(rules.EventDamagedCreature, attacker.ID, out.DefenderID, "", true)
		evt.Amount = backlash
		evt.PlayerID = attacker.OwnerID
		if blocker, ok := target.(*Card); ok {
			evt.Controller = blocker.OwnerID
		}
		m.bus.Publish(m.event(evt))
	}
	if attacker.Creature.HP <= 0 {
		out.AttackerDied = true
		var killer *Card
		if blocker, ok := target.(*Card); ok {
			killer = blocker
		}
		if err := attackerOwner.killCreature(attacker, killer); err != nil {
			return out, err
		}
	}

	if m.logger != nil {
		m.logger.Debug("attack resolved",
			zap.String("match_id", m.ID),
			zap.String("attacker_id", out.AttackerID),
			zap.String("defender_id", out.DefenderID),
			zap.Int("damage", out.Damage),
			zap.Int("backlash", out.Backlash),
			zap.Int("overkill", out.Overkill),
		)
	}
	return out, nil
}

// blockAttack has a creature absorb an attack. When the blocker dies the
// overkill is forwarded to its owner before it leaves the field. It always
// returns the blocker's attack, the damage reflected onto the attacker.
func (m *Match) blockAttack(blocker, attacker *Card) (int, error) {
	owner, ok := m.players[blocker.OwnerID]
	if !ok {
		return 0, fmt.Errorf("blocker owner %s: %w", blocker.OwnerID, ErrPlayerNotFound)
	}

	blocker.Creature.HP -= attacker.Creature.Attack
	evt := rules.NewEventWithFlag(rules.EventDamagedCreature, blocker.ID, attacker.ID, attacker.OwnerID, true)
	evt.Amount = attacker.Creature.Attack
	evt.PlayerID = owner.ID
	m.bus.Publish(m.event(evt))

	if blocker.Creature.HP <= 0 {
		if overkill := -blocker.Creature.HP; overkill > 0 {
			if _, err := owner.blockAttack(Damage{Amount: overkill, Source: attacker}); err != nil {
				return 0, err
			}
		}
		if err := owner.killCreature(blocker, attacker); err != nil {
			return 0, err
		}
	}
	return blocker.Creature.Attack, nil
}
