package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/magefree/hearth-server-go/internal/game/catalog"
)

// CardKind tags which payload a Card carries.
type CardKind int

const (
	KindCreature CardKind = iota + 1
	KindSpell
)

func (k CardKind) String() string {
	switch k {
	case KindCreature:
		return "CREATURE"
	case KindSpell:
		return "SPELL"
	default:
		return fmt.Sprintf("KIND_%d", int(k))
	}
}

// Zone is the container a card currently sits in.
type Zone int

const (
	ZoneDeck Zone = iota
	ZoneHand
	ZoneField
	ZoneDiscard
)

var zoneNames = map[Zone]string{
	ZoneDeck:    "deck",
	ZoneHand:    "hand",
	ZoneField:   "field",
	ZoneDiscard: "discard",
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return fmt.Sprintf("zone_%d", int(z))
}

// CreatureStats is the payload of a creature card.
type CreatureStats struct {
	Attack    int
	HP        int
	MaxHP     int
	CanAttack bool
	CanDefend bool
}

// SpellStats is the payload of a spell card.
type SpellStats struct {
	Effect      string
	Description string
}

// Card is a single physical card. Exactly one of Creature or Spell is set,
// matching Kind.
type Card struct {
	ID      string
	Name    string
	Cost    int
	Kind    CardKind
	OwnerID string // empty while the card is still in a deck
	Zone    Zone

	Creature *CreatureStats
	Spell    *SpellStats
}

// NewCreatureCard creates a creature card at full health.
func NewCreatureCard(name string, cost, attack, hp int) *Card {
	return &Card{
		ID:   uuid.NewString(),
		Name: name,
		Cost: cost,
		Kind: KindCreature,
		Zone: ZoneDeck,
		Creature: &CreatureStats{
			Attack: attack,
			HP:     hp,
			MaxHP:  hp,
		},
	}
}

// NewSpellCard creates a spell card bound to the named effect.
func NewSpellCard(name string, cost int, effect, description string) *Card {
	return &Card{
		ID:   uuid.NewString(),
		Name: name,
		Cost: cost,
		Kind: KindSpell,
		Zone: ZoneDeck,
		Spell: &SpellStats{
			Effect:      effect,
			Description: description,
		},
	}
}

// NewCardFromTemplate prints a fresh card from a catalog template.
func NewCardFromTemplate(t catalog.Template) (*Card, error) {
	switch t.Kind {
	case catalog.KindUnit:
		return NewCreatureCard(t.Name, t.Cost, t.Attack, t.HP), nil
	case catalog.KindSpell:
		return NewSpellCard(t.Name, t.Cost, t.Effect, t.Description), nil
	default:
		return nil, fmt.Errorf("template %q: %w", t.Name, ErrInvalidCardKind)
	}
}

// IsCreature reports whether the card carries a creature payload.
func (c *Card) IsCreature() bool {
	return c != nil && c.Kind == KindCreature && c.Creature != nil
}

// IsSpell reports whether the card carries a spell payload.
func (c *Card) IsSpell() bool {
	return c != nil && c.Kind == KindSpell && c.Spell != nil
}

// Attack returns the creature's attack value, or 0 for non-creatures.
func (c *Card) Attack() int {
	if !c.IsCreature() {
		return 0
	}
	return c.Creature.Attack
}

// Alive reports whether a creature still has HP left.
func (c *Card) Alive() bool {
	return c.IsCreature() && c.Creature.HP > 0
}

// String renders the card the way the board display shows it.
func (c *Card) String() string {
	switch {
	case c.IsCreature():
		return fmt.Sprintf("%s [Cost=%d, ATK=%d, HP=%d]", c.Name, c.Cost, c.Creature.Attack, c.Creature.HP)
	case c.IsSpell():
		return fmt.Sprintf("%s [Cost=%d, SPELL: %s]", c.Name, c.Cost, c.Spell.Description)
	default:
		return fmt.Sprintf("%s [Cost=%d]", c.Name, c.Cost)
	}
}

// Copy returns a deep copy of the card.
func (c *Card) Copy() *Card {
	if c == nil {
		return nil
	}
	out := *c
	if c.Creature != nil {
		stats := *c.Creature
		out.Creature = &stats
	}
	if c.Spell != nil {
		stats := *c.Spell
		out.Spell = &stats
	}
	return &out
}

func (c *Card) moveTo(zone Zone, ownerID string) {
	c.Zone = zone
	c.OwnerID = ownerID
}
