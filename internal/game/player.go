package game

import (
	"fmt"

	"github.com/magefree/hearth-server-go/internal/game/deck"
	"github.com/magefree/hearth-server-go/internal/game/effects"
	"github.com/magefree/hearth-server-go/internal/game/mana"
	"github.com/magefree/hearth-server-go/internal/game/rules"
	"github.com/magefree/hearth-server-go/internal/game/targeting"
)

// Damage is an amount of damage attributed to the card that caused it.
// Source may be nil for unattributed damage.
type Damage struct {
	Amount int
	Source *Card
}

// Player is one seat of a match: health, mana, and the cards they hold.
type Player struct {
	ID      string
	Name    string
	HP      int
	MaxHP   int
	Mana    *mana.Pool
	Deck    *deck.Deck[*Card]
	Hand    []*Card
	Field   []*Card
	Discard []*Card
	// AttackQueue holds creatures declared as attackers, resolved in the
	// opponent's next block phase.
	AttackQueue []*Card
	Forfeited   bool
	OpponentID  string

	publish func(rules.Event)
}

// NewPlayer creates a player with the given deck, top card first.
func NewPlayer(id, name string, hp int, pool *mana.Pool, cards []*Card) *Player {
	if pool == nil {
		pool = mana.NewDefaultPool()
	}
	d := deck.New[*Card]()
	for _, c := range cards {
		c.moveTo(ZoneDeck, "")
		d.AddCard(c)
	}
	return &Player{
		ID:    id,
		Name:  name,
		HP:    hp,
		MaxHP: hp,
		Mana:  pool,
		Deck:  d,
	}
}

// PlayerID implements effects.Caster.
func (p *Player) PlayerID() string {
	return p.ID
}

func (p *Player) emit(evt rules.Event) {
	if p.publish != nil {
		p.publish(evt)
	}
}

// DrawCards moves up to n cards from the top of the deck to the end of the
// hand and returns how many were drawn. An empty deck is not an error.
func (p *Player) DrawCards(n int) int {
	drawn := 0
	for i := 0; i < n; i++ {
		card, ok := p.Deck.RemoveCard()
		if !ok {
			p.emit(rules.NewEvent(rules.EventDeckEmpty, p.ID, "", p.ID))
			break
		}
		card.moveTo(ZoneHand, p.ID)
		p.Hand = append(p.Hand, card)
		drawn++
		evt := rules.NewEvent(rules.EventDrewCard, p.ID, card.ID, p.ID)
		evt.Zone = ZoneHand.String()
		p.emit(evt)
	}
	return drawn
}

// IncrementMana grows the mana maximum by one (up to the cap) and refills the pool.
func (p *Player) IncrementMana() {
	p.Mana.Increment()
	p.emit(rules.NewEventWithAmount(rules.EventManaIncremented, p.ID, "", p.ID, p.Mana.Max()))
}

// ResetActions lets every creature on the field attack and defend again.
func (p *Player) ResetActions() {
	for _, c := range p.Field {
		c.Creature.CanAttack = true
		c.Creature.CanDefend = true
	}
	p.emit(rules.NewEventWithAmount(rules.EventActionsReset, p.ID, "", p.ID, len(p.Field)))
}

// IsAlive is false once the player forfeits, drops to 0 HP, or has nothing
// left in deck, hand and field.
func (p *Player) IsAlive() bool {
	if p.Forfeited || p.HP <= 0 {
		return false
	}
	return !p.IsStarved()
}

// IsStarved reports whether deck, hand and field are all empty.
func (p *Player) IsStarved() bool {
	return p.Deck.IsEmpty() && len(p.Hand) == 0 && len(p.Field) == 0
}

// Forfeit concedes the match immediately.
func (p *Player) Forfeit() {
	p.Forfeited = true
	p.HP = 0
	p.emit(rules.NewEvent(rules.EventForfeited, p.ID, "", p.ID))
}

// UnitAttack queues a creature from the player's field as an attacker.
// The creature can neither attack nor defend again until the next reset.
func (p *Player) UnitAttack(card *Card) error {
	if _, idx := p.findOnField(card.ID); idx < 0 {
		return fmt.Errorf("%s: %w", card.Name, ErrUnitNotFound)
	}
	if !card.Creature.CanAttack {
		return fmt.Errorf("%s: %w", card.Name, ErrCannotAttack)
	}
	p.AttackQueue = append(p.AttackQueue, card)
	card.Creature.CanAttack = false
	card.Creature.CanDefend = false
	p.emit(rules.NewEventWithAmount(rules.EventAttackerDeclared, p.OpponentID, card.ID, p.ID, card.Creature.Attack))
	return nil
}

// PlayCardFromHand pays for card and plays it. Creatures enter the field
// unable to act until the next reset; spells resolve immediately against
// target, which defaults to the player. Nothing changes when validation fails.
func (p *Player) PlayCardFromHand(card *Card, target effects.Target) (effects.Result, error) {
	if _, idx := p.findInHand(card.ID); idx < 0 {
		return effects.Result{}, fmt.Errorf("%s: %w", card.Name, ErrCardNotFound)
	}

	var def effects.Definition
	switch {
	case card.IsCreature():
	case card.IsSpell():
		var ok bool
		def, ok = effects.Lookup(card.Spell.Effect)
		if !ok {
			return effects.Result{}, fmt.Errorf("%s: effect %q: %w", card.Name, card.Spell.Effect, ErrInvalidCardKind)
		}
		if target == nil {
			target = playerTarget{player: p, source: card}
		}
		if !def.Requirement.Allows(target.TargetType()) {
			return effects.Result{}, fmt.Errorf("%s cannot target a %s: %w", card.Name, target.TargetType(), ErrInvalidTargetType)
		}
	default:
		return effects.Result{}, fmt.Errorf("%s: %w", card.Name, ErrInvalidCardKind)
	}

	if !p.Mana.Spend(card.Cost) {
		return effects.Result{}, fmt.Errorf("%s costs %d, have %d: %w", card.Name, card.Cost, p.Mana.Current(), ErrInsufficientMana)
	}
	p.emit(rules.NewEventWithAmount(rules.EventManaPaid, p.ID, card.ID, p.ID, card.Cost))

	// Cannot fail: presence was checked above.
	_ = p.removeFromHand(card)
	card.OwnerID = p.ID
	p.emit(rules.NewEvent(rules.EventCardPlayed, card.ID, card.ID, p.ID))

	if card.IsCreature() {
		card.Creature.CanAttack = false
		card.Creature.CanDefend = false
		card.moveTo(ZoneField, p.ID)
		p.Field = append(p.Field, card)
		evt := rules.NewEvent(rules.EventCreatureCast, card.ID, card.ID, p.ID)
		evt.Zone = ZoneField.String()
		p.emit(evt)
		return effects.Result{}, nil
	}

	p.toDiscard(card)
	res, err := def.Apply(p, target)
	if err != nil {
		return res, fmt.Errorf("%s: %v: %w", card.Name, err, ErrInvalidTargetType)
	}
	evt := rules.NewEventWithAmount(rules.EventSpellCast, target.TargetID(), card.ID, p.ID, res.Damage+res.Healed+res.Drawn)
	evt.Data = card.Spell.Effect
	p.emit(evt)
	return res, nil
}

// blockAttack takes a hit. x is an attacking creature, a raw amount, or an
// attributed Damage. Players never reflect damage, so the result is always 0.
func (p *Player) blockAttack(x any) (int, error) {
	switch v := x.(type) {
	case *Card:
		if !v.IsCreature() {
			return 0, fmt.Errorf("%s blocks %s: %w", p.Name, v.Kind, ErrInvalidTargetType)
		}
		p.damage(v.Creature.Attack, v, true)
	case int:
		p.damage(v, nil, false)
	case Damage:
		p.damage(v.Amount, v.Source, true)
	default:
		return 0, fmt.Errorf("%s blocks %T: %w", p.Name, x, ErrInvalidTargetType)
	}
	return 0, nil
}

func (p *Player) damage(amount int, source *Card, combat bool) {
	p.HP -= amount
	evt := rules.NewEventWithFlag(rules.EventDamagedPlayer, p.ID, "", "", combat)
	evt.PlayerID = p.ID
	evt.Amount = amount
	if source != nil {
		evt.SourceID = source.ID
		evt.Controller = source.OwnerID
	}
	p.emit(evt)
}

func (p *Player) restoreHP(amount int, source *Card) int {
	before := p.HP
	if p.HP < p.MaxHP {
		p.HP = min(p.MaxHP, p.HP+amount)
	}
	healed := p.HP - before
	evt := rules.NewEventWithAmount(rules.EventGainedLife, p.ID, "", "", healed)
	evt.PlayerID = p.ID
	if source != nil {
		evt.SourceID = source.ID
		evt.Controller = source.OwnerID
	}
	p.emit(evt)
	return healed
}

// killCreature removes a dead creature from the field into the discard pile.
func (p *Player) killCreature(card *Card, killer *Card) error {
	if err := p.removeFromField(card); err != nil {
		return err
	}
	p.toDiscard(card)
	evt := rules.NewEvent(rules.EventCreatureDied, card.ID, "", p.ID)
	evt.Zone = ZoneDiscard.String()
	if killer != nil {
		evt.SourceID = killer.ID
		evt.Controller = killer.OwnerID
		evt.PlayerID = p.ID
	}
	p.emit(evt)
	return nil
}

func (p *Player) findInHand(cardID string) (*Card, int) {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return c, i
		}
	}
	return nil, -1
}

func (p *Player) findOnField(cardID string) (*Card, int) {
	for i, c := range p.Field {
		if c.ID == cardID {
			return c, i
		}
	}
	return nil, -1
}

func (p *Player) removeFromHand(card *Card) error {
	_, idx := p.findInHand(card.ID)
	if idx < 0 {
		return fmt.Errorf("%s: %w", card.Name, ErrCardNotFound)
	}
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return nil
}

func (p *Player) removeFromField(card *Card) error {
	_, idx := p.findOnField(card.ID)
	if idx < 0 {
		return fmt.Errorf("%s: %w", card.Name, ErrUnitNotFound)
	}
	p.Field = append(p.Field[:idx], p.Field[idx+1:]...)
	return nil
}

func (p *Player) toDiscard(card *Card) {
	card.moveTo(ZoneDiscard, p.ID)
	p.Discard = append(p.Discard, card)
}

// PlayableCards lists hand cards of the given kind the player can afford now.
// A zero kind matches every card.
func (p *Player) PlayableCards(kind CardKind) []*Card {
	var out []*Card
	for _, c := range p.Hand {
		if kind != 0 && c.Kind != kind {
			continue
		}
		if p.Mana.CanAfford(c.Cost) {
			out = append(out, c)
		}
	}
	return out
}

// AttackCandidates lists field creatures that may still attack this turn.
func (p *Player) AttackCandidates() []*Card {
	var out []*Card
	for _, c := range p.Field {
		if c.Creature.CanAttack {
			out = append(out, c)
		}
	}
	return out
}

// DefendCandidates lists field creatures that may block.
func (p *Player) DefendCandidates() []*Card {
	var out []*Card
	for _, c := range p.Field {
		if c.Creature.CanDefend && c.Creature.HP > 0 {
			out = append(out, c)
		}
	}
	return out
}

// playerTarget aims a spell at a player, remembering the card that caused it.
type playerTarget struct {
	player *Player
	source *Card
}

func (t playerTarget) TargetType() targeting.TargetType { return targeting.TargetTypePlayer }
func (t playerTarget) TargetID() string                 { return t.player.ID }

func (t playerTarget) TakeDamage(amount int) error {
	_, err := t.player.blockAttack(Damage{Amount: amount, Source: t.source})
	return err
}

func (t playerTarget) RestoreHP(amount int) int {
	return t.player.restoreHP(amount, t.source)
}

func (t playerTarget) DrawCards(n int) int {
	return t.player.DrawCards(n)
}

// creatureTarget aims a spell at a creature on its owner's field.
type creatureTarget struct {
	card   *Card
	owner  *Player
	source *Card
}

func (t creatureTarget) TargetType() targeting.TargetType { return targeting.TargetTypeCreature }
func (t creatureTarget) TargetID() string                 { return t.card.ID }

// TakeDamage removes the creature as soon as it drops to 0 HP. Spell damage
// never carries over to the owner.
func (t creatureTarget) TakeDamage(amount int) error {
	t.card.Creature.HP -= amount
	evt := rules.NewEventWithAmount(rules.EventDamagedCreature, t.card.ID, "", "", amount)
	evt.PlayerID = t.owner.ID
	if t.source != nil {
		evt.SourceID = t.source.ID
		evt.Controller = t.source.OwnerID
	}
	t.owner.emit(evt)
	if t.card.Creature.HP <= 0 {
		return t.owner.killCreature(t.card, t.source)
	}
	return nil
}

func (t creatureTarget) RestoreHP(amount int) int {
	stats := t.card.Creature
	before := stats.HP
	if stats.HP < stats.MaxHP {
		stats.HP = min(stats.MaxHP, stats.HP+amount)
	}
	return stats.HP - before
}
