package game

import (
	"fmt"
	"time"

	"github.com/magefree/hearth-server-go/internal/game/effects"
	"github.com/magefree/hearth-server-go/internal/game/rules"
	"github.com/magefree/hearth-server-go/internal/game/targeting"
)

// MatchView is the state of a match as one player is allowed to see it.
type MatchView struct {
	MatchID        string       `json:"match_id"`
	Phase          string       `json:"phase"`
	Round          int          `json:"round"`
	ActivePlayerID string       `json:"active_player_id"`
	Players        []PlayerView `json:"players"`
	Pending        *CardView    `json:"pending_attacker,omitempty"`
	Result         *Result      `json:"result,omitempty"`
	StartedAt      time.Time    `json:"started_at"`
	Messages       []string     `json:"messages"`
}

// PlayerView represents a player's side of the board.
type PlayerView struct {
	PlayerID    string     `json:"player_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	HP          int        `json:"hp"`
	Mana        int        `json:"mana"`
	MaxMana     int        `json:"max_mana"`
	DeckCount   int        `json:"deck_count"`
	HandCount   int        `json:"hand_count"`
	Hand        []CardView `json:"hand"`
	Field       []CardView `json:"field"`
	Discard     []CardView `json:"discard"`
	AttackQueue []string   `json:"attack_queue"`
	Forfeited   bool       `json:"forfeited"`
}

// CardView represents a card in any zone.
type CardView struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Cost      int    `json:"cost"`
	Attack    int    `json:"attack,omitempty"`
	HP        int    `json:"hp,omitempty"`
	MaxHP     int    `json:"max_hp,omitempty"`
	Effect    string `json:"effect,omitempty"`
	CanAttack bool   `json:"can_attack"`
	CanDefend bool   `json:"can_defend"`
	FaceDown  bool   `json:"face_down,omitempty"`
	Zone      string `json:"zone"`
	Display   string `json:"display,omitempty"`
}

// TargetOption is one legal target for a spell, labelled for menus.
type TargetOption struct {
	Target targeting.Target `json:"target"`
	Label  string           `json:"label"`
}

// Status renders the turn banner shown at the start of a player's turn.
func (p *Player) Status() string {
	return fmt.Sprintf("%s's TURN (HP=%d, Mana=%d/%d)", p.Name, p.HP, p.Mana.Current(), p.Mana.Max())
}

// NewCardView renders a card for clients.
func NewCardView(c *Card) CardView {
	view := CardView{
		ID:      c.ID,
		Name:    c.Name,
		Kind:    c.Kind.String(),
		Cost:    c.Cost,
		Zone:    c.Zone.String(),
		Display: c.String(),
	}
	if c.IsCreature() {
		view.Attack = c.Creature.Attack
		view.HP = c.Creature.HP
		view.MaxHP = c.Creature.MaxHP
		view.CanAttack = c.Creature.CanAttack
		view.CanDefend = c.Creature.CanDefend
	}
	if c.IsSpell() {
		view.Effect = c.Spell.Effect
	}
	return view
}

// NewCardViews renders each card in order.
func NewCardViews(cards []*Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = NewCardView(c)
	}
	return views
}

// View returns the match as seen by playerID. Other players' hands are
// face down. An empty playerID is a spectator and sees no hands.
func (m *Match) View(playerID string) MatchView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view(playerID, false)
}

// view builds a MatchView; revealAll shows every hand. Callers hold m.mu.
func (m *Match) view(playerID string, revealAll bool) MatchView {
	view := MatchView{
		MatchID:        m.ID,
		Phase:          m.turn.CurrentPhase().String(),
		Round:          m.turn.TurnNumber(),
		ActivePlayerID: m.turn.ActivePlayer(),
		Players:        make([]PlayerView, 0, len(m.order)),
		StartedAt:      m.startedAt,
		Messages:       make([]string, len(m.messages)),
	}
	copy(view.Messages, m.messages)
	if m.result != nil {
		res := *m.result
		view.Result = &res
	}
	if pending := m.pendingAttacker(); pending != nil {
		cv := NewCardView(pending)
		view.Pending = &cv
	}

	for _, id := range m.order {
		pv := m.players[id].view(revealAll || id == playerID)
		view.Players = append(view.Players, pv)
	}
	return view
}

func (p *Player) view(showHand bool) PlayerView {
	pv := PlayerView{
		PlayerID:  p.ID,
		Name:      p.Name,
		Status:    p.Status(),
		HP:        p.HP,
		Mana:      p.Mana.Current(),
		MaxMana:   p.Mana.Max(),
		DeckCount: p.Deck.Len(),
		HandCount: len(p.Hand),
		Field:     NewCardViews(p.Field),
		Discard:   NewCardViews(p.Discard),
		Forfeited: p.Forfeited,
	}
	for _, c := range p.AttackQueue {
		pv.AttackQueue = append(pv.AttackQueue, c.ID)
	}
	// Only show hand to the owning player
	if showHand {
		pv.Hand = NewCardViews(p.Hand)
	} else {
		pv.Hand = make([]CardView, len(p.Hand))
		for i, c := range p.Hand {
			pv.Hand[i] = CardView{ID: c.ID, FaceDown: true, Zone: ZoneHand.String()}
		}
	}
	return pv
}

// pendingAttacker is the attacker the active player must answer next, or
// nil outside the block phase.
func (m *Match) pendingAttacker() *Card {
	if m.result != nil || m.turn.CurrentPhase() != rules.PhaseBlock {
		return nil
	}
	active, ok := m.players[m.turn.ActivePlayer()]
	if !ok {
		return nil
	}
	opp := m.opponentOf(active)
	for _, c := range opp.AttackQueue {
		if _, idx := opp.findOnField(c.ID); idx >= 0 && c.Alive() {
			return c
		}
	}
	return nil
}

// Player returns a snapshot of the seated player as they see themselves.
func (m *Match) Player(playerID string) (PlayerView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return PlayerView{}, false
	}
	return p.view(true), true
}

// PlayerIDs returns both player IDs in seating order.
func (m *Match) PlayerIDs() [2]string {
	return m.order
}

func (m *Match) copyCards(playerID string, pick func(*Player) []*Card) []*Card {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil
	}
	cards := pick(p)
	out := make([]*Card, len(cards))
	for i, c := range cards {
		out[i] = c.Copy()
	}
	return out
}

// PlayableCards lists the cards of kind in playerID's hand that they can
// afford. A zero kind lists both kinds.
func (m *Match) PlayableCards(playerID string, kind CardKind) []*Card {
	return m.copyCards(playerID, func(p *Player) []*Card { return p.PlayableCards(kind) })
}

// AttackCandidates lists playerID's creatures that can still attack.
func (m *Match) AttackCandidates(playerID string) []*Card {
	return m.copyCards(playerID, (*Player).AttackCandidates)
}

// DefendCandidates lists playerID's creatures that can block.
func (m *Match) DefendCandidates(playerID string) []*Card {
	return m.copyCards(playerID, (*Player).DefendCandidates)
}

// spellTargets lists the legal targets for a spell in p's hand: the two
// players first, caster before opponent, then every creature on the field.
func (m *Match) spellTargets(p *Player, card *Card) ([]TargetOption, error) {
	def, ok := effects.Lookup(card.Spell.Effect)
	if !ok {
		return nil, fmt.Errorf("%s: %w", card.Name, ErrInvalidCardKind)
	}

	var options []TargetOption
	for _, owner := range []*Player{p, m.opponentOf(p)} {
		t := targeting.PlayerTarget(owner.ID)
		if m.validator.ValidateTarget(t, def.Requirement) == nil {
			options = append(options, TargetOption{Target: t, Label: fmt.Sprintf("%s (HP=%d)", owner.Name, owner.HP)})
		}
	}
	for _, owner := range []*Player{p, m.opponentOf(p)} {
		for _, c := range owner.Field {
			t := targeting.CreatureTarget(c.ID)
			if m.validator.ValidateTarget(t, def.Requirement) == nil {
				options = append(options, TargetOption{Target: t, Label: fmt.Sprintf("%s's %s", owner.Name, c)})
			}
		}
	}
	return options, nil
}

// SpellChoice is a castable spell with its legal targets.
type SpellChoice struct {
	Card    CardView       `json:"card"`
	Targets []TargetOption `json:"targets"`
}

// Choices lists what the active player may do right now. In the block
// phase that is the pending attacker and the creatures able to block it;
// in the main phase it is the affordable cards and ready attackers.
type Choices struct {
	PlayerID  string        `json:"player_id"`
	Phase     string        `json:"phase"`
	Pending   *CardView     `json:"pending_attacker,omitempty"`
	Blockers  []CardView    `json:"blockers,omitempty"`
	Units     []CardView    `json:"units,omitempty"`
	Spells    []SpellChoice `json:"spells,omitempty"`
	Attackers []CardView    `json:"attackers,omitempty"`
}

// Choices returns the active player's legal moves. It is empty once the
// match is over.
func (m *Match) Choices() Choices {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Choices{PlayerID: m.turn.ActivePlayer(), Phase: m.turn.CurrentPhase().String()}
	p, ok := m.players[out.PlayerID]
	if !ok || m.result != nil || !m.started {
		return out
	}

	switch m.turn.CurrentPhase() {
	case rules.PhaseBlock:
		if pending := m.pendingAttacker(); pending != nil {
			cv := NewCardView(pending)
			out.Pending = &cv
			out.Blockers = NewCardViews(p.DefendCandidates())
		}
	case rules.PhaseMain:
		out.Units = NewCardViews(p.PlayableCards(KindCreature))
		for _, c := range p.PlayableCards(KindSpell) {
			targets, err := m.spellTargets(p, c)
			if err != nil || len(targets) == 0 {
				continue
			}
			out.Spells = append(out.Spells, SpellChoice{Card: NewCardView(c), Targets: targets})
		}
		out.Attackers = NewCardViews(p.AttackCandidates())
	}
	return out
}

// Phase returns the current phase.
func (m *Match) Phase() rules.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn.CurrentPhase()
}

// Round returns the round counter, which starts at 1 and advances every
// player-turn.
func (m *Match) Round() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn.TurnNumber()
}

// ActivePlayerID returns the player whose turn it is.
func (m *Match) ActivePlayerID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn.ActivePlayer()
}

// IsOver reports whether the match has finished.
func (m *Match) IsOver() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.result != nil
}

// Result returns the outcome once the match is over.
func (m *Match) Result() (Result, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.result == nil {
		return Result{}, false
	}
	return *m.result, true
}

// Messages returns the match log.
func (m *Match) Messages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}

// Stats summarises what the match watchers have recorded for one player.
type Stats struct {
	SpellsCast    int `json:"spells_cast"`
	CardsPlayed   int `json:"cards_played"`
	UnitsPlayed   int `json:"units_played"`
	CardsDrawn    int `json:"cards_drawn"`
	CreaturesLost int `json:"creatures_lost"`
	Kills         int `json:"kills"`
	DamageDealt   int `json:"damage_dealt"`
	DamageTaken   int `json:"damage_taken"`
}

// Stats returns the watcher totals for playerID.
func (m *Match) Stats(playerID string) Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		SpellsCast:    m.spellsCast.GetCount(playerID),
		CardsPlayed:   m.cardsPlayed.GetCount(playerID),
		UnitsPlayed:   m.cardsPlayed.GetCreatureCount(playerID),
		CardsDrawn:    m.cardsDrawn.GetCount(playerID),
		CreaturesLost: m.creaturesDied.GetAmountByOwner(playerID),
		Kills:         m.creaturesDied.GetKills(playerID),
		DamageDealt:   m.damage.GetDealt(playerID),
		DamageTaken:   m.damage.GetTaken(playerID),
	}
}
