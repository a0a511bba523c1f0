package game

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/magefree/hearth-server-go/internal/game/catalog"
	"github.com/magefree/hearth-server-go/internal/game/effects"
	"github.com/magefree/hearth-server-go/internal/game/mana"
	"github.com/magefree/hearth-server-go/internal/game/rules"
	"github.com/magefree/hearth-server-go/internal/game/targeting"
	"github.com/magefree/hearth-server-go/internal/game/watchers"
	"go.uber.org/zap"
)

// MatchConfig holds the numbers a match is played with.
type MatchConfig struct {
	StartingHP      int
	StartingMaxMana int
	ManaCap         int
	OpeningHand     int
	DeckSize        int
	DrawsPerTurn    int
	RoundLimit      int
	ActionLimit     int
}

// DefaultMatchConfig returns the standard rules.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		StartingHP:      20,
		StartingMaxMana: mana.DefaultStartingMax,
		ManaCap:         mana.DefaultCap,
		OpeningHand:     5,
		DeckSize:        30,
		DrawsPerTurn:    1,
		RoundLimit:      rules.DefaultRoundLimit,
		ActionLimit:     rules.DefaultActionLimit,
	}
}

// Reason explains how a match ended.
type Reason string

const (
	ReasonForfeit    Reason = "forfeit"
	ReasonLife       Reason = "life"
	ReasonDeckedOut  Reason = "decked_out"
	ReasonRoundLimit Reason = "round_limit"
)

// Result is the outcome of a finished match. WinnerID and LoserID are empty
// when the match hit the round limit.
type Result struct {
	WinnerID string `json:"winner_id,omitempty"`
	LoserID  string `json:"loser_id,omitempty"`
	Reason   Reason `json:"reason"`
	Round    int    `json:"round"`
}

// CheckWin evaluates the end conditions for p1 and p2 without changing
// anything. Forfeits are checked before health, and health before running
// out of cards; p1 is checked before p2 at each step. It returns nil while
// both players are still in the game.
func CheckWin(p1, p2 *Player) *Result {
	lose := func(loser, winner *Player, reason Reason) *Result {
		return &Result{WinnerID: winner.ID, LoserID: loser.ID, Reason: reason}
	}
	switch {
	case p1.Forfeited:
		return lose(p1, p2, ReasonForfeit)
	case p2.Forfeited:
		return lose(p2, p1, ReasonForfeit)
	case p1.HP <= 0:
		return lose(p1, p2, ReasonLife)
	case p2.HP <= 0:
		return lose(p2, p1, ReasonLife)
	case p1.IsStarved():
		return lose(p1, p2, ReasonDeckedOut)
	case p2.IsStarved():
		return lose(p2, p1, ReasonDeckedOut)
	}
	return nil
}

// PlayerSetup seats one player.
type PlayerSetup struct {
	ID   string
	Name string
	Deck []catalog.Template
}

// MatchOptions configures a new match.
type MatchOptions struct {
	ID      string
	Players [2]PlayerSetup
	Config  MatchConfig
	// RNG drives the coin toss. A nil RNG uses a time-based seed.
	RNG *rand.Rand
	// FirstPlayerID skips the coin toss when set.
	FirstPlayerID string
}

// Match is one two-player game. All state lives here; callers go through
// its methods, which serialise on the match lock.
type Match struct {
	ID string

	mu        sync.RWMutex
	cfg       MatchConfig
	players   map[string]*Player
	order     [2]string
	turn      *rules.TurnManager
	bus       *rules.EventBus
	watchers  *rules.WatcherRegistry
	validator *targeting.TargetValidator
	rng       *rand.Rand
	result    *Result
	messages  []string
	started   bool
	startedAt time.Time
	endedAt   time.Time
	logger    *zap.Logger

	spellsCast    *watchers.SpellsCastWatcher
	creaturesDied *watchers.CreaturesDiedWatcher
	damage        *watchers.DamageWatcher
	cardsPlayed   *watchers.CardsPlayedWatcher
	cardsDrawn    *watchers.CardsDrawnWatcher
}

// NewMatch seats both players with freshly printed decks. Call Start to
// toss the coin and deal opening hands.
func NewMatch(opts MatchOptions, logger *zap.Logger) (*Match, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("match ID is required")
	}
	cfg := opts.Config
	if cfg.StartingHP <= 0 {
		cfg = DefaultMatchConfig()
	}
	p1, p2 := opts.Players[0], opts.Players[1]
	if p1.ID == "" || p2.ID == "" || p1.ID == p2.ID {
		return nil, fmt.Errorf("two distinct player IDs are required")
	}
	rng := opts.RNG
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}

	m := &Match{
		ID:       opts.ID,
		cfg:      cfg,
		players:  make(map[string]*Player, 2),
		order:    [2]string{p1.ID, p2.ID},
		bus:      rules.NewEventBus(),
		watchers: rules.NewWatcherRegistry(),
		rng:      rng,
		logger:   logger,
	}

	for _, setup := range opts.Players {
		cards := make([]*Card, 0, len(setup.Deck))
		for _, tmpl := range setup.Deck {
			card, err := NewCardFromTemplate(tmpl)
			if err != nil {
				return nil, err
			}
			cards = append(cards, card)
		}
		name := setup.Name
		if name == "" {
			name = setup.ID
		}
		p := NewPlayer(setup.ID, name, cfg.StartingHP, mana.NewPool(cfg.StartingMaxMana, cfg.ManaCap), cards)
		p.publish = m.publish
		m.players[p.ID] = p
	}
	if m.players[p1.ID].Name == m.players[p2.ID].Name {
		return nil, fmt.Errorf("player name %q is taken: two distinct player names are required", m.players[p1.ID].Name)
	}
	m.players[p1.ID].OpponentID = p2.ID
	m.players[p2.ID].OpponentID = p1.ID

	first := p1.ID
	if opts.FirstPlayerID != "" {
		if _, ok := m.players[opts.FirstPlayerID]; !ok {
			return nil, fmt.Errorf("first player %s: %w", opts.FirstPlayerID, ErrPlayerNotFound)
		}
		first = opts.FirstPlayerID
	} else if m.rng.IntN(2) == 1 {
		first = p2.ID
	}
	m.turn = rules.NewTurnManager(first, cfg.RoundLimit, cfg.ActionLimit)
	m.validator = targeting.NewTargetValidator(m)

	m.spellsCast = watchers.NewSpellsCastWatcher()
	m.creaturesDied = watchers.NewCreaturesDiedWatcher()
	m.damage = watchers.NewDamageWatcher()
	m.cardsPlayed = watchers.NewCardsPlayedWatcher()
	m.cardsDrawn = watchers.NewCardsDrawnWatcher()
	for _, w := range []rules.Watcher{m.spellsCast, m.creaturesDied, m.damage, m.cardsPlayed, m.cardsDrawn} {
		m.watchers.AddWatcher(w)
	}
	m.watchers.Attach(m.bus)

	return m, nil
}

// Start deals opening hands and begins the first turn.
func (m *Match) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("match %s already started", m.ID)
	}
	m.started = true
	m.startedAt = time.Now()

	for _, id := range m.order {
		m.players[id].DrawCards(m.cfg.OpeningHand)
	}

	first := m.players[m.turn.ActivePlayer()]
	m.addMessage(fmt.Sprintf("%s won the coin toss and goes first.", first.Name))
	m.bus.Publish(m.event(rules.NewEvent(rules.EventMatchStarted, m.ID, "", first.ID)))
	if m.logger != nil {
		m.logger.Info("match started",
			zap.String("match_id", m.ID),
			zap.String("first_player", first.ID),
			zap.Int("deck_size", first.Deck.Len()+len(first.Hand)),
		)
	}

	m.beginTurn()
	return nil
}

// Subscribe registers a listener on the match event bus.
func (m *Match) Subscribe(listener rules.Listener) {
	m.bus.Subscribe(listener)
}

func (m *Match) publish(evt rules.Event) {
	m.bus.Publish(m.event(evt))
}

func (m *Match) event(evt rules.Event) rules.Event {
	evt.MatchID = m.ID
	return evt
}

func (m *Match) addMessage(text string) {
	m.messages = append(m.messages, text)
}

func (m *Match) opponentOf(p *Player) *Player {
	return m.players[p.OpponentID]
}

func (m *Match) beginTurn() {
	active := m.players[m.turn.ActivePlayer()]
	attackers := m.pendingQueue(m.opponentOf(active))

	m.bus.Publish(m.event(rules.NewEventWithAmount(rules.EventTurnStarted, active.ID, "", active.ID, m.turn.TurnNumber())))
	m.addMessage(fmt.Sprintf("=== ROUND %d: %s ===", m.turn.TurnNumber(), active.Name))
	if m.logger != nil {
		m.logger.Debug("turn started",
			zap.String("match_id", m.ID),
			zap.String("player_id", active.ID),
			zap.Int("round", m.turn.TurnNumber()),
			zap.Int("incoming_attackers", len(attackers)),
		)
	}

	if len(attackers) > 0 {
		m.publishPhase(active)
		return
	}
	m.endBlockPhase()
}

// pendingQueue drops queued attackers that have left the field and returns
// what remains.
func (m *Match) pendingQueue(attacker *Player) []*Card {
	for len(attacker.AttackQueue) > 0 {
		head := attacker.AttackQueue[0]
		if _, idx := attacker.findOnField(head.ID); idx >= 0 && head.Alive() {
			break
		}
		attacker.AttackQueue = attacker.AttackQueue[1:]
	}
	return attacker.AttackQueue
}

func (m *Match) endBlockPhase() {
	if m.checkGameOver() {
		return
	}
	active := m.players[m.turn.ActivePlayer()]
	m.turn.BeginMain()
	m.publishPhase(active)

	active.IncrementMana()
	active.ResetActions()
	drawn := active.DrawCards(m.cfg.DrawsPerTurn)
	m.addMessage(fmt.Sprintf("%s has drawn %d card(s).", active.Name, drawn))
}

func (m *Match) publishPhase(active *Player) {
	evt := rules.NewEvent(rules.EventPhaseChanged, active.ID, "", active.ID)
	evt.Data = m.turn.CurrentPhase().String()
	m.bus.Publish(m.event(evt))
}

func (m *Match) endTurn() {
	active := m.players[m.turn.ActivePlayer()]
	m.bus.Publish(m.event(rules.NewEventWithAmount(rules.EventTurnEnded, active.ID, "", active.ID, m.turn.Actions())))
	m.turn.EndTurn(active.OpponentID)
	if m.checkGameOver() {
		return
	}
	m.beginTurn()
}

// afterMainAction finishes the match as soon as either player is out and
// ends the turn once the action ceiling is hit.
func (m *Match) afterMainAction(p *Player) {
	limit := m.turn.RecordAction()
	if !p.IsAlive() || !m.opponentOf(p).IsAlive() {
		m.checkGameOver()
		return
	}
	if limit {
		if m.logger != nil {
			m.logger.Warn("action limit reached, ending turn",
				zap.String("match_id", m.ID),
				zap.String("player_id", p.ID),
				zap.Int("actions", m.turn.Actions()),
				zap.Int("limit", m.turn.ActionLimit()),
			)
		}
		m.endTurn()
	}
}

func (m *Match) checkGameOver() bool {
	if m.result != nil {
		return true
	}
	res := CheckWin(m.players[m.order[0]], m.players[m.order[1]])
	if res == nil && m.turn.RoundLimitReached() {
		res = &Result{Reason: ReasonRoundLimit}
	}
	if res == nil {
		return false
	}
	m.finish(res)
	return true
}

func (m *Match) finish(res *Result) {
	res.Round = m.turn.TurnNumber()
	m.result = res
	m.turn.End()
	m.endedAt = time.Now()

	switch res.Reason {
	case ReasonRoundLimit:
		m.addMessage(fmt.Sprintf("Round limit of %d reached. No winner.", m.turn.RoundLimit()))
		m.bus.Publish(m.event(rules.NewEventWithAmount(rules.EventRoundLimit, "", "", "", m.turn.RoundLimit())))
	default:
		winner, loser := m.players[res.WinnerID], m.players[res.LoserID]
		var why string
		switch res.Reason {
		case ReasonForfeit:
			why = "forfeited the game"
		case ReasonLife:
			why = "has no more HP"
		case ReasonDeckedOut:
			why = "has no more cards to play"
		}
		m.addMessage(fmt.Sprintf("%s wins because %s %s!", winner.Name, loser.Name, why))
		m.bus.Publish(m.event(rules.NewEvent(rules.EventWins, winner.ID, "", winner.ID)))
		m.bus.Publish(m.event(rules.NewEvent(rules.EventLost, loser.ID, "", loser.ID)))
	}

	evt := rules.NewEventWithAmount(rules.EventMatchEnded, res.WinnerID, "", res.WinnerID, res.Round)
	evt.Data = string(res.Reason)
	m.bus.Publish(m.event(evt))

	if m.logger != nil {
		m.logger.Info("match ended",
			zap.String("match_id", m.ID),
			zap.String("winner", res.WinnerID),
			zap.String("reason", string(res.Reason)),
			zap.Int("round", res.Round),
		)
	}
}

// requireActive resolves playerID and checks it may act in phase.
func (m *Match) requireActive(playerID string, phase rules.Phase) (*Player, error) {
	if !m.started {
		return nil, fmt.Errorf("match %s has not started: %w", m.ID, ErrWrongPhase)
	}
	if m.result != nil {
		return nil, fmt.Errorf("match %s: %w", m.ID, ErrMatchOver)
	}
	p, ok := m.players[playerID]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrPlayerNotFound)
	}
	if m.turn.ActivePlayer() != playerID {
		return nil, fmt.Errorf("%s: %w", p.Name, ErrNotYourTurn)
	}
	if current := m.turn.CurrentPhase(); current != phase {
		return nil, fmt.Errorf("%s needs %s, match is in %s: %w", p.Name, phase, current, ErrWrongPhase)
	}
	return p, nil
}

func (m *Match) logRejected(p *Player, action string, err error) {
	if m.logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("match_id", m.ID),
		zap.String("player_id", p.ID),
		zap.String("action", action),
		zap.Error(err),
	}
	if IsFatal(err) {
		m.logger.Error("action violated match invariants", fields...)
		return
	}
	m.logger.Warn("action rejected", fields...)
}

// ResolveBlock resolves the next queued attacker against the defending
// player. An empty blockerID means the player takes the hit; otherwise the
// named creature from their field blocks. The block phase ends once the
// queue is empty or the defender is out of the game.
func (m *Match) ResolveBlock(playerID, blockerID string) (AttackOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defender, err := m.requireActive(playerID, rules.PhaseBlock)
	if err != nil {
		return AttackOutcome{}, err
	}
	attackerOwner := m.opponentOf(defender)
	queue := m.pendingQueue(attackerOwner)
	if len(queue) == 0 {
		m.endBlockPhase()
		return AttackOutcome{}, fmt.Errorf("no attacker to block: %w", ErrWrongPhase)
	}
	attacker := queue[0]

	var target any = defender
	if blockerID != "" {
		blocker, idx := defender.findOnField(blockerID)
		if idx < 0 || !blocker.Creature.CanDefend || !blocker.Alive() {
			err := fmt.Errorf("blocker %s: %w", blockerID, ErrCannotDefend)
			m.logRejected(defender, "block", err)
			return AttackOutcome{}, err
		}
		target = blocker
		m.bus.Publish(m.event(rules.NewEvent(rules.EventBlockerDeclared, attacker.ID, blocker.ID, defender.ID)))
	}

	out, err := m.attack(attacker, target)
	if err != nil {
		m.logRejected(defender, "block", err)
		return out, err
	}
	attackerOwner.AttackQueue = attackerOwner.AttackQueue[1:]
	m.bus.Publish(m.event(rules.NewEventWithAmount(rules.EventAttackResolved, out.DefenderID, attacker.ID, attackerOwner.ID, out.Damage)))

	if out.Blocked {
		m.addMessage(fmt.Sprintf("%s blocked %s.", defender.Name, attacker.Name))
	} else {
		m.addMessage(fmt.Sprintf("%s has taken %d damage. HP = %d", defender.Name, out.Damage, defender.HP))
	}

	if !defender.IsAlive() || len(m.pendingQueue(attackerOwner)) == 0 {
		m.endBlockPhase()
	}
	return out, nil
}

// PlayCard plays a card from the active player's hand. Spells need a target
// allowed by their effect; a zero target means the caster.
func (m *Match) PlayCard(playerID, cardID string, target targeting.Target) (effects.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.requireActive(playerID, rules.PhaseMain)
	if err != nil {
		return effects.Result{}, err
	}
	res, err := m.playCard(p, cardID, target)
	if err != nil {
		m.logRejected(p, "play_card", err)
	}
	m.afterMainAction(p)
	return res, err
}

func (m *Match) playCard(p *Player, cardID string, target targeting.Target) (effects.Result, error) {
	card, idx := p.findInHand(cardID)
	if idx < 0 {
		return effects.Result{}, fmt.Errorf("card %s: %w", cardID, ErrCardNotFound)
	}

	var tgt effects.Target
	if card.IsSpell() {
		def, ok := effects.Lookup(card.Spell.Effect)
		if !ok {
			return effects.Result{}, fmt.Errorf("%s: effect %q: %w", card.Name, card.Spell.Effect, ErrInvalidCardKind)
		}
		if target.IsZero() {
			target = targeting.PlayerTarget(p.ID)
		}
		if err := m.validator.ValidateTarget(target, def.Requirement); err != nil {
			return effects.Result{}, fmt.Errorf("%s: %v: %w", card.Name, err, ErrInvalidTarget)
		}
		tgt = m.resolveTarget(target, card)
	}

	res, err := p.PlayCardFromHand(card, tgt)
	if err != nil {
		return res, err
	}
	if card.IsCreature() {
		m.addMessage(fmt.Sprintf("%s played unit: %s", p.Name, card.Name))
	} else {
		m.addMessage(fmt.Sprintf("%s played spell: %s", p.Name, card.Name))
	}
	if m.logger != nil {
		m.logger.Debug("card played",
			zap.String("match_id", m.ID),
			zap.String("player_id", p.ID),
			zap.String("card", card.Name),
			zap.String("target", target.String()),
		)
	}
	return res, nil
}

// resolveTarget turns a validated target into something effects can act on.
func (m *Match) resolveTarget(target targeting.Target, source *Card) effects.Target {
	if target.Type == targeting.TargetTypePlayer {
		return playerTarget{player: m.players[target.ID], source: source}
	}
	for _, id := range m.order {
		owner := m.players[id]
		if card, idx := owner.findOnField(target.ID); idx >= 0 {
			return creatureTarget{card: card, owner: owner, source: source}
		}
	}
	return nil
}

// DeclareAttack queues a creature from the active player's field to attack
// in the opponent's next block phase.
func (m *Match) DeclareAttack(playerID, cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.requireActive(playerID, rules.PhaseMain)
	if err != nil {
		return err
	}
	card, idx := p.findOnField(cardID)
	if idx < 0 {
		err = fmt.Errorf("card %s is not on %s's field: %w", cardID, p.Name, ErrCannotAttack)
	} else {
		err = p.UnitAttack(card)
	}
	if err != nil {
		m.logRejected(p, "declare_attack", err)
	} else {
		m.addMessage(fmt.Sprintf("%s declares %s as an attacker.", p.Name, card.Name))
	}
	m.afterMainAction(p)
	return err
}

// EndTurn ends the active player's main phase and hands the turn over.
func (m *Match) EndTurn(playerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.requireActive(playerID, rules.PhaseMain); err != nil {
		return false, err
	}
	m.endTurn()
	return true, nil
}

// Forfeit concedes the match for playerID, whoever's turn it is.
func (m *Match) Forfeit(playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return fmt.Errorf("match %s has not started: %w", m.ID, ErrWrongPhase)
	}
	if m.result != nil {
		return fmt.Errorf("match %s: %w", m.ID, ErrMatchOver)
	}
	p, ok := m.players[playerID]
	if !ok {
		return fmt.Errorf("player %s: %w", playerID, ErrPlayerNotFound)
	}
	p.Forfeit()
	m.checkGameOver()
	return nil
}

// FindPlayerForTarget implements targeting.TargetGameStateAccessor.
// The caller must hold the match lock.
func (m *Match) FindPlayerForTarget(playerID string) (targeting.TargetPlayerInfo, bool) {
	p, ok := m.players[playerID]
	if !ok {
		return targeting.TargetPlayerInfo{}, false
	}
	return targeting.TargetPlayerInfo{PlayerID: p.ID, Name: p.Name, HP: p.HP, Forfeited: p.Forfeited}, true
}

// FindCreatureForTarget implements targeting.TargetGameStateAccessor.
// The caller must hold the match lock.
func (m *Match) FindCreatureForTarget(cardID string) (targeting.TargetCardInfo, bool) {
	for _, id := range m.order {
		owner := m.players[id]
		if card, idx := owner.findOnField(cardID); idx >= 0 {
			return targeting.TargetCardInfo{
				ID:      card.ID,
				Name:    card.Name,
				OwnerID: owner.ID,
				HP:      card.Creature.HP,
				OnField: true,
			}, true
		}
	}
	return targeting.TargetCardInfo{}, false
}
