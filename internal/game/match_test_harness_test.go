package game

import (
	"testing"

	"github.com/magefree/hearth-server-go/internal/game/catalog"
	"github.com/magefree/hearth-server-go/internal/game/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	alice = "alice"
	bob   = "bob"
)

// MatchTestHarness builds deterministic matches and pokes at their state.
type MatchTestHarness struct {
	t     *testing.T
	match *Match
	cat   *catalog.Catalog
}

// HarnessOption tweaks the match before it starts.
type HarnessOption func(*MatchOptions)

// WithConfig overrides the match rules.
func WithConfig(mutate func(*MatchConfig)) HarnessOption {
	return func(o *MatchOptions) { mutate(&o.Config) }
}

// WithDeck replaces a player's deck.
func WithDeck(playerIdx int, deck []catalog.Template) HarnessOption {
	return func(o *MatchOptions) { o.Players[playerIdx].Deck = deck }
}

// WithRichMana starts both players at 10 mana on their first turn.
func WithRichMana() HarnessOption {
	return WithConfig(func(c *MatchConfig) { c.StartingMaxMana = 9 })
}

// NewMatchTestHarness starts a match between Alice and Bob. Alice goes
// first and both decks are thirty Bandits unless options say otherwise.
func NewMatchTestHarness(t *testing.T, opts ...HarnessOption) *MatchTestHarness {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	bandit, ok := cat.Lookup("Bandit")
	require.True(t, ok)
	deck := func() []catalog.Template {
		out := make([]catalog.Template, 30)
		for i := range out {
			out[i] = bandit
		}
		return out
	}

	mo := MatchOptions{
		ID: "test-match",
		Players: [2]PlayerSetup{
			{ID: alice, Name: "Alice", Deck: deck()},
			{ID: bob, Name: "Bob", Deck: deck()},
		},
		Config:        DefaultMatchConfig(),
		FirstPlayerID: alice,
	}
	for _, opt := range opts {
		opt(&mo)
	}

	m, err := NewMatch(mo, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Start())
	return &MatchTestHarness{t: t, match: m, cat: cat}
}

// Player returns the live player state.
func (h *MatchTestHarness) Player(id string) *Player {
	h.t.Helper()
	p, ok := h.match.players[id]
	require.True(h.t, ok, "no player %s", id)
	return p
}

// AddToHand prints a catalog card straight into a player's hand.
func (h *MatchTestHarness) AddToHand(playerID, name string) *Card {
	h.t.Helper()
	tmpl, ok := h.cat.Lookup(name)
	require.True(h.t, ok, "no catalog card %s", name)
	card, err := NewCardFromTemplate(tmpl)
	require.NoError(h.t, err)

	h.match.mu.Lock()
	defer h.match.mu.Unlock()
	p := h.Player(playerID)
	card.moveTo(ZoneHand, p.ID)
	p.Hand = append(p.Hand, card)
	return card
}

// PutOnField puts a creature onto a player's field, ready to attack and defend.
func (h *MatchTestHarness) PutOnField(playerID, name string, attack, hp int) *Card {
	h.t.Helper()
	card := NewCreatureCard(name, 1, attack, hp)

	h.match.mu.Lock()
	defer h.match.mu.Unlock()
	p := h.Player(playerID)
	card.moveTo(ZoneField, p.ID)
	card.Creature.CanAttack = true
	card.Creature.CanDefend = true
	p.Field = append(p.Field, card)
	return card
}

// SetHP sets a player's health directly.
func (h *MatchTestHarness) SetHP(playerID string, hp int) {
	h.match.mu.Lock()
	defer h.match.mu.Unlock()
	h.Player(playerID).HP = hp
}

// AttackWith declares each creature as an attacker for the active player.
func (h *MatchTestHarness) AttackWith(playerID string, cards ...*Card) {
	h.t.Helper()
	for _, c := range cards {
		require.NoError(h.t, h.match.DeclareAttack(playerID, c.ID))
	}
}

// PassTurn ends the active player's turn.
func (h *MatchTestHarness) PassTurn(playerID string) {
	h.t.Helper()
	ended, err := h.match.EndTurn(playerID)
	require.NoError(h.t, err)
	require.True(h.t, ended)
}

// AssertHP checks a player's health.
func (h *MatchTestHarness) AssertHP(playerID string, want int) {
	h.t.Helper()
	require.Equal(h.t, want, h.Player(playerID).HP, "%s HP", playerID)
}

// AssertOnField checks whether a card is on its owner's field.
func (h *MatchTestHarness) AssertOnField(playerID string, card *Card, want bool) {
	h.t.Helper()
	_, idx := h.Player(playerID).findOnField(card.ID)
	require.Equal(h.t, want, idx >= 0, "%s on %s's field", card.Name, playerID)
}

// AssertPhase checks the active player and phase.
func (h *MatchTestHarness) AssertPhase(activeID string, phase rules.Phase) {
	h.t.Helper()
	require.Equal(h.t, activeID, h.match.ActivePlayerID())
	require.Equal(h.t, phase, h.match.Phase())
}

// AssertInvariants checks the properties that hold after every action.
func (h *MatchTestHarness) AssertInvariants() {
	h.t.Helper()
	for _, id := range h.match.order {
		p := h.Player(id)
		require.LessOrEqual(h.t, p.HP, p.MaxHP, "%s HP above max", id)
		require.LessOrEqual(h.t, p.Mana.Current(), p.Mana.Max())
		require.LessOrEqual(h.t, p.Mana.Max(), h.match.cfg.ManaCap)
		for _, c := range p.Field {
			require.Greater(h.t, c.Creature.HP, 0, "dead %s still on field", c.Name)
			require.LessOrEqual(h.t, c.Creature.HP, c.Creature.MaxHP)
		}
	}
}
