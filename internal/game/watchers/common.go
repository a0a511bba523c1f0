package watchers

import "github.com/magefree/hearth-server-go/internal/game/rules"

// SpellsCastWatcher tracks spells cast by players.
type SpellsCastWatcher struct {
	*rules.BaseWatcher
	spellsCast map[string]int // playerID -> spells cast
}

// NewSpellsCastWatcher creates a new spells cast watcher.
func NewSpellsCastWatcher() *SpellsCastWatcher {
	return &SpellsCastWatcher{
		BaseWatcher: rules.NewBaseWatcher("SpellsCastWatcher"),
		spellsCast:  make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *SpellsCastWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventSpellCast {
		return
	}
	playerID := event.PlayerID
	if playerID == "" {
		playerID = event.Controller
	}
	if playerID == "" || event.SourceID == "" {
		return
	}
	w.spellsCast[playerID]++
}

// GetCount returns the number of spells cast by a player.
func (w *SpellsCastWatcher) GetCount(playerID string) int {
	return w.spellsCast[playerID]
}

// CreaturesDiedWatcher tracks creatures that left the field by dying.
type CreaturesDiedWatcher struct {
	*rules.BaseWatcher
	diedByOwner  map[string]int // ownerID -> creatures lost
	killsByRival map[string]int // playerID -> opposing creatures killed
}

// NewCreaturesDiedWatcher creates a new creatures died watcher.
func NewCreaturesDiedWatcher() *CreaturesDiedWatcher {
	return &CreaturesDiedWatcher{
		BaseWatcher:  rules.NewBaseWatcher("CreaturesDiedWatcher"),
		diedByOwner:  make(map[string]int),
		killsByRival: make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *CreaturesDiedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCreatureDied {
		return
	}
	ownerID := event.PlayerID
	if ownerID == "" {
		return
	}
	w.diedByOwner[ownerID]++
	if killer := event.Controller; killer != "" && killer != ownerID {
		w.killsByRival[killer]++
	}
}

// GetAmountByOwner returns how many creatures a player lost.
func (w *CreaturesDiedWatcher) GetAmountByOwner(ownerID string) int {
	return w.diedByOwner[ownerID]
}

// GetKills returns how many opposing creatures a player killed.
func (w *CreaturesDiedWatcher) GetKills(playerID string) int {
	return w.killsByRival[playerID]
}

// GetTotalAmount returns the total number of creatures that died.
func (w *CreaturesDiedWatcher) GetTotalAmount() int {
	total := 0
	for _, count := range w.diedByOwner {
		total += count
	}
	return total
}

// DamageWatcher totals damage dealt and taken per player, across both
// combat and spells.
type DamageWatcher struct {
	*rules.BaseWatcher
	dealt map[string]int // controller of the source -> damage
	taken map[string]int // damaged player (or creature owner) -> damage
}

// NewDamageWatcher creates a new damage watcher.
func NewDamageWatcher() *DamageWatcher {
	return &DamageWatcher{
		BaseWatcher: rules.NewBaseWatcher("DamageWatcher"),
		dealt:       make(map[string]int),
		taken:       make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *DamageWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventDamagedPlayer && event.Type != rules.EventDamagedCreature {
		return
	}
	if event.Amount <= 0 {
		return
	}
	if event.Controller != "" {
		w.dealt[event.Controller] += event.Amount
	}
	if event.PlayerID != "" {
		w.taken[event.PlayerID] += event.Amount
	}
}

// GetDealt returns the damage dealt by a player's cards.
func (w *DamageWatcher) GetDealt(playerID string) int {
	return w.dealt[playerID]
}

// GetTaken returns the damage a player and their creatures took.
func (w *DamageWatcher) GetTaken(playerID string) int {
	return w.taken[playerID]
}

// CardsPlayedWatcher tracks cards played from hand, split by kind.
type CardsPlayedWatcher struct {
	*rules.BaseWatcher
	played    map[string]int // playerID -> cards played
	creatures map[string]int // playerID -> creatures put on the field
}

// NewCardsPlayedWatcher creates a new cards played watcher.
func NewCardsPlayedWatcher() *CardsPlayedWatcher {
	return &CardsPlayedWatcher{
		BaseWatcher: rules.NewBaseWatcher("CardsPlayedWatcher"),
		played:      make(map[string]int),
		creatures:   make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsPlayedWatcher) Watch(event rules.Event) {
	playerID := event.PlayerID
	if playerID == "" {
		playerID = event.Controller
	}
	if playerID == "" {
		return
	}
	switch event.Type {
	case rules.EventCardPlayed:
		w.played[playerID]++
	case rules.EventCreatureCast:
		w.creatures[playerID]++
	}
}

// GetCount returns the number of cards a player played.
func (w *CardsPlayedWatcher) GetCount(playerID string) int {
	return w.played[playerID]
}

// GetCreatureCount returns the number of creatures a player put on the field.
func (w *CardsPlayedWatcher) GetCreatureCount(playerID string) int {
	return w.creatures[playerID]
}

// CardsDrawnWatcher tracks cards drawn by players.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	cardsDrawn map[string]int // playerID -> count
}

// NewCardsDrawnWatcher creates a new cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	return &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher("CardsDrawnWatcher"),
		cardsDrawn:  make(map[string]int),
	}
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventDrewCard {
		return
	}
	playerID := event.PlayerID
	if playerID == "" {
		playerID = event.Controller
	}
	if playerID == "" {
		return
	}
	w.cardsDrawn[playerID]++
}

// GetCount returns the number of cards drawn by a player.
func (w *CardsDrawnWatcher) GetCount(playerID string) int {
	return w.cardsDrawn[playerID]
}
