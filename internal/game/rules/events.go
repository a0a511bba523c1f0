package rules

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Match/turn events
	EventMatchStarted EventType = "MATCH_STARTED"
	EventTurnStarted  EventType = "TURN_STARTED"
	EventPhaseChanged EventType = "PHASE_CHANGED"
	EventTurnEnded    EventType = "TURN_ENDED"
	EventMatchEnded   EventType = "MATCH_ENDED"
	EventRoundLimit   EventType = "ROUND_LIMIT"

	// Resource events
	EventManaIncremented EventType = "MANA_INCREMENTED"
	EventManaPaid        EventType = "MANA_PAID"
	EventActionsReset    EventType = "ACTIONS_RESET"

	// Card events
	EventDrewCard     EventType = "DREW_CARD"
	EventDeckEmpty    EventType = "DECK_EMPTY"
	EventCardPlayed   EventType = "CARD_PLAYED"
	EventCreatureCast EventType = "CREATURE_CAST"
	EventSpellCast    EventType = "SPELL_CAST"

	// Combat events
	EventAttackerDeclared EventType = "ATTACKER_DECLARED"
	EventBlockerDeclared  EventType = "BLOCKER_DECLARED"
	EventUnblockedAttack  EventType = "UNBLOCKED_ATTACK"
	EventAttackResolved   EventType = "ATTACK_RESOLVED"

	// Life/damage events
	EventDamagedPlayer   EventType = "DAMAGED_PLAYER"
	EventDamagedCreature EventType = "DAMAGED_CREATURE"
	EventCreatureDied    EventType = "CREATURE_DIED"
	EventGainedLife      EventType = "GAINED_LIFE"

	// Player events
	EventForfeited EventType = "FORFEITED"
	EventWins      EventType = "WINS"
	EventLost      EventType = "LOST"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type       EventType
	ID         string    // Unique event ID
	MatchID    string    // Match the event belongs to
	TargetID   string    // ID of the target (card or player)
	SourceID   string    // ID of the source card
	Controller string    // Player ID of the controller of the source
	PlayerID   string    // Player affected (often same as Controller)
	Amount     int       // Numeric value (damage, life, mana, cards)
	Flag       bool      // Boolean flag (combat damage vs spell damage, etc.)
	Data       string    // Additional string data
	Zone       string    // Zone the event relates to (empty = none)
	Timestamp  time.Time // When the event occurred
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// EventBus provides a synchronous publish/subscribe implementation.
type EventBus struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a listener for all events. Listeners run in
// subscription order.
func (bus *EventBus) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.listeners = append(bus.listeners, listener)
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners must not publish on the same bus.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, targetID, sourceID, controllerID string) Event {
	return Event{
		Type:       eventType,
		ID:         uuid.NewString(),
		TargetID:   targetID,
		SourceID:   sourceID,
		Controller: controllerID,
		PlayerID:   controllerID,
		Timestamp:  time.Now(),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, targetID, sourceID, controllerID string, amount int) Event {
	evt := NewEvent(eventType, targetID, sourceID, controllerID)
	evt.Amount = amount
	return evt
}

// NewEventWithFlag creates a new event with a flag value.
func NewEventWithFlag(eventType EventType, targetID, sourceID, controllerID string, flag bool) Event {
	evt := NewEvent(eventType, targetID, sourceID, controllerID)
	evt.Flag = flag
	return evt
}
