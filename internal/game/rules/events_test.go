package rules

import (
	"testing"
	"time"
)

func TestEventBusSubscribe(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(NewEvent(EventSpellCast, "card0", "card0", "player1"))

	var order []string
	bus.Subscribe(func(e Event) { order = append(order, "first:"+string(e.Type)) })
	bus.Subscribe(func(e Event) { order = append(order, "second:"+string(e.Type)) })
	bus.Subscribe(nil)

	bus.Publish(NewEvent(EventSpellCast, "card1", "card1", "player1"))
	bus.Publish(NewEvent(EventGainedLife, "player1", "source1", "player1"))
	want := []string{"first:SPELL_CAST", "second:SPELL_CAST", "first:GAINED_LIFE", "second:GAINED_LIFE"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected listeners in subscription order %v, got %v", want, order)
		}
	}
}

func TestEventConstructors(t *testing.T) {
	before := time.Now()
	evt := NewEventWithAmount(EventDamagedPlayer, "bob", "knight-1", "alice", 5)
	after := time.Now()

	if evt.Type != EventDamagedPlayer || evt.Amount != 5 {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.TargetID != "bob" || evt.SourceID != "knight-1" {
		t.Fatalf("unexpected target/source %q/%q", evt.TargetID, evt.SourceID)
	}
	if evt.Controller != "alice" || evt.PlayerID != "alice" {
		t.Fatalf("expected controller to default the affected player, got %q/%q", evt.Controller, evt.PlayerID)
	}
	if evt.ID == "" {
		t.Fatal("expected event ID to be assigned")
	}
	if other := NewEvent(EventDamagedPlayer, "bob", "", "alice"); other.ID == evt.ID {
		t.Fatal("expected unique event IDs")
	}
	if evt.Timestamp.Before(before) || evt.Timestamp.After(after) {
		t.Fatal("event timestamp should be between before and after")
	}

	combat := NewEventWithFlag(EventDamagedCreature, "wall-1", "knight-1", "alice", true)
	if !combat.Flag {
		t.Fatal("expected flag true")
	}
}
